package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/jsonshape"
)

var _ jsonshape.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

func (l LogrusLogger) Debug(msg string, f jsonshape.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f jsonshape.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f jsonshape.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f jsonshape.Fields) { l.with(f).Error(msg) }

func (l LogrusLogger) with(f jsonshape.Fields) *logrus.Entry {
	e := l.E.WithField("component", "jsonshape")
	if len(f) == 0 {
		return e
	}
	return e.WithFields(logrus.Fields(f))
}
