// Package text converts between JSON source text and value trees.
//
// Parsing runs on the goccy/go-json token stream with UseNumber, so number
// literals keep their exact text and integral/floating distinction. Object
// members keep source order; a repeated key overwrites the earlier member.
// The token stream does not enforce ',' and ':' separators, so every input is
// also checked with json.Valid.
package text

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/unkn0wn-root/jsonshape/value"
)

// DefaultMaxDepth bounds array/object nesting while parsing.
const DefaultMaxDepth = 10000

var ErrSyntax = errors.New("jsonshape: syntax error")

// SyntaxError reports malformed input. Offset is the byte offset at which the
// problem was detected.
type SyntaxError struct {
	Offset int64
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("jsonshape: syntax error at offset %d: %s", e.Offset, e.Msg)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

func (e *SyntaxError) Unwrap() error { return e.Err }

// Options tune parsing. The zero value is ready to use.
type Options struct {
	MaxDepth int // 0 => DefaultMaxDepth
}

// Parse parses a single JSON value from s.
func Parse(s string) (value.Value, error) {
	return parse([]byte(s), Options{})
}

// ParseBytes parses a single JSON value from b.
func ParseBytes(b []byte) (value.Value, error) {
	return parse(b, Options{})
}

// ParseReader parses exactly one JSON value from r; anything but whitespace
// after it is a syntax error. r is read to the end.
func ParseReader(r io.Reader, opts Options) (value.Value, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parse(b, opts)
}

func parse(b []byte, opts Options) (value.Value, error) {
	v, err := tokens(b, opts)
	if err != nil {
		return nil, err
	}
	if !json.Valid(b) {
		return nil, invalid(b)
	}
	return v, nil
}

// invalid locates the error in input json.Valid rejected.
func invalid(b []byte) error {
	var v any
	err := json.Unmarshal(b, &v)
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return &SyntaxError{Offset: se.Offset, Msg: se.Error(), Err: err}
	}
	if err == nil {
		err = errors.New("malformed separators")
	}
	return &SyntaxError{Msg: err.Error(), Err: err}
}

func tokens(b []byte, opts Options) (value.Value, error) {
	p := &parser{dec: json.NewDecoder(bytes.NewReader(b)), max: opts.MaxDepth}
	if p.max <= 0 {
		p.max = DefaultMaxDepth
	}
	p.dec.UseNumber()

	tok, err := p.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, p.errorf(nil, "unexpected end of input")
		}
		return nil, err
	}
	v, err := p.value(tok)
	if err != nil {
		return nil, err
	}
	if tok, err := p.dec.Token(); err != io.EOF {
		if err != nil {
			return nil, p.wrap(err)
		}
		return nil, p.errorf(nil, "unexpected %v after top-level value", tok)
	}
	return v, nil
}

// Stringify renders v as compact JSON text.
func Stringify(v value.Value) string {
	return value.Of(v).String()
}

type parser struct {
	dec   *json.Decoder
	depth int
	max   int
}

func (p *parser) next() (json.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, p.wrap(err)
	}
	return tok, nil
}

// nextIn reads the next token inside an array or object, where EOF is always
// premature.
func (p *parser) nextIn() (json.Token, error) {
	tok, err := p.next()
	if err == io.EOF {
		return nil, p.errorf(nil, "unexpected end of input")
	}
	return tok, err
}

func (p *parser) value(tok json.Token) (value.Value, error) {
	switch t := tok.(type) {
	case nil:
		return value.Null{}, nil
	case bool:
		return value.Bool(t), nil
	case string:
		return value.Str(t), nil
	case json.Number:
		n, err := value.ParseNumber(string(t))
		if err != nil {
			return nil, p.errorf(err, "invalid number %q", string(t))
		}
		return n, nil
	case float64:
		n, err := value.Float(t)
		if err != nil {
			return nil, p.errorf(err, "invalid number")
		}
		return n, nil
	case json.Delim:
		switch t {
		case '[':
			return p.array()
		case '{':
			return p.object()
		}
		return nil, p.errorf(nil, "unexpected %q", rune(t))
	}
	return nil, p.errorf(nil, "unexpected token %v", tok)
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > p.max {
		return p.errorf(nil, "exceeded max depth of %d", p.max)
	}
	return nil
}

func (p *parser) array() (value.Value, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	arr := value.NewArray()
	for {
		tok, err := p.nextIn()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return arr, nil
		}
		v, err := p.value(tok)
		if err != nil {
			return nil, err
		}
		arr.Append(v)
	}
}

func (p *parser) object() (value.Value, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	obj := value.NewObject()
	for {
		tok, err := p.nextIn()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, p.errorf(nil, "object key must be a string, got %v", tok)
		}
		tok, err = p.nextIn()
		if err != nil {
			return nil, err
		}
		v, err := p.value(tok)
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
	}
}

func (p *parser) wrap(err error) error {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return &SyntaxError{Offset: se.Offset, Msg: se.Error(), Err: err}
	}
	return &SyntaxError{Offset: p.dec.InputOffset(), Msg: err.Error(), Err: err}
}

func (p *parser) errorf(cause error, format string, args ...any) error {
	return &SyntaxError{Offset: p.dec.InputOffset(), Msg: fmt.Sprintf(format, args...), Err: cause}
}
