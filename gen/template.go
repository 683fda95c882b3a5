package gen

import "text/template"

var fileTmpl = template.Must(template.New("file").Parse(`// Code generated by jsonshape/gen. DO NOT EDIT.

package {{.Package}}

import (
	"sync"

	"github.com/unkn0wn-root/jsonshape"
	"github.com/unkn0wn-root/jsonshape/value"
{{- range .Imports}}
	{{.Alias}} "{{.Path}}"
{{- end}}
)
{{range .Types}}
{{template "adapter" .}}
{{end}}
{{- if .Init}}
func init() {
{{- range .Types}}
	jsonshape.MustRegister[{{.Type}}](jsonshape.Default(), &{{.Name}}Adapter{})
{{- end}}
}
{{end}}`))

var _ = template.Must(fileTmpl.New("adapter").Parse(`// {{.Name}}Adapter maps {{.Type}} to and from JSON values ({{.Strategy}}).
type {{.Name}}Adapter struct {
	// Registry resolves field adapters; nil means jsonshape.Default().
	Registry *jsonshape.Registry

	once sync.Once
	err  error
{{if .Fields}}
{{end}}
{{- range .Fields}}
	{{.Var}} jsonshape.Adapter[{{.Type}}]
{{- end}}
}

var _ jsonshape.Adapter[{{.Type}}] = (*{{.Name}}Adapter)(nil)

func (a *{{.Name}}Adapter) resolve() error {
	a.once.Do(func() {
{{- if .Fields}}
		r := a.Registry
		if r == nil {
			r = jsonshape.Default()
		}
{{- end}}
{{- range .Fields}}
		if a.{{.Var}}, a.err = jsonshape.AdapterFor[{{.Type}}](r); a.err != nil {
			return
		}
{{- end}}
	})
	return a.err
}

func (a *{{.Name}}Adapter) Encode(v {{.Type}}) (value.Value, error) {
	if err := a.resolve(); err != nil {
		return nil, err
	}
	obj := value.NewObjectCap({{len .Fields}})
{{- range .Fields}}
	if err := jsonshape.EncodeField(obj, {{printf "%q" .Key}}, a.{{.Var}}, v.{{.GoName}}); err != nil {
		return nil, err
	}
{{- end}}
	return obj, nil
}

func (a *{{.Name}}Adapter) Decode(v value.Value) ({{.Type}}, error) {
	var zero, out {{.Type}}
	if err := a.resolve(); err != nil {
		return zero, err
	}
{{- if .Fields}}
	obj, err := jsonshape.ExpectObject[{{.Type}}](v)
{{- else}}
	_, err := jsonshape.ExpectObject[{{.Type}}](v)
{{- end}}
	if err != nil {
		return zero, err
	}
{{- if .Params}}
	var (
{{- range .Params}}
		{{.Var}} {{.Type}}
{{- end}}
	)
{{- range .Params}}
	if err := jsonshape.DecodeField(obj, {{printf "%q" .Key}}, a.{{.FieldVar}}, &{{.Var}}); err != nil {
		return zero, err
	}
{{- end}}
{{- end}}
{{- with .Ctor}}
{{- if and .Ptr .Err}}
	built, err := {{.Call}}({{.Args}})
	if err != nil {
		return zero, jsonshape.ConstructorFailed[{{.Type}}](err)
	}
	if built == nil {
		return zero, jsonshape.ConstructorFailed[{{.Type}}](nil)
	}
	out = *built
{{- else if .Ptr}}
	built := {{.Call}}({{.Args}})
	if built == nil {
		return zero, jsonshape.ConstructorFailed[{{.Type}}](nil)
	}
	out = *built
{{- else if .Err}}
	if out, err = {{.Call}}({{.Args}}); err != nil {
		return zero, jsonshape.ConstructorFailed[{{.Type}}](err)
	}
{{- else}}
	out = {{.Call}}({{.Args}})
{{- end}}
{{- end}}
{{- range .Injected}}
	if err := jsonshape.DecodeField(obj, {{printf "%q" .Key}}, a.{{.Var}}, &out.{{.GoName}}); err != nil {
		return zero, err
	}
{{- end}}
	return out, nil
}`))
