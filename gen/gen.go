// Package gen writes adapters ahead of time. For each struct type it emits a
// <Type>Adapter implementing jsonshape.Adapter with the same member names,
// order, null handling and binding strategy that runtime derivation would use,
// plus an init that registers it with jsonshape.Default().
//
// A typical generator program:
//
//	var buf bytes.Buffer
//	err := gen.Generate(&buf, gen.Config{
//		Package: "model",
//		PkgPath: "example.com/app/model",
//		Constructors: []gen.Constructor{{Fn: model.NewUser}},
//	}, reflect.TypeFor[model.User]())
//
// Field types are not expanded: the generated adapter asks the registry for
// each field's adapter the first time it is used.
package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"io"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/jsonshape"
	"github.com/unkn0wn-root/jsonshape/internal/shape"
)

type Config struct {
	// Package is the name of the generated file's package. Required.
	Package string
	// PkgPath is the import path of that package; its types are not
	// qualified.
	PkgPath string
	// TagName is the struct tag read for member names; "" => "json".
	TagName string
	// Constructors are registered as with Registry.RegisterConstructor.
	Constructors []Constructor
	// NoInit omits the init that registers the adapters.
	NoInit bool
}

type Constructor struct {
	Fn    any // a top-level function
	Names []string
}

const (
	rootPath  = "github.com/unkn0wn-root/jsonshape"
	valuePath = "github.com/unkn0wn-root/jsonshape/value"
)

// Generate writes gofmt-ed Go source with one adapter per type. It fails for
// any type runtime derivation would reject, and for types or constructors
// generated code cannot name.
func Generate(w io.Writer, cfg Config, types ...reflect.Type) error {
	if !token.IsIdentifier(cfg.Package) {
		return fmt.Errorf("gen: invalid package name %q", cfg.Package)
	}
	if len(types) == 0 {
		return fmt.Errorf("gen: no types")
	}

	shapes := shape.NewResolver(cfg.TagName)
	reg := jsonshape.NewRegistry(jsonshape.Options{TagName: cfg.TagName})
	for _, c := range cfg.Constructors {
		if _, err := shapes.AddConstructor(c.Fn, c.Names...); err != nil {
			return err
		}
		if err := reg.RegisterConstructor(c.Fn, c.Names...); err != nil {
			return err
		}
	}

	g := &generator{
		imports: newImports(cfg.PkgPath),
		shapes:  shapes,
	}
	file := fileModel{Package: cfg.Package, Init: !cfg.NoInit}
	seen := make(map[reflect.Type]bool, len(types))
	for _, t := range types {
		if seen[t] {
			return fmt.Errorf("gen: %v listed twice", t)
		}
		seen[t] = true

		if _, err := reg.Lookup(t); err != nil {
			return err
		}
		m, err := g.typeModel(t)
		if err != nil {
			return err
		}
		file.Types = append(file.Types, m)
	}
	file.Imports = g.imports.list()

	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, file); err != nil {
		return err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("gen: format: %w\n%s", err, buf.Bytes())
	}
	_, err = w.Write(src)
	return err
}

type fileModel struct {
	Package string
	Imports []importSpec
	Types   []typeModel
	Init    bool
}

type typeModel struct {
	Name     string // adapter is Name + "Adapter"
	Type     string
	Strategy string
	Fields   []fieldModel
	Params   []paramModel
	Injected []fieldModel
	Ctor     *ctorModel
}

type fieldModel struct {
	Var    string
	Key    string
	GoName string
	Type   string
}

type paramModel struct {
	Var      string
	FieldVar string
	Key      string
	Type     string
}

type ctorModel struct {
	Call string
	Args string
	Type string // the product type
	Ptr  bool
	Err  bool
}

type generator struct {
	imports *imports
	shapes  *shape.Resolver
}

func (g *generator) typeModel(t reflect.Type) (typeModel, error) {
	if t.Kind() != reflect.Struct || t.Name() == "" {
		return typeModel{}, fmt.Errorf("gen: %v is not a named struct type", t)
	}
	s, err := g.shapes.Resolve(t)
	if err != nil {
		return typeModel{}, err
	}
	if s.Kind != shape.Product {
		return typeModel{}, fmt.Errorf("gen: %v is %s, not a product", t, s.Kind)
	}
	typ, err := g.imports.typeExpr(t)
	if err != nil {
		return typeModel{}, err
	}

	plan := s.Plan
	m := typeModel{Name: t.Name(), Type: typ, Strategy: plan.Strategy.String()}
	for i, f := range plan.Fields {
		ft, err := g.imports.typeExpr(f.Type)
		if err != nil {
			return typeModel{}, fmt.Errorf("gen: field %v.%s: %w", t, f.GoName, err)
		}
		m.Fields = append(m.Fields, fieldModel{
			Var:    "f" + strconv.Itoa(i),
			Key:    f.Name,
			GoName: f.GoName,
			Type:   ft,
		})
	}

	args := make([]string, len(plan.Params))
	for i, fi := range plan.Params {
		f := m.Fields[fi]
		p := paramModel{Var: "p" + strconv.Itoa(i), FieldVar: f.Var, Key: f.Key, Type: f.Type}
		m.Params = append(m.Params, p)
		args[i] = p.Var
	}
	for _, fi := range plan.Injected {
		m.Injected = append(m.Injected, m.Fields[fi])
	}

	if c := plan.Ctor; c != nil {
		call, err := g.funcExpr(c.Fn)
		if err != nil {
			return typeModel{}, err
		}
		m.Ctor = &ctorModel{
			Call: call,
			Args: strings.Join(args, ", "),
			Type: typ,
			Ptr:  c.ReturnsPtr,
			Err:  c.ReturnsErr,
		}
	}
	return m, nil
}

// funcExpr spells a top-level function as generated code can call it.
func (g *generator) funcExpr(fn reflect.Value) (string, error) {
	rf := runtime.FuncForPC(fn.Pointer())
	if rf == nil {
		return "", fmt.Errorf("gen: cannot name constructor %v", fn.Type())
	}
	full := rf.Name()
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return "", fmt.Errorf("gen: cannot name constructor %s", full)
	}
	pkgPath, name := full[:slash+1+dot], full[slash+1+dot+1:]
	if !token.IsIdentifier(name) {
		return "", fmt.Errorf("gen: constructor %s is not a top-level function", full)
	}
	if pkgPath == g.imports.self {
		return name, nil
	}
	if !token.IsExported(name) {
		return "", fmt.Errorf("gen: constructor %s is not exported", full)
	}
	return g.imports.add(pkgPath, pathBase(pkgPath)) + "." + name, nil
}

type importSpec struct {
	Alias string
	Path  string
}

type imports struct {
	self    string
	byPath  map[string]string
	aliases map[string]bool
}

func newImports(self string) *imports {
	im := &imports{
		self:    self,
		byPath:  map[string]string{"sync": "sync", rootPath: "jsonshape", valuePath: "value"},
		aliases: map[string]bool{"sync": true, "jsonshape": true, "value": true},
	}
	return im
}

func (im *imports) add(path, name string) string {
	if alias, ok := im.byPath[path]; ok {
		return alias
	}
	alias := name
	for i := 2; im.aliases[alias]; i++ {
		alias = name + strconv.Itoa(i)
	}
	im.byPath[path] = alias
	im.aliases[alias] = true
	return alias
}

// list returns the imports beyond the fixed ones, sorted by path.
func (im *imports) list() []importSpec {
	var out []importSpec
	for path, alias := range im.byPath {
		switch path {
		case "sync", rootPath, valuePath:
			continue
		}
		out = append(out, importSpec{Alias: alias, Path: path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (im *imports) typeExpr(t reflect.Type) (string, error) {
	if name := t.Name(); name != "" {
		switch {
		case strings.ContainsAny(name, "[]"):
			return "", fmt.Errorf("generic type %v", t)
		case t.PkgPath() == "":
			return name, nil
		case t.PkgPath() == im.self:
			return name, nil
		case !token.IsExported(name):
			return "", fmt.Errorf("unexported type %v from %s", t, t.PkgPath())
		}
		pkgName, _, _ := strings.Cut(t.String(), ".")
		return im.add(t.PkgPath(), pkgName) + "." + name, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		e, err := im.typeExpr(t.Elem())
		return "*" + e, err
	case reflect.Slice:
		e, err := im.typeExpr(t.Elem())
		return "[]" + e, err
	case reflect.Array:
		e, err := im.typeExpr(t.Elem())
		return "[" + strconv.Itoa(t.Len()) + "]" + e, err
	case reflect.Map:
		k, err := im.typeExpr(t.Key())
		if err != nil {
			return "", err
		}
		e, err := im.typeExpr(t.Elem())
		return "map[" + k + "]" + e, err
	case reflect.Struct:
		if t.NumField() == 0 {
			return "struct{}", nil
		}
	}
	return "", fmt.Errorf("cannot spell type %v", t)
}

func pathBase(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
