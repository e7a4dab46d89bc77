package jsonbind

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	ijson "github.com/karagenc/jsonbind/internal/json"
	"github.com/karagenc/jsonbind/token"
)

var (
	timeType            = reflect.TypeOf(time.Time{})
	numberLiteralType   = reflect.TypeOf(ijson.Number(""))
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// primitiveFactory covers every primitive kind, including named types
// defined on top of one (`type Level int` resolves here unless a directive,
// a registration or the type's own text marshaling claims it first).
type primitiveFactory struct{}

func (f *primitiveFactory) Create(r *Resolver, d Descriptor) (Adapter, error) {
	if d.Raw() == numberLiteralType {
		return &numberLiteralAdapter{}, nil
	}
	switch d.Kind() {
	case reflect.String:
		return &stringAdapter{d: d}, nil
	case reflect.Bool:
		return &boolAdapter{d: d}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &intAdapter{d: d}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &uintAdapter{d: d}, nil
	case reflect.Float32, reflect.Float64:
		return &floatAdapter{d: d}, nil
	}
	return nil, nil
}

type stringAdapter struct {
	d Descriptor
}

func (a *stringAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	return w.String(v.String())
}

func (a *stringAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	k, err := r.Peek()
	if err != nil {
		return reflect.Value{}, err
	}
	var s string
	switch k {
	case token.String:
		s, err = r.String()
	case token.Number:
		s, err = r.Number()
	case token.Bool:
		var b bool
		b, err = r.Bool()
		s = strconv.FormatBool(b)
	default:
		return reflect.Value{}, &token.UnexpectedError{Want: token.String, Got: k}
	}
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(s).Convert(a.d.Raw()), nil
}

type boolAdapter struct {
	d Descriptor
}

func (a *boolAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	return w.Bool(v.Bool())
}

func (a *boolAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	k, err := r.Peek()
	if err != nil {
		return reflect.Value{}, err
	}
	var b bool
	switch k {
	case token.Bool:
		b, err = r.Bool()
	case token.String:
		// Map member names arrive as strings.
		var s string
		s, err = r.String()
		if err == nil {
			b, err = strconv.ParseBool(s)
			if err != nil {
				err = syntaxErrorf("invalid bool %q", s)
			}
		}
	default:
		return reflect.Value{}, &token.UnexpectedError{Want: token.Bool, Got: k}
	}
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(a.d.Raw()).Elem()
	out.SetBool(b)
	return out, nil
}

type intAdapter struct {
	d Descriptor
}

func (a *intAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	return w.Number(strconv.FormatInt(v.Int(), 10))
}

func (a *intAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	lit, err := r.Number()
	if err != nil {
		return reflect.Value{}, err
	}
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return reflect.Value{}, syntaxErrorf("invalid integer %q", lit)
	}
	out := reflect.New(a.d.Raw()).Elem()
	if out.OverflowInt(n) {
		return reflect.Value{}, syntaxErrorf("%s overflows %s", lit, a.d)
	}
	out.SetInt(n)
	return out, nil
}

type uintAdapter struct {
	d Descriptor
}

func (a *uintAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	return w.Number(strconv.FormatUint(v.Uint(), 10))
}

func (a *uintAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	lit, err := r.Number()
	if err != nil {
		return reflect.Value{}, err
	}
	n, err := strconv.ParseUint(lit, 10, 64)
	if err != nil {
		return reflect.Value{}, syntaxErrorf("invalid integer %q", lit)
	}
	out := reflect.New(a.d.Raw()).Elem()
	if out.OverflowUint(n) {
		return reflect.Value{}, syntaxErrorf("%s overflows %s", lit, a.d)
	}
	out.SetUint(n)
	return out, nil
}

type floatAdapter struct {
	d Descriptor
}

func (a *floatAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	f := v.Float()
	lit := strconv.FormatFloat(f, 'g', -1, 64)
	switch lit {
	case "NaN", "+Inf", "-Inf":
		return fmt.Errorf("jsonbind: %s is not representable in JSON", lit)
	}
	return w.Number(lit)
}

func (a *floatAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	lit, err := r.Number()
	if err != nil {
		return reflect.Value{}, err
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return reflect.Value{}, syntaxErrorf("invalid number %q", lit)
	}
	out := reflect.New(a.d.Raw()).Elem()
	out.SetFloat(f)
	return out, nil
}

// numberLiteralAdapter round-trips json.Number without losing precision.
type numberLiteralAdapter struct{}

func (a *numberLiteralAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	return w.Number(v.String())
}

func (a *numberLiteralAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	lit, err := r.Number()
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(ijson.Number(lit)), nil
}

type timeFactory struct{}

func (f *timeFactory) Create(r *Resolver, d Descriptor) (Adapter, error) {
	if d.Raw() != timeType {
		return nil, nil
	}
	return &timeAdapter{}, nil
}

type timeAdapter struct{}

func (a *timeAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	return w.String(v.Interface().(time.Time).Format(time.RFC3339Nano))
}

func (a *timeAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	s, err := r.String()
	if err != nil {
		return reflect.Value{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return reflect.Value{}, syntaxErrorf("invalid timestamp %q", s)
	}
	return reflect.ValueOf(t), nil
}

// textFactory serves types that speak encoding.TextMarshaler and
// encoding.TextUnmarshaler, the common shape of enum-like named types.
// Their values double as map keys because the wire form is a single
// string.
type textFactory struct{}

func (f *textFactory) Create(r *Resolver, d Descriptor) (Adapter, error) {
	t := d.Raw()
	if t.Kind() == reflect.Interface {
		return nil, nil
	}
	marshals := t.Implements(textMarshalerType)
	if !marshals && t.Kind() != reflect.Pointer {
		marshals = reflect.PointerTo(t).Implements(textMarshalerType)
	}
	unmarshals := reflect.PointerTo(t).Implements(textUnmarshalerType)
	if t.Kind() == reflect.Pointer {
		unmarshals = t.Implements(textUnmarshalerType)
	}
	if !marshals || !unmarshals {
		return nil, nil
	}
	return &textAdapter{d: d}, nil
}

type textAdapter struct {
	d Descriptor
}

func (a *textAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	m, ok := v.Interface().(encoding.TextMarshaler)
	if !ok {
		// Marshaler declared on the pointer receiver.
		p := reflect.New(a.d.Raw())
		p.Elem().Set(v)
		m = p.Interface().(encoding.TextMarshaler)
	}
	text, err := m.MarshalText()
	if err != nil {
		return err
	}
	return w.String(string(text))
}

func (a *textAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	s, err := r.String()
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(a.d.Raw())
	if err = p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return reflect.Value{}, err
	}
	return p.Elem(), nil
}

type pointerFactory struct{}

func (f *pointerFactory) Create(r *Resolver, d Descriptor) (Adapter, error) {
	if d.Kind() != reflect.Pointer {
		return nil, nil
	}
	elem, err := r.Resolve(d.Elem())
	if err != nil {
		return nil, err
	}
	return &pointerAdapter{d: d, elem: elem}, nil
}

type pointerAdapter struct {
	d    Descriptor
	elem Adapter
}

func (a *pointerAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	return a.elem.WriteValue(w, v.Elem())
}

func (a *pointerAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	ev, err := a.elem.ReadValue(r)
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(a.d.Raw().Elem())
	if ev.IsValid() {
		p.Elem().Set(ev)
	}
	return p, nil
}

type sliceFactory struct{}

func (f *sliceFactory) Create(r *Resolver, d Descriptor) (Adapter, error) {
	switch d.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, nil
	}
	elem, err := r.Resolve(d.Elem())
	if err != nil {
		return nil, err
	}
	return &sliceAdapter{d: d, elem: elem}, nil
}

type sliceAdapter struct {
	d    Descriptor
	elem Adapter
}

func (a *sliceAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	if err := w.BeginArray(); err != nil {
		return err
	}
	for i := 0; i < v.Len(); i++ {
		if err := a.elem.WriteValue(w, v.Index(i)); err != nil {
			return err
		}
	}
	return w.EndArray()
}

func (a *sliceAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	if err := r.BeginArray(); err != nil {
		return reflect.Value{}, err
	}
	var (
		out   reflect.Value
		fixed = a.d.IsArray()
	)
	if fixed {
		out = reflect.New(a.d.Raw()).Elem()
	} else {
		out = reflect.MakeSlice(a.d.Raw(), 0, 8)
	}
	for i := 0; ; i++ {
		k, err := r.Peek()
		if err != nil {
			return reflect.Value{}, err
		}
		if k == token.EndArray {
			break
		}
		ev, err := a.elem.ReadValue(r)
		if err != nil {
			return reflect.Value{}, err
		}
		if !ev.IsValid() {
			ev = a.d.Elem().zero()
		}
		if fixed {
			if i >= out.Len() {
				return reflect.Value{}, syntaxErrorf("array %s holds only %d elements", a.d, out.Len())
			}
			out.Index(i).Set(ev)
		} else {
			out = reflect.Append(out, ev)
		}
	}
	if err := r.EndArray(); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

// interfaceFactory handles interface kinds. Writes resolve the value's
// dynamic type; reads compose maps, slices and primitives, and only bind
// to the empty interface.
type interfaceFactory struct{}

func (f *interfaceFactory) Create(r *Resolver, d Descriptor) (Adapter, error) {
	if d.Kind() != reflect.Interface {
		return nil, nil
	}
	return &anyAdapter{binder: r.binder, d: d}, nil
}

type anyAdapter struct {
	binder *Binder
	d      Descriptor
}

func (a *anyAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	da, err := a.binder.Resolve(DescriptorOf(v.Type()))
	if err != nil {
		return err
	}
	return da.WriteValue(w, v)
}

func (a *anyAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	if a.d.Raw().NumMethod() != 0 {
		return reflect.Value{}, configErrorf("cannot construct values of interface type %s", a.d)
	}
	out, err := a.readAny(r)
	if err != nil {
		return reflect.Value{}, err
	}
	if out == nil {
		return a.d.zero(), nil
	}
	return reflect.ValueOf(out), nil
}

func (a *anyAdapter) readAny(r token.Reader) (any, error) {
	k, err := r.Peek()
	if err != nil {
		return nil, err
	}
	switch k {
	case token.BeginObject:
		if err := r.BeginObject(); err != nil {
			return nil, err
		}
		m := make(map[string]any)
		seen := mapset.NewThreadUnsafeSet[string]()
		for {
			k, err := r.Peek()
			if err != nil {
				return nil, err
			}
			if k == token.EndObject {
				break
			}
			name, err := r.Name()
			if err != nil {
				return nil, err
			}
			if !seen.Add(name) {
				return nil, syntaxErrorf("duplicate key %q", name)
			}
			val, err := a.readAny(r)
			if err != nil {
				return nil, err
			}
			m[name] = val
		}
		return m, r.EndObject()
	case token.BeginArray:
		if err := r.BeginArray(); err != nil {
			return nil, err
		}
		var out []any
		for {
			k, err := r.Peek()
			if err != nil {
				return nil, err
			}
			if k == token.EndArray {
				break
			}
			val, err := a.readAny(r)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, r.EndArray()
	case token.String:
		return r.String()
	case token.Number:
		lit, err := r.Number()
		if err != nil {
			return nil, err
		}
		if a.binder.config.UseNumber {
			return ijson.Number(lit), nil
		}
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, syntaxErrorf("invalid number %q", lit)
		}
		return f, nil
	case token.Bool:
		return r.Bool()
	case token.Null:
		return nil, r.Null()
	default:
		return nil, &token.UnexpectedError{Want: token.BeginObject, Got: k}
	}
}
