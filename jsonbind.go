// Package jsonbind converts between Go object graphs and JSON token
// streams. Given a type descriptor it selects or synthesizes a paired
// read/write adapter, reconciling explicit registrations, per-type
// directives and built-in fallbacks under a fixed precedence model, and
// traverses composite values through the resolved adapters.
package jsonbind

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"sync/atomic"

	"github.com/karagenc/jsonbind/internal/sync"
	"github.com/karagenc/jsonbind/token"
)

var errNotAPointer = fmt.Errorf("jsonbind: deserialization target must be a non-nil pointer")

type Config struct {
	// SerializeNulls emits explicit nulls for nil struct fields and map
	// values instead of omitting them.
	SerializeNulls bool

	// ComplexMapKeySerialization lets maps whose keys do not collapse to a
	// primitive fall back to an array-of-pairs encoding.
	ComplexMapKeySerialization bool

	// Lenient relaxes primitive reads (numbers and bools from strings).
	Lenient bool

	// UseNumber decodes numbers bound to any as json.Number literals
	// instead of float64.
	UseNumber bool

	// Indent enables pretty printing when non-empty.
	Indent string

	// MaxDepth bounds input nesting. Zero means token.DefaultMaxDepth.
	MaxDepth int

	FieldNaming NamingPolicy
	Exclusion   ExclusionPolicy
	Debugger    Debugger
}

// Binder owns the factory chain and the resolution cache. Build it, finish
// registrations, then share it freely: once the first value flows through,
// the Binder is immutable and safe for concurrent use.
type Binder struct {
	config    Config
	factories []Factory
	userCount int
	named     map[string]any
	creators  map[reflect.Type]InstanceCreator
	mu        sync.RWMutex
	cache     map[reflect.Type]Adapter
	debug     Debugger
	used      atomic.Bool
}

func New(config *Config) *Binder {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if cfg.FieldNaming == nil {
		cfg.FieldNaming = IdentityNaming
	}
	if cfg.Exclusion == nil {
		cfg.Exclusion = noExclusion{}
	}
	if cfg.Debugger == nil {
		cfg.Debugger = NewNoopDebugger()
	}

	b := &Binder{
		config:   cfg,
		named:    make(map[string]any),
		creators: make(map[reflect.Type]InstanceCreator),
		cache:    make(map[reflect.Type]Adapter),
		debug:    cfg.Debugger.WithContext("resolver"),
	}
	b.factories = []Factory{
		&directiveFactory{},
		&timeFactory{},
		&textFactory{},
		&primitiveFactory{},
		&pointerFactory{},
		&sliceFactory{},
		&interfaceFactory{},
		&mapFactory{},
		&reflectiveFactory{},
	}
	return b
}

func (b *Binder) markUsed() { b.used.Store(true) }

func (b *Binder) checkMutable() error {
	if b.used.Load() {
		return configErrorf("binder already in use; register before the first resolution")
	}
	return nil
}

// RegisterFactory inserts f ahead of previously registered factories;
// built-ins stay last.
func (b *Binder) RegisterFactory(f Factory) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if f == nil {
		return configErrorf("nil factory")
	}
	b.factories = append([]Factory{f}, b.factories...)
	b.userCount++
	return nil
}

// Register binds impl to the exact type d. impl must be an Adapter, a
// Factory, a Serializer or a Deserializer; a partial registration fills its
// missing half from the rest of the factory chain, which is how a merely
// registered serializer leaves the read path to a type's directive. The
// registration applies to d only, never to other types.
func (b *Binder) Register(d Descriptor, impl any) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if !d.valid() {
		return errNilDescriptor
	}
	f, err := newRegisteredFactory(d, impl)
	if err != nil {
		return err
	}
	return b.RegisterFactory(f)
}

// RegisterNamed stores impl under a name that `adapter:"name"` field tags
// refer to. The capability shape is validated here, before any data flows.
func (b *Binder) RegisterNamed(name string, impl any) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if name == "" {
		return configErrorf("empty directive name")
	}
	switch impl.(type) {
	case Factory, Adapter, Serializer, Deserializer:
	default:
		return configErrorf("named directive %q: %T is not an adapter, factory, serializer or deserializer", name, impl)
	}
	b.named[name] = impl
	return nil
}

// RegisterCreator installs the instance-construction strategy used when the
// reflective adapter deserializes d.
func (b *Binder) RegisterCreator(d Descriptor, c InstanceCreator) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if c == nil {
		return configErrorf("nil instance creator for %s", d)
	}
	b.creators[d.t] = c
	return nil
}

// Resolve returns the adapter for d, synthesizing and caching it on first
// use.
func (b *Binder) Resolve(d Descriptor) (Adapter, error) {
	b.markUsed()
	return b.newResolver().Resolve(d)
}

// Marshal serializes v under its dynamic type.
func (b *Binder) Marshal(v any) ([]byte, error) {
	return b.MarshalFor(descriptorOfValue(v), v)
}

// MarshalFor serializes v as a d. Use this when the static type matters,
// e.g. for parameterized or interface types.
func (b *Binder) MarshalFor(d Descriptor, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := b.EncodeFor(&buf, d, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *Binder) Encode(w io.Writer, v any) error {
	return b.EncodeFor(w, descriptorOfValue(v), v)
}

func (b *Binder) EncodeFor(w io.Writer, d Descriptor, v any) error {
	a, err := b.Resolve(d)
	if err != nil {
		return err
	}
	rv, err := valueFor(d, v)
	if err != nil {
		return err
	}
	tw := token.NewWriter(w)
	tw.SetIndent(b.config.Indent)
	if err = a.WriteValue(tw, rv); err != nil {
		return err
	}
	return tw.Flush()
}

// Unmarshal deserializes data into the value v points to.
func (b *Binder) Unmarshal(data []byte, v any) error {
	return b.Decode(bytes.NewReader(data), v)
}

func (b *Binder) Decode(r io.Reader, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errNotAPointer
	}
	out, err := b.DecodeFor(DescriptorOf(rv.Type().Elem()), r)
	if err != nil {
		return err
	}
	if out.IsValid() {
		rv.Elem().Set(out)
	} else {
		rv.Elem().Set(reflect.Zero(rv.Type().Elem()))
	}
	return nil
}

// DecodeFor deserializes one d value from the stream.
func (b *Binder) DecodeFor(d Descriptor, r io.Reader) (reflect.Value, error) {
	a, err := b.Resolve(d)
	if err != nil {
		return reflect.Value{}, err
	}
	tr := token.NewReader(r)
	tr.SetLenient(b.config.Lenient)
	if b.config.MaxDepth > 0 {
		tr.SetMaxDepth(b.config.MaxDepth)
	}
	return a.ReadValue(tr)
}

// UnmarshalFor deserializes data as a d and returns the result.
func (b *Binder) UnmarshalFor(d Descriptor, data []byte) (any, error) {
	out, err := b.DecodeFor(d, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if !out.IsValid() {
		return nil, nil
	}
	return out.Interface(), nil
}

func valueFor(d Descriptor, v any) (reflect.Value, error) {
	if v == nil {
		return d.zero(), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(d.t) {
		return reflect.Value{}, &TypeMismatchError{Want: d.t, Got: rv.Type()}
	}
	return rv, nil
}

// registeredFactory carries one explicit registration for one exact type.
type registeredFactory struct {
	d     Descriptor
	full  Adapter
	sub   Factory
	ser   Serializer
	deser Deserializer
}

func newRegisteredFactory(d Descriptor, impl any) (*registeredFactory, error) {
	f := &registeredFactory{d: d}
	switch i := impl.(type) {
	case Factory:
		f.sub = i
	case Adapter:
		f.full = i
	case Serializer:
		f.ser = i
	case Deserializer:
		f.deser = i
	default:
		return nil, configErrorf("registration for %s: %T is not an adapter, factory, serializer or deserializer", d, impl)
	}
	return f, nil
}

func (f *registeredFactory) Create(r *Resolver, d Descriptor) (Adapter, error) {
	if d != f.d {
		return nil, nil
	}
	switch {
	case f.sub != nil:
		return f.sub.Create(r, d)
	case f.full != nil:
		return f.full, nil
	}
	// Partial registration: the missing half comes from whatever the rest
	// of the chain (a directive, a built-in, the reflective fallback)
	// would have produced.
	delegate, err := r.ResolveSkipping(f, d)
	if err != nil {
		return nil, err
	}
	if f.ser != nil {
		return &halfAdapter{ser: f.ser, deser: delegate}, nil
	}
	return &halfAdapter{ser: delegate, deser: f.deser}, nil
}
