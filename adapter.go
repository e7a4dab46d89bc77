package jsonbind

import (
	"fmt"
	"reflect"

	"github.com/karagenc/jsonbind/token"
)

var errAdapterNotReady = fmt.Errorf("jsonbind: adapter used before its definition completed")

type (
	// Serializer is the write half of an adapter.
	Serializer interface {
		WriteValue(w token.Writer, v reflect.Value) error
	}

	// Deserializer is the read half of an adapter.
	Deserializer interface {
		ReadValue(r token.Reader) (reflect.Value, error)
	}

	// Adapter is the paired read/write capability for one type's wire
	// representation. Every adapter handed out by a Resolver is null safe:
	// a nil value writes a null token and a null token reads as the zero
	// value, without entering the adapter itself.
	Adapter interface {
		Serializer
		Deserializer
	}

	// Factory produces an Adapter for a descriptor, or declines it by
	// returning (nil, nil).
	Factory interface {
		Create(r *Resolver, d Descriptor) (Adapter, error)
	}

	// FactoryFunc adapts a function to the Factory interface.
	FactoryFunc func(r *Resolver, d Descriptor) (Adapter, error)
)

func (f FactoryFunc) Create(r *Resolver, d Descriptor) (Adapter, error) { return f(r, d) }

type (
	// TypeAdapter is the statically typed form of Adapter, bridged with
	// AdapterOf.
	TypeAdapter[T any] interface {
		TypeSerializer[T]
		TypeDeserializer[T]
	}

	TypeSerializer[T any] interface {
		Write(w token.Writer, v T) error
	}

	TypeDeserializer[T any] interface {
		Read(r token.Reader) (T, error)
	}

	// WriteFunc and ReadFunc let a plain function serve as one half of a
	// typed adapter.
	WriteFunc[T any] func(w token.Writer, v T) error
	ReadFunc[T any] func(r token.Reader) (T, error)
)

func (f WriteFunc[T]) Write(w token.Writer, v T) error { return f(w, v) }
func (f ReadFunc[T]) Read(r token.Reader) (T, error)   { return f(r) }

// AdapterOf bridges a typed adapter to the reflective core. A value of the
// wrong type surfaces as a *TypeMismatchError at use time, never a panic.
func AdapterOf[T any](a TypeAdapter[T]) Adapter {
	return &halfAdapter{ser: typedSerializer[T]{impl: a}, deser: typedDeserializer[T]{impl: a}}
}

// SerializerOf bridges the write half alone.
func SerializerOf[T any](s TypeSerializer[T]) Serializer {
	return typedSerializer[T]{impl: s}
}

// DeserializerOf bridges the read half alone.
func DeserializerOf[T any](d TypeDeserializer[T]) Deserializer {
	return typedDeserializer[T]{impl: d}
}

type typedSerializer[T any] struct {
	impl TypeSerializer[T]
}

func (s typedSerializer[T]) WriteValue(w token.Writer, v reflect.Value) error {
	want := reflect.TypeOf((*T)(nil)).Elem()
	if !v.IsValid() {
		var zero T
		return s.impl.Write(w, zero)
	}
	if !v.Type().AssignableTo(want) {
		return &TypeMismatchError{Want: want, Got: v.Type()}
	}
	return s.impl.Write(w, v.Interface().(T))
}

type typedDeserializer[T any] struct {
	impl TypeDeserializer[T]
}

func (d typedDeserializer[T]) ReadValue(r token.Reader) (reflect.Value, error) {
	out, err := d.impl.Read(r)
	if err != nil {
		return reflect.Value{}, err
	}
	// Going through a pointer keeps the static type even when out is a
	// nil-able nil.
	return reflect.ValueOf(&out).Elem(), nil
}

// halfAdapter glues independently sourced halves into a full adapter.
type halfAdapter struct {
	ser   Serializer
	deser Deserializer
}

func (a *halfAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	return a.ser.WriteValue(w, v)
}

func (a *halfAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	return a.deser.ReadValue(r)
}

// nullSafeAdapter intercepts nulls in both directions so adapter
// implementations never see them.
type nullSafeAdapter struct {
	d        Descriptor
	delegate Adapter
}

func nullSafe(d Descriptor, a Adapter) Adapter {
	if _, ok := a.(*nullSafeAdapter); ok {
		return a
	}
	return &nullSafeAdapter{d: d, delegate: a}
}

func (a *nullSafeAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	if isNilValue(v) {
		return w.Null()
	}
	return a.delegate.WriteValue(w, v)
}

func (a *nullSafeAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	k, err := r.Peek()
	if err != nil {
		return reflect.Value{}, err
	}
	if k == token.Null {
		if err := r.Null(); err != nil {
			return reflect.Value{}, err
		}
		return a.d.zero(), nil
	}
	return a.delegate.ReadValue(r)
}

func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return v.IsNil()
	}
	return false
}

// futureAdapter is the forward declaration that breaks resolution cycles.
// It is registered in the per-call in-flight map before any factory runs
// for its descriptor and bound once construction completes.
type futureAdapter struct {
	delegate Adapter
}

func (f *futureAdapter) bind(a Adapter) { f.delegate = a }

func (f *futureAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	if f.delegate == nil {
		return errAdapterNotReady
	}
	return f.delegate.WriteValue(w, v)
}

func (f *futureAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	if f.delegate == nil {
		return reflect.Value{}, errAdapterNotReady
	}
	return f.delegate.ReadValue(r)
}
