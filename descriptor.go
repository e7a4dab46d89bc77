package jsonbind

import "reflect"

// Descriptor reifies a Go type for adapter resolution. reflect.Type is
// canonical (structurally identical types share one instance), so the
// wrapped type doubles as the resolution cache key and structural equality
// is plain comparison of Descriptor values.
type Descriptor struct {
	t reflect.Type
}

// TypeOf captures T, including instantiated type arguments, so
// TypeOf[[]string]() and TypeOf[[]int]() are distinct descriptors.
func TypeOf[T any]() Descriptor {
	return Descriptor{t: reflect.TypeOf((*T)(nil)).Elem()}
}

// DescriptorOf wraps an already reified type.
func DescriptorOf(t reflect.Type) Descriptor { return Descriptor{t: t} }

// descriptorOfValue derives the descriptor from a value's dynamic type.
// A nil value has no dynamic type and maps to any.
func descriptorOfValue(v any) Descriptor {
	if v == nil {
		return TypeOf[any]()
	}
	return Descriptor{t: reflect.TypeOf(v)}
}

func (d Descriptor) valid() bool { return d.t != nil }

// Raw returns the underlying type.
func (d Descriptor) Raw() reflect.Type { return d.t }

func (d Descriptor) Kind() reflect.Kind {
	if d.t == nil {
		return reflect.Invalid
	}
	return d.t.Kind()
}

// Elem returns the element descriptor of a pointer, slice, array, map or
// channel type.
func (d Descriptor) Elem() Descriptor { return Descriptor{t: d.t.Elem()} }

// Key returns the key descriptor of a map type.
func (d Descriptor) Key() Descriptor { return Descriptor{t: d.t.Key()} }

func (d Descriptor) IsArray() bool   { return d.Kind() == reflect.Array }
func (d Descriptor) IsSlice() bool   { return d.Kind() == reflect.Slice }
func (d Descriptor) IsMap() bool     { return d.Kind() == reflect.Map }
func (d Descriptor) IsPointer() bool { return d.Kind() == reflect.Pointer }

func (d Descriptor) String() string {
	if d.t == nil {
		return "<nil>"
	}
	return d.t.String()
}

func (d Descriptor) zero() reflect.Value { return reflect.Zero(d.t) }
