package jsonbind

import "reflect"

// Directive is a declarative per-type override: it names the implementation
// (full adapter, factory, serializer-only or deserializer-only) that should
// handle the declared target type.
type Directive struct {
	target reflect.Type
	impl   any
}

// AdapterDirective declares impl as the wire strategy for T. impl must be
// an Adapter, a Factory, a Serializer or a Deserializer; anything else is
// rejected with a *ConfigurationError when the directive is bound.
func AdapterDirective[T any](impl any) Directive {
	return Directive{
		target: reflect.TypeOf((*T)(nil)).Elem(),
		impl:   impl,
	}
}

// AdapterProvider attaches a Directive to the type that implements it.
//
// The directive applies to the declared target only. A type derived with
// `type Sub Base` sheds the method and resolves ordinarily. A struct that
// gains the method by embedding reports the embedded type's target, which
// no longer matches the outer type, so the directive is not inherited
// there either.
type AdapterProvider interface {
	JSONAdapter() Directive
}

var adapterProviderType = reflect.TypeOf((*AdapterProvider)(nil)).Elem()

// directiveOf returns the directive t declares, if any. Pointer-receiver
// implementations are honored by probing *t as well.
func directiveOf(t reflect.Type) (Directive, bool) {
	if t.Kind() == reflect.Interface {
		return Directive{}, false
	}
	var v reflect.Value
	switch {
	case t.Implements(adapterProviderType):
		if t.Kind() == reflect.Pointer {
			v = reflect.New(t.Elem())
		} else {
			v = reflect.Zero(t)
		}
	case t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(adapterProviderType):
		v = reflect.New(t)
	default:
		return Directive{}, false
	}
	return v.Interface().(AdapterProvider).JSONAdapter(), true
}

// directiveFactory turns type-level directives into adapters. It sits after
// user registrations and before the built-ins: an explicitly registered
// adapter or serializer for the exact type wins over the directive, while a
// deserializer-only registration still delegates its write half here, and
// the directive beats every built-in strategy.
type directiveFactory struct{}

func (f *directiveFactory) Create(r *Resolver, d Descriptor) (Adapter, error) {
	dir, ok := directiveOf(d.t)
	if !ok {
		return nil, nil
	}
	if dir.target != d.t {
		// Promoted from an embedded type: not this type's directive.
		return nil, nil
	}
	return adapterFromDirective(r, f, dir, d)
}

// adapterFromDirective validates the directive's capability shape and
// builds the adapter. A partial directive fills its missing half from the
// factories past the directive factory (built-ins and the reflective
// fallback), never from user registrations: those, when present, would have
// won outright before the directive was consulted.
func adapterFromDirective(r *Resolver, skip Factory, dir Directive, d Descriptor) (Adapter, error) {
	switch impl := dir.impl.(type) {
	case Factory:
		a, err := impl.Create(r, d)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, configErrorf("factory %T named by the directive on %s declined the type", impl, d)
		}
		return a, nil
	case Adapter:
		return impl, nil
	case Serializer:
		delegate, err := r.ResolveSkipping(skip, d)
		if err != nil {
			return nil, err
		}
		return &halfAdapter{ser: impl, deser: delegate}, nil
	case Deserializer:
		delegate, err := r.ResolveSkipping(skip, d)
		if err != nil {
			return nil, err
		}
		return &halfAdapter{ser: delegate, deser: impl}, nil
	default:
		return nil, configErrorf("directive on %s names %T, which is not an adapter, factory, serializer or deserializer", d, impl)
	}
}

// fieldDirectiveAdapter builds the adapter for a field carrying an
// `adapter:"name"` tag. The named implementation overrides both the field
// type's own directive and any registration; a partial implementation
// fills its missing half through an ordinary resolution of the field type.
func fieldDirectiveAdapter(r *Resolver, name string, d Descriptor) (Adapter, error) {
	impl, ok := r.binder.named[name]
	if !ok {
		return nil, configErrorf("field directive %q on %s is not registered", name, d)
	}
	switch i := impl.(type) {
	case Factory:
		a, err := i.Create(r, d)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, configErrorf("factory %T named by field directive %q declined %s", i, name, d)
		}
		return nullSafe(d, a), nil
	case Adapter:
		return nullSafe(d, i), nil
	case Serializer:
		delegate, err := r.Resolve(d)
		if err != nil {
			return nil, err
		}
		return nullSafe(d, &halfAdapter{ser: i, deser: delegate}), nil
	case Deserializer:
		delegate, err := r.Resolve(d)
		if err != nil {
			return nil, err
		}
		return nullSafe(d, &halfAdapter{ser: delegate, deser: i}), nil
	default:
		// RegisterNamed validated the shape; this is unreachable unless
		// the map was mutated concurrently, which checkMutable forbids.
		return nil, configErrorf("field directive %q names %T", name, impl)
	}
}
