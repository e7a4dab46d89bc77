package jsonbind

import (
	"fmt"
	"reflect"
)

var errNilDescriptor = fmt.Errorf("jsonbind: nil type descriptor")

// Resolver is the handle factories receive. It carries the in-flight map of
// one top-level resolution call, so recursive lookups of a type that is
// still being constructed terminate on its forward declaration instead of
// recursing forever. A Resolver is confined to the call stack that created
// it; it is never shared between concurrent top-level calls.
type Resolver struct {
	binder   *Binder
	depth    int
	inflight map[reflect.Type]*futureAdapter
	staged   map[reflect.Type]Adapter
}

func (b *Binder) newResolver() *Resolver {
	return &Resolver{
		binder:   b,
		inflight: make(map[reflect.Type]*futureAdapter),
		staged:   make(map[reflect.Type]Adapter),
	}
}

// Resolve returns the adapter for d, constructing and memoizing it on first
// use. Factories are consulted most-recently-registered first, built-ins
// last. Constructed adapters are staged on the Resolver and published to the
// shared cache only when the outermost resolution completes, so an adapter
// still holding an unbound forward declaration never escapes this call
// stack.
func (r *Resolver) Resolve(d Descriptor) (Adapter, error) {
	if !d.valid() {
		return nil, errNilDescriptor
	}
	b := r.binder

	b.mu.RLock()
	cached := b.cache[d.t]
	b.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	if a, ok := r.staged[d.t]; ok {
		return a, nil
	}
	if fut, ok := r.inflight[d.t]; ok {
		return fut, nil
	}
	fut := &futureAdapter{}
	r.inflight[d.t] = fut
	r.depth++
	defer func() {
		delete(r.inflight, d.t)
		r.depth--
	}()

	for _, f := range b.factories {
		a, err := f.Create(r, d)
		if err != nil {
			return nil, err
		}
		if a == nil {
			continue
		}
		b.debug.Log("resolved", d.String(), fmt.Sprintf("%T", f))
		a = nullSafe(d, a)
		r.staged[d.t] = a
		fut.bind(a)
		if r.depth == 1 {
			a = b.commit(r.staged, d.t)
		}
		return a, nil
	}
	return nil, configErrorf("no adapter handles %s", d)
}

// ResolveSkipping walks the factory chain starting immediately after skip.
// A factory sourced from a directive or a partial registration uses it to
// obtain the adapter the rest of the chain would have produced, so it can
// delegate the half it does not implement. Results are not memoized: they
// are delegation targets private to the asking factory.
func (r *Resolver) ResolveSkipping(skip Factory, d Descriptor) (Adapter, error) {
	if !d.valid() {
		return nil, errNilDescriptor
	}
	past := false
	for _, f := range r.binder.factories {
		if !past {
			if f == skip {
				past = true
			}
			continue
		}
		a, err := f.Create(r, d)
		if err != nil {
			return nil, err
		}
		if a == nil {
			continue
		}
		return nullSafe(d, a), nil
	}
	if !past {
		return nil, configErrorf("cannot skip a factory that is not registered: %T", skip)
	}
	return nil, configErrorf("no adapter handles %s past %T", d, skip)
}

// commit publishes one completed resolution's adapters. Every future bound
// during the resolution already delegates to a real adapter by this point,
// so nothing half-built becomes visible, and the lock pairs with the read
// lock in Resolve to order the bindings before any concurrent use. A type a
// concurrent resolution cached first keeps the earlier adapter; the cache
// never ends up holding two adapters for one descriptor.
func (b *Binder) commit(staged map[reflect.Type]Adapter, t reflect.Type) Adapter {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ty, a := range staged {
		if b.cache[ty] == nil {
			b.cache[ty] = a
		}
	}
	return b.cache[t]
}
