package jsonbind

import (
	"errors"
	"reflect"
	"sort"

	"github.com/karagenc/jsonbind/token"
)

type mapFactory struct{}

func (f *mapFactory) Create(r *Resolver, d Descriptor) (Adapter, error) {
	if d.Kind() != reflect.Map {
		return nil, nil
	}
	key, err := r.Resolve(d.Key())
	if err != nil {
		return nil, err
	}
	val, err := r.Resolve(d.Elem())
	if err != nil {
		return nil, err
	}
	return &mapAdapter{binder: r.binder, d: d, key: key, val: val}, nil
}

// mapAdapter encodes maps one of two ways. In simple mode every key must
// collapse to a single primitive, which becomes an object member name. In
// complex mode, keys that stay primitive still produce the object form;
// any structured key switches the whole map to an ordered sequence of
// [key, value] pairs.
type mapAdapter struct {
	binder *Binder
	d      Descriptor
	key    Adapter
	val    Adapter
}

type mapEntry struct {
	name string
	rec  *token.Recorder
	val  reflect.Value
}

func (a *mapAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	if !a.binder.config.ComplexMapKeySerialization {
		entries, err := a.simpleEntries(v)
		if err != nil {
			return err
		}
		return a.writeObjectForm(w, entries)
	}

	entries := make([]mapEntry, 0, v.Len())
	complexKeys := false
	iter := v.MapRange()
	for iter.Next() {
		rec := &token.Recorder{}
		if err := a.key.WriteValue(rec, iter.Key()); err != nil {
			return err
		}
		if !rec.IsPrimitive() {
			complexKeys = true
		}
		entries = append(entries, mapEntry{rec: rec, val: iter.Value()})
	}
	if !complexKeys {
		for i := range entries {
			name, err := entries[i].rec.MemberName()
			if err != nil {
				return err
			}
			entries[i].name = name
		}
		return a.writeObjectForm(w, entries)
	}

	if err := w.BeginArray(); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.BeginArray(); err != nil {
			return err
		}
		if err := e.rec.Replay(w); err != nil {
			return err
		}
		if err := a.val.WriteValue(w, e.val); err != nil {
			return err
		}
		if err := w.EndArray(); err != nil {
			return err
		}
	}
	return w.EndArray()
}

func (a *mapAdapter) simpleEntries(v reflect.Value) ([]mapEntry, error) {
	entries := make([]mapEntry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		capture := &token.Capture{}
		if err := a.key.WriteValue(capture, iter.Key()); err != nil {
			if errors.Is(err, token.ErrNotPrimitive) {
				return nil, &UnsupportedKeyError{Key: a.d.Key()}
			}
			return nil, err
		}
		name, err := capture.MemberName()
		if err != nil {
			return nil, &UnsupportedKeyError{Key: a.d.Key()}
		}
		entries = append(entries, mapEntry{name: name, val: iter.Value()})
	}
	return entries, nil
}

// writeObjectForm emits members sorted by name so output is deterministic
// regardless of map iteration order.
func (a *mapAdapter) writeObjectForm(w token.Writer, entries []mapEntry) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	if err := w.BeginObject(); err != nil {
		return err
	}
	for _, e := range entries {
		if isNilValue(e.val) && !a.binder.config.SerializeNulls {
			continue
		}
		if err := w.Name(e.name); err != nil {
			return err
		}
		if err := a.val.WriteValue(w, e.val); err != nil {
			return err
		}
	}
	return w.EndObject()
}

func (a *mapAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	k, err := r.Peek()
	if err != nil {
		return reflect.Value{}, err
	}
	switch k {
	case token.BeginObject:
		return a.readObjectForm(r)
	case token.BeginArray:
		return a.readPairForm(r)
	default:
		return reflect.Value{}, &token.UnexpectedError{Want: token.BeginObject, Got: k}
	}
}

func (a *mapAdapter) readObjectForm(r token.Reader) (reflect.Value, error) {
	if err := r.BeginObject(); err != nil {
		return reflect.Value{}, err
	}
	m := reflect.MakeMap(a.d.Raw())
	for {
		k, err := r.Peek()
		if err != nil {
			return reflect.Value{}, err
		}
		if k == token.EndObject {
			break
		}
		name, err := r.Name()
		if err != nil {
			return reflect.Value{}, err
		}
		key, err := a.readKeyFromName(name)
		if err != nil {
			return reflect.Value{}, err
		}
		val, err := a.val.ReadValue(r)
		if err != nil {
			return reflect.Value{}, err
		}
		if err := a.store(m, key, val); err != nil {
			return reflect.Value{}, err
		}
	}
	if err := r.EndObject(); err != nil {
		return reflect.Value{}, err
	}
	return m, nil
}

func (a *mapAdapter) readPairForm(r token.Reader) (reflect.Value, error) {
	if err := r.BeginArray(); err != nil {
		return reflect.Value{}, err
	}
	m := reflect.MakeMap(a.d.Raw())
	for {
		k, err := r.Peek()
		if err != nil {
			return reflect.Value{}, err
		}
		if k == token.EndArray {
			break
		}
		if err := r.BeginArray(); err != nil {
			return reflect.Value{}, err
		}
		key, err := a.key.ReadValue(r)
		if err != nil {
			return reflect.Value{}, err
		}
		val, err := a.val.ReadValue(r)
		if err != nil {
			return reflect.Value{}, err
		}
		if err := r.EndArray(); err != nil {
			return reflect.Value{}, err
		}
		if err := a.store(m, key, val); err != nil {
			return reflect.Value{}, err
		}
	}
	if err := r.EndArray(); err != nil {
		return reflect.Value{}, err
	}
	return m, nil
}

// readKeyFromName feeds a member name back through the key adapter as a
// synthetic primitive token. A key adapter that demands a structured value
// cannot be satisfied by a name; that is the unsupported-key condition.
func (a *mapAdapter) readKeyFromName(name string) (reflect.Value, error) {
	key, err := a.key.ReadValue(token.NewNameReader(name))
	if err != nil {
		var unexpected *token.UnexpectedError
		if errors.As(err, &unexpected) &&
			(unexpected.Want == token.BeginObject || unexpected.Want == token.BeginArray) {
			return reflect.Value{}, &UnsupportedKeyError{Key: a.d.Key()}
		}
		return reflect.Value{}, err
	}
	return key, nil
}

func (a *mapAdapter) store(m, key, val reflect.Value) error {
	if !key.IsValid() {
		key = a.d.Key().zero()
	}
	if !val.IsValid() {
		val = a.d.Elem().zero()
	}
	if !key.Comparable() {
		return syntaxErrorf("unhashable map key of type %s", key.Type())
	}
	if m.MapIndex(key).IsValid() {
		return syntaxErrorf("duplicate key %v", key.Interface())
	}
	m.SetMapIndex(key, val)
	return nil
}
