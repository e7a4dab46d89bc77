package jsonbind

import (
	"reflect"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/karagenc/jsonbind/token"
)

// reflectiveFactory is the last factory in the chain: it synthesizes an
// adapter for any struct type no other strategy claimed, by flattening the
// type into an ordered serialized-name -> field binding table.
type reflectiveFactory struct{}

func (f *reflectiveFactory) Create(r *Resolver, d Descriptor) (Adapter, error) {
	if d.Kind() != reflect.Struct {
		return nil, nil
	}
	tb, err := newTypeBinding(r, d)
	if err != nil {
		return nil, err
	}
	return &objectAdapter{binder: r.binder, binding: tb}, nil
}

type fieldBinding struct {
	name        string
	alts        []string
	d           Descriptor
	index       []int
	adapter     Adapter
	serialize   bool
	deserialize bool
}

type typeBinding struct {
	d       Descriptor
	fields  []*fieldBinding
	byName  map[string]*fieldBinding
	creator InstanceCreator
}

func newTypeBinding(r *Resolver, d Descriptor) (*typeBinding, error) {
	tb := &typeBinding{
		d:       d,
		byName:  make(map[string]*fieldBinding),
		creator: r.binder.creators[d.Raw()],
	}
	if err := tb.collect(r, d.Raw(), nil); err != nil {
		return nil, err
	}
	return tb, nil
}

// collect walks t's fields in declaration order. An embedded struct is
// flattened in place; its bindings form the ancestral layer, which a
// shallower field of the same serialized name overwrites. Two fields at
// the same depth sharing a name keep the later declaration.
func (tb *typeBinding) collect(r *Resolver, t reflect.Type, prefix []int) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := make([]int, 0, len(prefix)+1)
		index = append(append(index, prefix...), i)

		tag := sf.Tag.Get("json")
		if sf.Anonymous && tag == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if err := tb.collect(r, ft, index); err != nil {
					return err
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if tag == "-" {
			continue
		}

		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = r.binder.config.FieldNaming(sf.Name)
		}

		excl := r.binder.config.Exclusion
		ser := !excl.SkipField(sf, DirectionSerialize) && !excl.SkipType(sf.Type, DirectionSerialize)
		deser := !excl.SkipField(sf, DirectionDeserialize) && !excl.SkipType(sf.Type, DirectionDeserialize)
		if !ser && !deser {
			continue
		}

		fd := DescriptorOf(sf.Type)
		var (
			adapter Adapter
			err     error
		)
		if directive := sf.Tag.Get("adapter"); directive != "" {
			adapter, err = fieldDirectiveAdapter(r, directive, fd)
		} else {
			adapter, err = r.Resolve(fd)
		}
		if err != nil {
			return err
		}

		fb := &fieldBinding{
			name:        name,
			d:           fd,
			index:       index,
			adapter:     adapter,
			serialize:   ser,
			deserialize: deser,
		}
		if alt := sf.Tag.Get("alt"); alt != "" {
			fb.alts = strings.Split(alt, ",")
		}
		tb.add(fb)
	}
	return nil
}

func (tb *typeBinding) add(fb *fieldBinding) {
	if prev, ok := tb.byName[fb.name]; ok {
		if len(fb.index) > len(prev.index) {
			// Deeper (more ancestral) declaration never displaces the
			// derived one.
			return
		}
		// The shadowed binding must become fully unreachable, alternate
		// names included.
		for _, alt := range prev.alts {
			if tb.byName[alt] == prev {
				delete(tb.byName, alt)
			}
		}
		for i, f := range tb.fields {
			if f == prev {
				tb.fields[i] = fb
				break
			}
		}
	} else {
		tb.fields = append(tb.fields, fb)
	}
	tb.byName[fb.name] = fb
	for _, alt := range fb.alts {
		tb.byName[alt] = fb
	}
}

func (tb *typeBinding) newInstance() (reflect.Value, error) {
	out := reflect.New(tb.d.Raw()).Elem()
	if tb.creator == nil {
		return out, nil
	}
	cv := reflect.ValueOf(tb.creator())
	if cv.Kind() == reflect.Pointer && !cv.IsNil() && cv.Type().Elem() == tb.d.Raw() {
		cv = cv.Elem()
	}
	if !cv.IsValid() || !cv.Type().AssignableTo(tb.d.Raw()) {
		return reflect.Value{}, configErrorf("instance creator for %s returned an incompatible value", tb.d)
	}
	out.Set(cv)
	return out, nil
}

type objectAdapter struct {
	binder  *Binder
	binding *typeBinding
}

func (a *objectAdapter) WriteValue(w token.Writer, v reflect.Value) error {
	if err := w.BeginObject(); err != nil {
		return err
	}
	for _, fb := range a.binding.fields {
		if !fb.serialize {
			continue
		}
		fv := fieldValue(v, fb.index)
		if isNilValue(fv) && !a.binder.config.SerializeNulls {
			continue
		}
		if err := w.Name(fb.name); err != nil {
			return err
		}
		if err := fb.adapter.WriteValue(w, fv); err != nil {
			return err
		}
	}
	return w.EndObject()
}

func (a *objectAdapter) ReadValue(r token.Reader) (reflect.Value, error) {
	if err := r.BeginObject(); err != nil {
		return reflect.Value{}, err
	}
	inst, err := a.binding.newInstance()
	if err != nil {
		return reflect.Value{}, err
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	bound := mapset.NewThreadUnsafeSet[string]()
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
		if !seen.Add(name) {
			return reflect.Value{}, syntaxErrorf("duplicate key %q", name)
		}
		fb := a.binding.byName[name]
		if fb == nil || !fb.deserialize {
			// Unrecognized keys are skipped for forward compatibility.
			if err := r.SkipValue(); err != nil {
				return reflect.Value{}, err
			}
			continue
		}
		if !bound.Add(fb.name) {
			// The same field fed twice through an alternate name.
			return reflect.Value{}, syntaxErrorf("duplicate field %q via key %q", fb.name, name)
		}
		val, err := fb.adapter.ReadValue(r)
		if err != nil {
			return reflect.Value{}, err
		}
		target := fieldByIndexAlloc(inst, fb.index)
		if val.IsValid() {
			target.Set(val)
		} else {
			target.Set(fb.d.zero())
		}
	}
	if err := r.EndObject(); err != nil {
		return reflect.Value{}, err
	}
	return inst, nil
}

// fieldValue walks an index path for reading, stopping at nil embedded
// pointers.
func fieldValue(v reflect.Value, index []int) reflect.Value {
	for n, i := range index {
		if n > 0 {
			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return reflect.Value{}
				}
				v = v.Elem()
			}
		}
		v = v.Field(i)
	}
	return v
}

// fieldByIndexAlloc walks an index path for writing, allocating nil
// embedded pointers along the way.
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for n, i := range index {
		if n > 0 {
			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					v.Set(reflect.New(v.Type().Elem()))
				}
				v = v.Elem()
			}
		}
		v = v.Field(i)
	}
	return v
}
