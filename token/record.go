package token

import (
	"fmt"
	"strconv"
)

// ErrNotPrimitive is returned by Capture when the captured stream is not a
// single primitive value.
var ErrNotPrimitive = fmt.Errorf("token: not a single primitive value")

type op struct {
	kind Kind
	str  string
	b    bool
}

// Recorder is a Writer that keeps the token stream in memory so it can be
// inspected and replayed. The map codec uses it to decide between the
// string-keyed object form and the array-of-pairs form.
type Recorder struct {
	ops []op
}

func (r *Recorder) BeginObject() error { r.ops = append(r.ops, op{kind: BeginObject}); return nil }
func (r *Recorder) EndObject() error   { r.ops = append(r.ops, op{kind: EndObject}); return nil }
func (r *Recorder) BeginArray() error  { r.ops = append(r.ops, op{kind: BeginArray}); return nil }
func (r *Recorder) EndArray() error    { r.ops = append(r.ops, op{kind: EndArray}); return nil }

func (r *Recorder) Name(name string) error {
	r.ops = append(r.ops, op{kind: Name, str: name})
	return nil
}

func (r *Recorder) String(s string) error {
	r.ops = append(r.ops, op{kind: String, str: s})
	return nil
}

func (r *Recorder) Number(literal string) error {
	r.ops = append(r.ops, op{kind: Number, str: literal})
	return nil
}

func (r *Recorder) Bool(b bool) error {
	r.ops = append(r.ops, op{kind: Bool, b: b})
	return nil
}

func (r *Recorder) Null() error {
	r.ops = append(r.ops, op{kind: Null})
	return nil
}

// IsPrimitive reports whether exactly one primitive value was recorded.
func (r *Recorder) IsPrimitive() bool {
	if len(r.ops) != 1 {
		return false
	}
	switch r.ops[0].kind {
	case String, Number, Bool, Null:
		return true
	}
	return false
}

// MemberName renders the recorded primitive as an object member name.
func (r *Recorder) MemberName() (string, error) {
	if !r.IsPrimitive() {
		return "", ErrNotPrimitive
	}
	o := r.ops[0]
	switch o.kind {
	case String, Number:
		return o.str, nil
	case Bool:
		return strconv.FormatBool(o.b), nil
	default:
		return "null", nil
	}
}

// Replay writes the recorded stream into w.
func (r *Recorder) Replay(w Writer) error {
	for _, o := range r.ops {
		var err error
		switch o.kind {
		case BeginObject:
			err = w.BeginObject()
		case EndObject:
			err = w.EndObject()
		case BeginArray:
			err = w.BeginArray()
		case EndArray:
			err = w.EndArray()
		case Name:
			err = w.Name(o.str)
		case String:
			err = w.String(o.str)
		case Number:
			err = w.Number(o.str)
		case Bool:
			err = w.Bool(o.b)
		case Null:
			err = w.Null()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Capture is a Writer that accepts exactly one primitive value. Anything
// else fails with ErrNotPrimitive. It backs the simple (string-keyed) map
// form, where a key must collapse to a single member name.
type Capture struct {
	set  bool
	name string
}

func (c *Capture) value(name string) error {
	if c.set {
		return ErrNotPrimitive
	}
	c.set = true
	c.name = name
	return nil
}

func (c *Capture) BeginObject() error { return ErrNotPrimitive }
func (c *Capture) EndObject() error   { return ErrNotPrimitive }
func (c *Capture) BeginArray() error  { return ErrNotPrimitive }
func (c *Capture) EndArray() error    { return ErrNotPrimitive }
func (c *Capture) Name(string) error  { return ErrNotPrimitive }

func (c *Capture) String(s string) error       { return c.value(s) }
func (c *Capture) Number(literal string) error { return c.value(literal) }
func (c *Capture) Bool(b bool) error           { return c.value(strconv.FormatBool(b)) }
func (c *Capture) Null() error                 { return c.value("null") }

// MemberName returns the captured primitive as an object member name.
func (c *Capture) MemberName() (string, error) {
	if !c.set {
		return "", ErrNotPrimitive
	}
	return c.name, nil
}

// nameReader serves an object member name as a single string value so that a
// key adapter can re-read it. Numeric and boolean key adapters parse the
// text themselves.
type nameReader struct {
	name string
	done bool
}

// NewNameReader returns a Reader over a single synthetic string token
// holding name.
func NewNameReader(name string) Reader {
	return &nameReader{name: name}
}

func (r *nameReader) Peek() (Kind, error) {
	if r.done {
		return EOF, nil
	}
	return String, nil
}

func (r *nameReader) String() (string, error) {
	if r.done {
		return "", errReaderDone
	}
	r.done = true
	return r.name, nil
}

func (r *nameReader) Number() (string, error) { return r.String() }

func (r *nameReader) Bool() (bool, error) {
	s, err := r.String()
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(s)
}

func (r *nameReader) unexpected(want Kind) error {
	got := String
	if r.done {
		got = EOF
	}
	return &UnexpectedError{Want: want, Got: got}
}

func (r *nameReader) BeginObject() error { return r.unexpected(BeginObject) }
func (r *nameReader) EndObject() error   { return r.unexpected(EndObject) }
func (r *nameReader) BeginArray() error  { return r.unexpected(BeginArray) }
func (r *nameReader) EndArray() error    { return r.unexpected(EndArray) }
func (r *nameReader) Null() error        { return r.unexpected(Null) }

func (r *nameReader) Name() (string, error) { return "", errNameOutside }

func (r *nameReader) SkipValue() error {
	_, err := r.String()
	return err
}

func (r *nameReader) SetLenient(bool) {}
