package jsonbind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name    string   `json:"name"`
	Age     int      `json:"age"`
	Email   *string  `json:"email"`
	Hobbies []string `json:"hobbies"`
}

func TestRoundTrip(t *testing.T) {
	b := New(nil)
	email := "gopher@example.com"
	in := person{
		Name:    "gopher",
		Age:     13,
		Email:   &email,
		Hobbies: []string{"burrowing", "swimming"},
	}

	data, err := b.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"gopher","age":13,"email":"gopher@example.com","hobbies":["burrowing","swimming"]}`, string(data))

	var out person
	require.NoError(t, b.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestNilTopLevel(t *testing.T) {
	b := New(nil)

	data, err := b.Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	data, err = b.Marshal((*person)(nil))
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	p := &person{Name: "x"}
	require.NoError(t, b.Unmarshal([]byte("null"), &p))
	assert.Nil(t, p)
}

func TestUnmarshalTarget(t *testing.T) {
	b := New(nil)

	var p person
	if err := b.Unmarshal([]byte(`{}`), p); err == nil {
		t.Fatal("non-pointer target must be rejected")
	}
	err := b.Unmarshal([]byte(`{}`), (*person)(nil))
	assert.ErrorIs(t, err, errNotAPointer)
}

func TestMarshalForInterface(t *testing.T) {
	b := New(nil)

	data, err := b.MarshalFor(TypeOf[any](), 5)
	require.NoError(t, err)
	assert.Equal(t, "5", string(data))

	data, err = b.MarshalFor(TypeOf[any](), person{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"x","age":0}`, string(data))
}

func TestMarshalForMismatch(t *testing.T) {
	b := New(nil)
	_, err := b.MarshalFor(TypeOf[int](), "text")
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestIndent(t *testing.T) {
	b := New(&Config{Indent: "  "})
	data, err := b.Marshal(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(data))
}

func TestMaxDepth(t *testing.T) {
	b := New(&Config{MaxDepth: 4})
	var v any
	err := b.Unmarshal([]byte(`[[[[[[1]]]]]]`), &v)
	if err == nil {
		t.Fatal("depth limit not enforced")
	}
}

func TestImmutableAfterUse(t *testing.T) {
	b := New(nil)
	_, err := b.Marshal(1)
	require.NoError(t, err)

	var config *ConfigurationError
	err = b.Register(TypeOf[int](), AdapterOf[int](intWire{}))
	require.ErrorAs(t, err, &config)
	err = b.RegisterFactory(FactoryFunc(func(r *Resolver, d Descriptor) (Adapter, error) { return nil, nil }))
	require.ErrorAs(t, err, &config)
	err = b.RegisterNamed("x", AdapterOf[int](intWire{}))
	require.ErrorAs(t, err, &config)
	err = b.RegisterCreator(TypeOf[person](), func() any { return &person{} })
	require.ErrorAs(t, err, &config)
}

func TestRegisterRejectsUnknownShape(t *testing.T) {
	b := New(nil)
	var config *ConfigurationError
	err := b.Register(TypeOf[int](), "not an adapter")
	require.ErrorAs(t, err, &config)
	err = b.RegisterNamed("bad", 42)
	require.ErrorAs(t, err, &config)
}
