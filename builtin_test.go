package jsonbind

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ijson "github.com/karagenc/jsonbind/internal/json"
)

func TestPrimitives(t *testing.T) {
	b := New(nil)

	for _, in := range []any{true, false, 42, int64(-9), uint(7), 3.25} {
		data, err := b.Marshal(in)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%v", in), string(data))
	}

	data, err := b.Marshal("text")
	require.NoError(t, err)
	assert.Equal(t, `"text"`, string(data))

	var s string
	require.NoError(t, b.Unmarshal([]byte(`"hello"`), &s))
	assert.Equal(t, "hello", s)

	var n int
	require.NoError(t, b.Unmarshal([]byte(`-12`), &n))
	assert.Equal(t, -12, n)

	var f float64
	require.NoError(t, b.Unmarshal([]byte(`2.5`), &f))
	assert.Equal(t, 2.5, f)
}

func TestNamedPrimitiveTypes(t *testing.T) {
	type label string
	type count uint16
	b := New(nil)

	data, err := b.Marshal(label("x"))
	require.NoError(t, err)
	assert.Equal(t, `"x"`, string(data))

	var l label
	require.NoError(t, b.Unmarshal(data, &l))
	assert.Equal(t, label("x"), l)

	var c count
	require.NoError(t, b.Unmarshal([]byte(`65535`), &c))
	assert.Equal(t, count(65535), c)
}

func TestIntegerOverflow(t *testing.T) {
	b := New(nil)
	var syntax *SyntaxError

	var i8 int8
	err := b.Unmarshal([]byte(`300`), &i8)
	require.ErrorAs(t, err, &syntax)

	var u8 uint8
	err = b.Unmarshal([]byte(`256`), &u8)
	require.ErrorAs(t, err, &syntax)
	require.NoError(t, b.Unmarshal([]byte(`255`), &u8))
	assert.Equal(t, uint8(255), u8)
}

func TestNonFiniteFloats(t *testing.T) {
	b := New(nil)
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := b.Marshal(f); err == nil {
			t.Fatalf("%v must not serialize", f)
		}
	}
}

func TestNumberLiteral(t *testing.T) {
	b := New(nil)
	lit := "184467440737095516151.5"

	var n ijson.Number
	require.NoError(t, b.Unmarshal([]byte(lit), &n))
	assert.Equal(t, ijson.Number(lit), n)

	data, err := b.Marshal(n)
	require.NoError(t, err)
	assert.Equal(t, lit, string(data), "precision survives the round trip")
}

func TestTime(t *testing.T) {
	b := New(nil)
	in := time.Date(2023, 5, 17, 12, 30, 0, 0, time.UTC)

	data, err := b.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `"2023-05-17T12:30:00Z"`, string(data))

	var out time.Time
	require.NoError(t, b.Unmarshal(data, &out))
	assert.True(t, in.Equal(out))

	err = b.Unmarshal([]byte(`"yesterday"`), &out)
	var syntax *SyntaxError
	require.ErrorAs(t, err, &syntax)
}

// severity is the enum-like shape: a named integer that speaks text.
type severity int

const (
	sevLow severity = iota
	sevHigh
)

func (s severity) MarshalText() ([]byte, error) {
	switch s {
	case sevLow:
		return []byte("low"), nil
	case sevHigh:
		return []byte("high"), nil
	}
	return nil, fmt.Errorf("unknown severity %d", int(s))
}

func (s *severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "low":
		*s = sevLow
	case "high":
		*s = sevHigh
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

func TestTextMarshaledEnum(t *testing.T) {
	b := New(nil)

	data, err := b.Marshal(sevHigh)
	require.NoError(t, err)
	assert.Equal(t, `"high"`, string(data), "text marshaling wins over the numeric kind")

	var s severity
	require.NoError(t, b.Unmarshal([]byte(`"low"`), &s))
	assert.Equal(t, sevLow, s)

	if err := b.Unmarshal([]byte(`"medium"`), &s); err == nil {
		t.Fatal("unknown enum value must be rejected")
	}
}

func TestTextMarshaledEnumAsMapKey(t *testing.T) {
	b := New(nil)
	in := map[severity]int{sevLow: 1, sevHigh: 2}

	data, err := b.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"high":2,"low":1}`, string(data))

	var out map[severity]int
	require.NoError(t, b.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestSlices(t *testing.T) {
	b := New(nil)
	in := []int{1, 2, 3}

	data, err := b.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `[1,2,3]`, string(data))

	var out []int
	require.NoError(t, b.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	var empty []int
	require.NoError(t, b.Unmarshal([]byte(`[]`), &empty))
	require.NotNil(t, empty)
	assert.Len(t, empty, 0)
}

func TestArrays(t *testing.T) {
	b := New(nil)

	var arr [2]string
	require.NoError(t, b.Unmarshal([]byte(`["a","b"]`), &arr))
	assert.Equal(t, [2]string{"a", "b"}, arr)

	require.NoError(t, b.Unmarshal([]byte(`["x"]`), &arr))
	assert.Equal(t, [2]string{"x", ""}, arr, "missing elements stay zero")

	err := b.Unmarshal([]byte(`["a","b","c"]`), &arr)
	var syntax *SyntaxError
	require.ErrorAs(t, err, &syntax)
}

func TestPointers(t *testing.T) {
	b := New(nil)
	v := 7
	p := &v

	data, err := b.Marshal(&p)
	require.NoError(t, err)
	assert.Equal(t, `7`, string(data), "pointers are transparent on the wire")

	var out **int
	require.NoError(t, b.Unmarshal(data, &out))
	require.NotNil(t, out)
	require.NotNil(t, *out)
	assert.Equal(t, 7, **out)
}

func TestReadAny(t *testing.T) {
	b := New(nil)
	var v any
	require.NoError(t, b.Unmarshal([]byte(`{"a":1,"b":[true,null],"c":"s"}`), &v))
	assert.Equal(t, map[string]any{
		"a": float64(1),
		"b": []any{true, nil},
		"c": "s",
	}, v)
}

func TestReadAnyUseNumber(t *testing.T) {
	b := New(&Config{UseNumber: true})
	var v any
	require.NoError(t, b.Unmarshal([]byte(`{"n":1}`), &v))
	assert.Equal(t, map[string]any{"n": ijson.Number("1")}, v)
}

func TestReadAnyDuplicateKey(t *testing.T) {
	b := New(nil)
	var v any
	err := b.Unmarshal([]byte(`{"a":1,"a":2}`), &v)
	var syntax *SyntaxError
	require.ErrorAs(t, err, &syntax)
}

func TestReadNonEmptyInterface(t *testing.T) {
	b := New(nil)
	var s fmt.Stringer
	err := b.Unmarshal([]byte(`"x"`), &s)
	var config *ConfigurationError
	require.ErrorAs(t, err, &config)
}

func TestWriteThroughInterface(t *testing.T) {
	b := New(nil)
	data, err := b.Marshal([]any{1, "a", true, nil})
	require.NoError(t, err)
	assert.Equal(t, `[1,"a",true,null]`, string(data))
}
