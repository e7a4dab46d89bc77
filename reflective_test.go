package jsonbind

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shadowBase struct {
	Name  string `json:"name"`
	Extra string `json:"extra"`
}

type shadowed struct {
	shadowBase
	Name string `json:"name"`
}

func TestEmbeddedFieldShadowing(t *testing.T) {
	b := New(nil)
	in := shadowed{shadowBase: shadowBase{Name: "hidden", Extra: "e"}, Name: "outer"}

	data, err := b.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"outer","extra":"e"}`, string(data))

	var out shadowed
	require.NoError(t, b.Unmarshal([]byte(`{"name":"x","extra":"y"}`), &out))
	assert.Equal(t, "x", out.Name)
	assert.Equal(t, "", out.shadowBase.Name, "the shadowed declaration must stay untouched")
	assert.Equal(t, "y", out.Extra)
}

type ptrEmbed struct {
	*shadowBase
	Own string `json:"own"`
}

func TestNilEmbeddedPointer(t *testing.T) {
	b := New(nil)

	data, err := b.Marshal(ptrEmbed{Own: "o"})
	require.NoError(t, err)
	assert.Equal(t, `{"own":"o"}`, string(data))

	var out ptrEmbed
	require.NoError(t, b.Unmarshal([]byte(`{"name":"n","own":"o"}`), &out))
	require.NotNil(t, out.shadowBase)
	assert.Equal(t, "n", out.shadowBase.Name)
}

func TestUnknownKeysSkipped(t *testing.T) {
	b := New(nil)
	var out shadowBase
	require.NoError(t, b.Unmarshal([]byte(`{"zzz":{"deep":[1,null]},"name":"n","later":false}`), &out))
	assert.Equal(t, "n", out.Name)
}

func TestDuplicateObjectKey(t *testing.T) {
	b := New(nil)
	var out shadowBase
	err := b.Unmarshal([]byte(`{"name":"a","name":"b"}`), &out)
	var syntax *SyntaxError
	require.ErrorAs(t, err, &syntax)
}

type altBase struct {
	Name string `json:"name" alt:"nm"`
}

type altShadowed struct {
	altBase
	Name string `json:"name"`
}

// Shadowing an embedded field retires its alternate names along with it;
// the ancestral declaration must not stay reachable through them.
func TestShadowingRetiresAlternateNames(t *testing.T) {
	b := New(nil)

	var out altShadowed
	require.NoError(t, b.Unmarshal([]byte(`{"nm":"x"}`), &out))
	assert.Equal(t, "", out.altBase.Name, "the shadowed field must stay untouched")
	assert.Equal(t, "", out.Name, "an unknown key binds nothing")

	out = altShadowed{}
	require.NoError(t, b.Unmarshal([]byte(`{"name":"y"}`), &out))
	assert.Equal(t, "y", out.Name)
	assert.Equal(t, "", out.altBase.Name)
}

type renamed struct {
	ID string `json:"id" alt:"identifier,uid"`
}

func TestAlternateNames(t *testing.T) {
	b := New(nil)

	var out renamed
	require.NoError(t, b.Unmarshal([]byte(`{"identifier":"x"}`), &out))
	assert.Equal(t, "x", out.ID)

	out = renamed{}
	require.NoError(t, b.Unmarshal([]byte(`{"uid":"y"}`), &out))
	assert.Equal(t, "y", out.ID)

	// Writes always use the canonical name.
	data, err := b.Marshal(renamed{ID: "z"})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"z"}`, string(data))
}

func TestDuplicateFieldViaAlternateName(t *testing.T) {
	b := New(nil)
	var out renamed
	err := b.Unmarshal([]byte(`{"id":"a","uid":"b"}`), &out)
	var syntax *SyntaxError
	require.ErrorAs(t, err, &syntax)
}

func TestSerializeNulls(t *testing.T) {
	in := person{Name: "n"}

	data, err := New(nil).Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"n","age":0}`, string(data))

	data, err = New(&Config{SerializeNulls: true}).Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"n","age":0,"email":null,"hobbies":null}`, string(data))
}

type hiddenFields struct {
	Visible string `json:"visible"`
	Omitted string `json:"-"`
	secret  string
}

func TestSkippedFields(t *testing.T) {
	b := New(nil)
	data, err := b.Marshal(hiddenFields{Visible: "v", Omitted: "never", secret: "never"})
	require.NoError(t, err)
	assert.Equal(t, `{"visible":"v"}`, string(data))
}

func TestFieldNamingPolicy(t *testing.T) {
	type report struct {
		UserName string
		Tagged   string `json:"explicit"`
	}
	b := New(&Config{FieldNaming: SnakeCaseNaming})

	data, err := b.Marshal(report{UserName: "u", Tagged: "t"})
	require.NoError(t, err)
	assert.Equal(t, `{"user_name":"u","explicit":"t"}`, string(data))
}

func TestNamingPolicies(t *testing.T) {
	assert.Equal(t, "UserName", IdentityNaming("UserName"))
	assert.Equal(t, "userName", LowerCamelNaming("UserName"))
	assert.Equal(t, "urlValue", LowerCamelNaming("URLValue"))
	assert.Equal(t, "id", LowerCamelNaming("ID"))
	assert.Equal(t, "Name", UpperCamelNaming("name"))
	assert.Equal(t, "user_name", SnakeCaseNaming("UserName"))
}

type redactPolicy struct{}

func (redactPolicy) SkipField(f reflect.StructField, dir Direction) bool {
	return dir == DirectionSerialize && f.Tag.Get("redact") == "true"
}

func (redactPolicy) SkipType(reflect.Type, Direction) bool { return false }

func TestExclusionPolicyPerDirection(t *testing.T) {
	type account struct {
		User     string `json:"user"`
		Password string `json:"password" redact:"true"`
	}
	b := New(&Config{Exclusion: redactPolicy{}})

	data, err := b.Marshal(account{User: "u", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, `{"user":"u"}`, string(data))

	var out account
	require.NoError(t, b.Unmarshal([]byte(`{"user":"u","password":"p"}`), &out))
	assert.Equal(t, "p", out.Password, "exclusion applies to writes only")
}

type settings struct {
	Mode  string `json:"mode"`
	Level int    `json:"level"`
}

func TestInstanceCreator(t *testing.T) {
	b := New(nil)
	require.NoError(t, b.RegisterCreator(TypeOf[settings](), func() any {
		return &settings{Mode: "default", Level: 3}
	}))

	var out settings
	require.NoError(t, b.Unmarshal([]byte(`{"level":7}`), &out))
	assert.Equal(t, settings{Mode: "default", Level: 7}, out)
}

func TestInstanceCreatorWrongType(t *testing.T) {
	b := New(nil)
	require.NoError(t, b.RegisterCreator(TypeOf[settings](), func() any { return "oops" }))

	var out settings
	err := b.Unmarshal([]byte(`{}`), &out)
	var config *ConfigurationError
	require.ErrorAs(t, err, &config)
}

func TestNestedStructs(t *testing.T) {
	type inner struct {
		X int `json:"x"`
	}
	type outer struct {
		In   inner    `json:"in"`
		Ptrs []*inner `json:"ptrs"`
	}
	b := New(nil)
	in := outer{In: inner{X: 1}, Ptrs: []*inner{{X: 2}, nil}}

	data, err := b.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"in":{"x":1},"ptrs":[{"x":2},null]}`, string(data))

	var out outer
	require.NoError(t, b.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
