package jsonbind

import (
	"reflect"
	"strings"
	"unicode"
)

// Direction tells an exclusion policy which half of the pipeline is asking.
type Direction int

const (
	DirectionSerialize Direction = iota
	DirectionDeserialize
)

// ExclusionPolicy decides whether a field or a whole type is skipped while
// the reflective binding for a struct is built. A skipped field contributes
// no binding in the given direction; skipped in both, it disappears from
// the wire entirely.
type ExclusionPolicy interface {
	SkipField(field reflect.StructField, dir Direction) bool
	SkipType(t reflect.Type, dir Direction) bool
}

type noExclusion struct{}

func (noExclusion) SkipField(reflect.StructField, Direction) bool { return false }
func (noExclusion) SkipType(reflect.Type, Direction) bool         { return false }

// NamingPolicy maps a Go field identifier to its default serialized name.
// A `json:"..."` rename on the field takes precedence over the policy.
type NamingPolicy func(fieldName string) string

func IdentityNaming(fieldName string) string { return fieldName }

func LowerCamelNaming(fieldName string) string {
	r := []rune(fieldName)
	i := 0
	for ; i < len(r) && unicode.IsUpper(r[i]); i++ {
		// Leading initialisms (ID, URL) are lowered as a block.
		if i+1 < len(r) && unicode.IsLower(r[i+1]) && i > 0 {
			break
		}
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

func UpperCamelNaming(fieldName string) string {
	r := []rune(fieldName)
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}

func SnakeCaseNaming(fieldName string) string {
	var sb strings.Builder
	for i, c := range fieldName {
		if unicode.IsUpper(c) {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(c))
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// InstanceCreator produces the instance the reflective adapter populates
// during a read, in place of plain zero-value allocation. It may return
// either a T or a *T.
type InstanceCreator func() any
