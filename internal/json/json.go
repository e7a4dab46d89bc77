//go:build !stdjson

package json

import (
	stdjson "encoding/json"
	"io"

	"github.com/goccy/go-json"
)

// The token types are aliases of the encoding/json ones in both backends, so
// code switching on them doesn't need to know which backend is active.
type (
	Token  = stdjson.Token
	Delim  = stdjson.Delim
	Number = stdjson.Number
)

// Lexer is the subset of the streaming decoder the token layer relies on.
type Lexer interface {
	Token() (Token, error)
	UseNumber()
}

var (
	Marshal   = json.Marshal
	Unmarshal = json.Unmarshal
)

func NewLexer(r io.Reader) Lexer { return json.NewDecoder(r) }
