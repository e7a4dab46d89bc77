//go:build stdjson

package json

import (
	"encoding/json"
	"io"
)

type (
	Token  = json.Token
	Delim  = json.Delim
	Number = json.Number
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
