package token

import (
	"fmt"
	"io"
	"strconv"

	"github.com/karagenc/jsonbind/internal/json"
)

// DefaultMaxDepth bounds input nesting unless overridden with SetMaxDepth.
const DefaultMaxDepth = 512

var (
	errReaderDone   = fmt.Errorf("token: document already fully consumed")
	errNameOutside  = fmt.Errorf("token: name outside of an object")
	errDanglingName = fmt.Errorf("token: value expected after name")
)

type scope struct {
	object     bool
	expectName bool
}

// StreamReader is the default Reader. Lexing is delegated to the backend
// selected in internal/json; this layer adds one-token lookahead, scope
// tracking (so member names are distinguishable from string values), a
// nesting limit and the lenient toggle.
type StreamReader struct {
	lx       json.Lexer
	peeked   json.Token
	hasPeek  bool
	scopes   []scope
	maxDepth int
	lenient  bool
}

func NewReader(r io.Reader) *StreamReader {
	lx := json.NewLexer(r)
	lx.UseNumber()
	return &StreamReader{lx: lx, maxDepth: DefaultMaxDepth}
}

func (r *StreamReader) SetLenient(lenient bool) { r.lenient = lenient }

func (r *StreamReader) SetMaxDepth(depth int) {
	if depth > 0 {
		r.maxDepth = depth
	}
}

func (r *StreamReader) Peek() (Kind, error) {
	if !r.hasPeek {
		tok, err := r.lx.Token()
		if err == io.EOF {
			if len(r.scopes) != 0 {
				return EOF, io.ErrUnexpectedEOF
			}
			return EOF, nil
		}
		if err != nil {
			return EOF, err
		}
		r.peeked = tok
		r.hasPeek = true
	}
	return r.classify(r.peeked), nil
}

func (r *StreamReader) classify(tok json.Token) Kind {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return BeginObject
		case '}':
			return EndObject
		case '[':
			return BeginArray
		default:
			return EndArray
		}
	case string:
		if r.inObject() && r.top().expectName {
			return Name
		}
		return String
	case json.Number:
		return Number
	case bool:
		return Bool
	default: // nil
		return Null
	}
}

func (r *StreamReader) top() *scope {
	return &r.scopes[len(r.scopes)-1]
}

func (r *StreamReader) inObject() bool {
	return len(r.scopes) > 0 && r.top().object
}

// next consumes the buffered (or upcoming) token and keeps the scope stack
// in step with the document structure.
func (r *StreamReader) next() (json.Token, error) {
	if !r.hasPeek {
		if _, err := r.Peek(); err != nil {
			return nil, err
		}
		if !r.hasPeek {
			return nil, errReaderDone
		}
	}
	tok := r.peeked
	r.hasPeek = false

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{', '[':
			if len(r.scopes) >= r.maxDepth {
				return nil, &DepthError{Limit: r.maxDepth}
			}
			r.scopes = append(r.scopes, scope{object: t == '{', expectName: t == '{'})
		default:
			r.scopes = r.scopes[:len(r.scopes)-1]
			r.valueDone()
		}
	case string:
		if r.inObject() && r.top().expectName {
			r.top().expectName = false
		} else {
			r.valueDone()
		}
	default:
		r.valueDone()
	}
	return tok, nil
}

func (r *StreamReader) valueDone() {
	if r.inObject() {
		r.top().expectName = true
	}
}

func (r *StreamReader) expect(want Kind) (json.Token, error) {
	got, err := r.Peek()
	if err != nil {
		return nil, err
	}
	if got != want {
		return nil, &UnexpectedError{Want: want, Got: got}
	}
	return r.next()
}

func (r *StreamReader) BeginObject() error {
	_, err := r.expect(BeginObject)
	return err
}

func (r *StreamReader) EndObject() error {
	_, err := r.expect(EndObject)
	return err
}

func (r *StreamReader) BeginArray() error {
	_, err := r.expect(BeginArray)
	return err
}

func (r *StreamReader) EndArray() error {
	_, err := r.expect(EndArray)
	return err
}

func (r *StreamReader) Name() (string, error) {
	tok, err := r.expect(Name)
	if err != nil {
		return "", err
	}
	return tok.(string), nil
}

func (r *StreamReader) String() (string, error) {
	got, err := r.Peek()
	if err != nil {
		return "", err
	}
	switch got {
	case String:
		tok, err := r.next()
		if err != nil {
			return "", err
		}
		return tok.(string), nil
	case Number:
		if !r.lenient {
			break
		}
		tok, err := r.next()
		if err != nil {
			return "", err
		}
		return tok.(json.Number).String(), nil
	case Bool:
		if !r.lenient {
			break
		}
		tok, err := r.next()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(tok.(bool)), nil
	}
	return "", &UnexpectedError{Want: String, Got: got}
}

func (r *StreamReader) Number() (string, error) {
	got, err := r.Peek()
	if err != nil {
		return "", err
	}
	switch got {
	case Number:
		tok, err := r.next()
		if err != nil {
			return "", err
		}
		return tok.(json.Number).String(), nil
	case String:
		// Numbers are routinely transported as strings; the caller's
		// parse decides whether the text is acceptable.
		tok, err := r.next()
		if err != nil {
			return "", err
		}
		return tok.(string), nil
	}
	return "", &UnexpectedError{Want: Number, Got: got}
}

func (r *StreamReader) Bool() (bool, error) {
	got, err := r.Peek()
	if err != nil {
		return false, err
	}
	if got == Bool {
		tok, err := r.next()
		if err != nil {
			return false, err
		}
		return tok.(bool), nil
	}
	if r.lenient && got == String {
		tok, err := r.next()
		if err != nil {
			return false, err
		}
		return strconv.ParseBool(tok.(string))
	}
	return false, &UnexpectedError{Want: Bool, Got: got}
}

func (r *StreamReader) Null() error {
	_, err := r.expect(Null)
	return err
}

func (r *StreamReader) SkipValue() error {
	depth := 0
	for {
		got, err := r.Peek()
		if err != nil {
			return err
		}
		switch got {
		case BeginObject, BeginArray:
			depth++
		case EndObject, EndArray:
			depth--
		case EOF:
			return io.ErrUnexpectedEOF
		case Name:
			if depth == 0 {
				return errDanglingName
			}
		}
		if _, err = r.next(); err != nil {
			return err
		}
		if depth == 0 {
			return nil
		}
	}
}
