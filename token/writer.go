package token

import (
	"fmt"
	"io"

	"github.com/karagenc/jsonbind/internal/json"
)

var (
	errWriterNameOutside = fmt.Errorf("token: name outside of an object")
	errWriterNameTwice   = fmt.Errorf("token: two names in a row")
	errWriterValueAsName = fmt.Errorf("token: value written where a name is required")
	errWriterMismatch    = fmt.Errorf("token: close does not match open structure")
	errWriterDone        = fmt.Errorf("token: document already complete")
)

type writeScope int

const (
	scopeTop writeScope = iota
	scopeEmptyObject
	scopeObjectName  // expecting a member name
	scopeObjectValue // name written, expecting its value
	scopeEmptyArray
	scopeArray
	scopeDone
)

// StreamWriter is the default Writer. It buffers the document and hands it
// to the underlying io.Writer on Flush. Member names and string values are
// escaped through the JSON backend.
type StreamWriter struct {
	out    io.Writer
	buf    []byte
	stack  []writeScope
	indent string
}

func NewWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{out: w, stack: []writeScope{scopeTop}}
}

// SetIndent enables pretty printing. An empty indent restores the compact
// form. Effective only before the first token is written.
func (w *StreamWriter) SetIndent(indent string) { w.indent = indent }

func (w *StreamWriter) Flush() error {
	_, err := w.out.Write(w.buf)
	w.buf = w.buf[:0]
	return err
}

// Bytes returns the document buffered so far.
func (w *StreamWriter) Bytes() []byte { return w.buf }

func (w *StreamWriter) top() writeScope { return w.stack[len(w.stack)-1] }

func (w *StreamWriter) replaceTop(s writeScope) { w.stack[len(w.stack)-1] = s }

func (w *StreamWriter) newline() {
	if w.indent == "" {
		return
	}
	w.buf = append(w.buf, '\n')
	for i := 0; i < len(w.stack)-1; i++ {
		w.buf = append(w.buf, w.indent...)
	}
}

// beforeValue writes the separator a value needs in the current scope and
// advances the scope state.
func (w *StreamWriter) beforeValue() error {
	switch w.top() {
	case scopeTop:
		w.replaceTop(scopeDone)
	case scopeObjectValue:
		w.replaceTop(scopeObjectName)
	case scopeEmptyArray:
		w.replaceTop(scopeArray)
		w.newline()
	case scopeArray:
		w.buf = append(w.buf, ',')
		w.newline()
	case scopeEmptyObject, scopeObjectName:
		return errWriterValueAsName
	default:
		return errWriterDone
	}
	return nil
}

func (w *StreamWriter) open(s writeScope, c byte) error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.stack = append(w.stack, s)
	w.buf = append(w.buf, c)
	return nil
}

func (w *StreamWriter) close(empty, nonempty writeScope, c byte) error {
	top := w.top()
	if top != empty && top != nonempty {
		return errWriterMismatch
	}
	w.stack = w.stack[:len(w.stack)-1]
	if top == nonempty {
		w.newline()
	}
	w.buf = append(w.buf, c)
	return nil
}

func (w *StreamWriter) BeginObject() error { return w.open(scopeEmptyObject, '{') }

func (w *StreamWriter) EndObject() error {
	return w.close(scopeEmptyObject, scopeObjectName, '}')
}

func (w *StreamWriter) BeginArray() error { return w.open(scopeEmptyArray, '[') }

func (w *StreamWriter) EndArray() error {
	return w.close(scopeEmptyArray, scopeArray, ']')
}

func (w *StreamWriter) Name(name string) error {
	switch w.top() {
	case scopeEmptyObject:
		w.replaceTop(scopeObjectValue)
		w.newline()
	case scopeObjectName:
		w.replaceTop(scopeObjectValue)
		w.buf = append(w.buf, ',')
		w.newline()
	case scopeObjectValue:
		return errWriterNameTwice
	default:
		return errWriterNameOutside
	}
	if err := w.quote(name); err != nil {
		return err
	}
	w.buf = append(w.buf, ':')
	if w.indent != "" {
		w.buf = append(w.buf, ' ')
	}
	return nil
}

func (w *StreamWriter) quote(s string) error {
	escaped, err := json.Marshal(s)
	if err != nil {
		return err
	}
	w.buf = append(w.buf, escaped...)
	return nil
}

func (w *StreamWriter) String(s string) error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	return w.quote(s)
}

func (w *StreamWriter) Number(literal string) error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf = append(w.buf, literal...)
	return nil
}

func (w *StreamWriter) Bool(b bool) error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	if b {
		w.buf = append(w.buf, "true"...)
	} else {
		w.buf = append(w.buf, "false"...)
	}
	return nil
}

func (w *StreamWriter) Null() error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf = append(w.buf, "null"...)
	return nil
}
