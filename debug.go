package jsonbind

import (
	"fmt"
	"io"
	"os"

	"github.com/xiegeo/coloredgoroutine"

	"github.com/karagenc/jsonbind/internal/sync"
)

type (
	Debugger interface {
		Log(main string, v ...any)
		WithContext(context string) Debugger
	}

	noopDebugger struct{}

	printDebugger struct {
		out     io.Writer
		context string
	}
)

func NewNoopDebugger() Debugger { return noopDebugger{} }

func (d noopDebugger) Log(main string, _v ...any) {}

func (d noopDebugger) WithContext(context string) Debugger { return d }

// NewPrintDebugger logs to stderr, keeping stdout free for document output.
func NewPrintDebugger() Debugger {
	return &printDebugger{out: coloredgoroutine.Colors(os.Stderr)}
}

var printMu sync.Mutex

// Log each field, adding colon if there's a subsequent field.
func (d *printDebugger) Log(main string, _v ...any) {
	printMu.Lock()
	defer printMu.Unlock()

	if len(d.context) != 0 {
		fmt.Fprint(d.out, d.context)
		if len(main) != 0 || len(_v) != 0 {
			fmt.Fprint(d.out, ": ")
		}
	}
	fmt.Fprint(d.out, main)
	for _, v := range _v {
		fmt.Fprint(d.out, ": ")
		fmt.Fprint(d.out, v)
	}
	fmt.Fprint(d.out, "\n")
}

func (d *printDebugger) WithContext(context string) Debugger {
	return &printDebugger{
		out:     d.out,
		context: context,
	}
}
