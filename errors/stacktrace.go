package errors

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// stackTracer is implemented by errors created with github.com/pkg/errors
// that carry the call stack of their creation point.
type stackTracer interface {
	error
	StackTrace() errors.StackTrace
}

// stackTrace returns the stack trace carried by given error or any error it
// wraps. It returns nil if no stack trace information is available.
func stackTrace(err error) errors.StackTrace {
	for {
		if st, ok := err.(stackTracer); ok {
			return st.StackTrace()
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return nil
		}
	}
}

// trimInternal removes the frames that belong to this package as well as the
// runtime and testing scaffolding. Stack trace should start at the frame
// where the error instance was created.
func trimInternal(st errors.StackTrace) errors.StackTrace {
	for len(st) > 1 && matchesFunc(st[0],
		// Where the errors are created.
		"github.com/iov-one/drip/errors.Wrap",
		"github.com/iov-one/drip/errors.Wrapf",
		"github.com/iov-one/drip/errors.Field",
		"github.com/iov-one/drip/errors.(*Error).New",
		"github.com/iov-one/drip/errors.(*Error).Newf",
		// Runtime frames are added on panics.
		"runtime.",
		// Testing frames show up in coverage runs.
		"testing.",
	) {
		st = st[1:]
	}
	for l := len(st) - 1; l > 0 && matchesFunc(st[l], "runtime.", "testing."); l-- {
		st = st[:l]
	}
	return st
}

func matchesFunc(f errors.Frame, prefixes ...string) bool {
	fn := funcName(f)
	for _, prefix := range prefixes {
		if strings.HasPrefix(fn, prefix) {
			return true
		}
	}
	return false
}

// funcName returns the name of this function, if known.
func funcName(f errors.Frame) string {
	pc := uintptr(f) - 1
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}

func fileLine(f errors.Frame) (string, int) {
	pc := uintptr(f) - 1
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown", 0
	}
	return fn.FileLine(pc)
}

func writeSimpleFrame(s io.Writer, f errors.Frame) {
	file, line := fileLine(f)
	chunks := strings.SplitN(file, "github.com/", 2)
	if len(chunks) == 2 {
		file = chunks[1]
	}
	fmt.Fprintf(s, " [%s:%d]", file, line)
}

// Format works like pkg/errors, with additions.
// %s is just the error message
// %+v is the full stack trace
// %v appends a compressed [filename:line] where the error
//    was created
func (e *wrappedError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		if st := stackTrace(e); st != nil {
			fmt.Fprintf(s, "%+v\n", trimInternal(st))
		}
		fmt.Fprint(s, e.Error())
		return
	}

	fmt.Fprint(s, e.Error())

	if verb == 'v' {
		if st := stackTrace(e); st != nil {
			writeSimpleFrame(s, trimInternal(st)[0])
		}
	}
}
