// Package houdini makes interpreted methods disappear from stack traces.
//
// While a method body runs inside the interpreter, the Go call stack holds the
// interpreter loop, the evaluation backend and the stub that dispatched into
// them. A Context records, for every interpreted activation, which logical
// method it stands for, and Rewrite replaces each block of machinery with a
// single element naming that method, as if it had run natively.
package houdini

import (
	"fmt"
	"runtime"
	"strings"
)

// Element is one line of a stack trace.
type Element struct {
	Function string
	File     string
	Line     int
}

func (e Element) String() string {
	if e.File == "" {
		return e.Function + "(Unknown Source)"
	}
	if e.Line <= 0 {
		return fmt.Sprintf("%s(%s)", e.Function, e.File)
	}
	return fmt.Sprintf("%s(%s:%d)", e.Function, e.File, e.Line)
}

// Frame is one registered interpreted activation. Line is updated by the
// interpreter as it passes line markers.
type Frame struct {
	Class  string // internal name
	Method string
	File   string
	Line   int
}

// Element renders the frame the way a native activation would appear.
func (f *Frame) Element() Element {
	return Element{
		Function: strings.ReplaceAll(f.Class, "/", ".") + "." + f.Method,
		File:     f.File,
		Line:     f.Line,
	}
}

// Traceable is implemented by exception objects carrying a stack trace.
type Traceable interface {
	StackTrace() []Element
	SetStackTrace([]Element)
}

// Context is the explicit replacement for a per-thread frame register: one
// Context belongs to one chain of nested interpretations and is not shared
// between goroutines.
type Context struct {
	frames   []*Frame
	stub     string
	prefixes []string
}

// NewContext creates a context. stub is the fully qualified function name of
// the dispatch stub that enters the interpreter; prefixes select the functions
// that belong to the interpreter machinery.
func NewContext(stub string, internalPrefixes ...string) *Context {
	return &Context{stub: stub, prefixes: internalPrefixes}
}

// Push registers f and returns the function that unregisters it. Callers defer
// the returned function so the frame is popped however the activation ends.
func (c *Context) Push(f *Frame) (pop func()) {
	c.frames = append(c.frames, f)
	depth := len(c.frames)
	return func() {
		if len(c.frames) >= depth {
			c.frames[depth-1] = nil
			c.frames = c.frames[:depth-1]
		}
	}
}

// Depth is the number of registered frames
func (c *Context) Depth() int {
	return len(c.frames)
}

// Top returns the innermost registered frame, or nil.
func (c *Context) Top() *Frame {
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

// Frames returns the registered frames, innermost first.
func (c *Context) Frames() []Frame {
	out := make([]Frame, 0, len(c.frames))
	for i := len(c.frames) - 1; i >= 0; i-- {
		out = append(out, *c.frames[i])
	}
	return out
}

func (c *Context) internal(e Element) bool {
	for _, p := range c.prefixes {
		if strings.HasPrefix(e.Function, p) {
			return true
		}
	}
	return e.Function == c.stub
}

// Rewrite returns trace (innermost element first) with one block of machinery
// collapsed per registered frame. Frames are matched innermost first: each one
// takes the first internal element after the previous block and everything up
// to and including the next stub element. A frame without a stub below it ends
// the rewrite, leaving the rest of the trace as it was.
func (c *Context) Rewrite(trace []Element) []Element {
	out := make([]Element, 0, len(trace))
	cursor := 0
	for i := len(c.frames) - 1; i >= 0; i-- {
		start := -1
		for j := cursor; j < len(trace); j++ {
			if c.internal(trace[j]) {
				start = j
				break
			}
		}
		if start < 0 {
			break
		}
		end := -1
		for k := start; k < len(trace); k++ {
			if trace[k].Function == c.stub {
				end = k
				break
			}
		}
		if end < 0 {
			break
		}
		out = append(out, trace[cursor:start]...)
		out = append(out, c.frames[i].Element())
		cursor = end + 1
	}
	return append(out, trace[cursor:]...)
}

// Reconcile rewrites the trace of t in place.
func (c *Context) Reconcile(t Traceable) {
	if t == nil || len(c.frames) == 0 {
		return
	}
	t.SetStackTrace(c.Rewrite(t.StackTrace()))
}

// Capture records the calling goroutine's stack, innermost first, skipping
// skip frames above the caller of Capture.
func Capture(skip int) []Element {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var trace []Element
	for {
		f, more := frames.Next()
		if f.Function != "" {
			trace = append(trace, Element{Function: f.Function, File: f.File, Line: f.Line})
		}
		if !more {
			break
		}
	}
	return trace
}
