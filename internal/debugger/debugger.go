// Package debugger steps through interpreted methods from a terminal prompt.
// The interpreter reports an instruction once it has run, so every stop
// shows the instruction just executed and the frame it left behind.
package debugger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/peterh/liner"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/color"
	"liveedit/pkg/interpreter"
)

const (
	historyFile = ".liveedit_history"
	prompt      = "(step) "
)

const helpText = `Commands:
  s, step          run one more instruction (also an empty line)
  c, continue      run until a breakpoint or an exception
  b, break NAME    stop on entry to methods named NAME or Owner.NAME
  d, delete NAME   remove a breakpoint
  l, locals        show the local variables
  k, stack         show the operand stack
  p, print N       show local variable N
  x, list          show the code around the instruction that just ran
  q, quit          stop the program
  h, help          show this text
`

// Prompter reads one line of input. *liner.State implements it.
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// Debugger is an interpreter.EventHandler that stops after every
// instruction, or only at breakpoints and exceptions after "continue".
type Debugger struct {
	in  Prompter
	out io.Writer

	running  bool
	detached bool
	breaks   map[string]bool
	last     *bytecode.Method
	quit     interpreter.Result
}

// New creates a debugger reading commands from in and writing to out.
func New(in Prompter, out io.Writer) *Debugger {
	return &Debugger{in: in, out: out, breaks: make(map[string]bool)}
}

// Open starts a debugger on the terminal. The returned function restores
// the terminal and saves the command history.
func Open() (*Debugger, func()) {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)

	histPath := historyPath()
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	d := New(ln, os.Stdout)
	fmt.Fprintln(d.out, color.GrayText("Stepping. Type h for help, Ctrl+D to run to completion."))
	return d, func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
		ln.Close()
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}

// Break adds a breakpoint on a method name, with or without its owner. The
// run stops after the first instruction of the method.
func (d *Debugger) Break(name string) {
	d.breaks[name] = true
}

func (d *Debugger) InstructionProcessed(m *bytecode.Method, pc int, f *interpreter.Frame) interpreter.Result {
	if d.quit != nil {
		return d.quit
	}
	entered := m != d.last
	d.last = m
	if d.detached {
		return nil
	}
	if m.Instructions[pc].IsPseudo() {
		return nil
	}
	if d.running && !(entered && d.isBreakpoint(m)) {
		return nil
	}
	d.running = false

	d.show(m, pc)
	return d.repl(m, pc, f)
}

func (d *Debugger) ExceptionThrown(m *bytecode.Method, pc int, f *interpreter.Frame, exc interpreter.Value, kind interpreter.ExceptionKind) interpreter.Result {
	if d.quit != nil {
		return d.quit
	}
	if d.detached {
		return nil
	}
	d.running = false
	fmt.Fprintf(d.out, "%s %s (%s) at %s\n", color.RedText("exception"), exc, kind, location(m, pc))
	return d.repl(m, pc, f)
}

func (d *Debugger) ExceptionCaught(m *bytecode.Method, pc int, _ *interpreter.Frame, _ interpreter.Value, handler int) interpreter.Result {
	if d.quit != nil {
		return d.quit
	}
	if !d.detached {
		fmt.Fprintf(d.out, "%s by handler at %d in %s\n", color.GreenText("caught"), handler, m.FullName())
	}
	return nil
}

func (d *Debugger) isBreakpoint(m *bytecode.Method) bool {
	return d.breaks[m.Name] || d.breaks[m.Owner+"."+m.Name]
}

func location(m *bytecode.Method, pc int) string {
	return fmt.Sprintf("%s @%d", m.FullName(), pc)
}

func (d *Debugger) show(m *bytecode.Method, pc int) {
	fmt.Fprintf(d.out, "%s %s  %s\n", color.GrayText("ran"), color.CyanText(location(m, pc)), color.YellowText(m.Instructions[pc].String()))
}

// repl reads commands until one of them resumes the run
func (d *Debugger) repl(m *bytecode.Method, pc int, f *interpreter.Frame) interpreter.Result {
	for {
		line, err := d.in.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			d.detached = true
			return nil
		}
		if err != nil {
			return d.stop("interrupted")
		}
		if h, ok := d.in.(interface{ AppendHistory(string) }); ok && strings.TrimSpace(line) != "" {
			h.AppendHistory(line)
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "", "s", "step":
			return nil
		case "c", "continue":
			d.running = true
			return nil
		case "b", "break":
			if arg == "" {
				fmt.Fprintln(d.out, "break needs a method name")
				continue
			}
			d.Break(arg)
			fmt.Fprintf(d.out, "breakpoint on %s\n", arg)
		case "d", "delete":
			delete(d.breaks, arg)
		case "l", "locals":
			d.values("locals", f.Locals())
		case "k", "stack":
			d.values("stack", f.Stack())
		case "p", "print":
			d.printLocal(f, arg)
		case "x", "list":
			d.list(m, pc)
		case "q", "quit":
			return d.stop("quit by user")
		case "h", "help", "?":
			fmt.Fprint(d.out, helpText)
		default:
			fmt.Fprintf(d.out, "unknown command %q, type h for help\n", cmd)
		}
	}
}

// stop ends this run and every run after it
func (d *Debugger) stop(reason string) interpreter.Result {
	log.Debug("debugger: stopping", "reason", reason)
	d.quit = interpreter.Abort(reason)
	return d.quit
}

func (d *Debugger) values(title string, vs []interpreter.Value) {
	if len(vs) == 0 {
		fmt.Fprintf(d.out, "%s: empty\n", title)
		return
	}
	fmt.Fprintf(d.out, "%s:\n", title)
	for i, v := range vs {
		fmt.Fprintf(d.out, "  %s %s\n", color.CyanText(strconv.Itoa(i)), v)
	}
}

func (d *Debugger) printLocal(f *interpreter.Frame, arg string) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(d.out, "print needs a local index, got %q\n", arg)
		return
	}
	v, err := f.Local(i)
	if err != nil {
		fmt.Fprintln(d.out, err)
		return
	}
	fmt.Fprintf(d.out, "%d = %s\n", i, v)
}

// list prints a window of instructions around pc, marking pc with '*'
// since it has already run
func (d *Debugger) list(m *bytecode.Method, pc int) {
	lo, hi := max(0, pc-4), min(len(m.Instructions), pc+5)
	for i := lo; i < hi; i++ {
		marker := "  "
		if i == pc {
			marker = "* "
		}
		fmt.Fprintf(d.out, "%s %3d  %s\n", marker, i, m.Instructions[i])
	}
}
