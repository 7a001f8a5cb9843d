// Package runner loads an assembly file or image and runs its entry method.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"liveedit/internal/config"
	"liveedit/internal/debugger"
	"liveedit/pkg/bytecode"
	"liveedit/pkg/color"
	"liveedit/pkg/hosteval"
	"liveedit/pkg/houdini"
	"liveedit/pkg/image"
	"liveedit/pkg/interpreter"
	"liveedit/pkg/parser"
	"liveedit/pkg/parser/codegen/assembly"
)

var (
	ErrNoEntry  = errors.New("no entry method")
	ErrUncaught = errors.New("uncaught exception")
)

const mainDesc = "([Ljava/lang/String;)V"

type Runner struct {
	Help        bool     // Show help message
	Verbose     bool     // Enable verbose output
	NoColor     bool     // Disable colored output
	Step        bool     // Step through the program interactively
	Disassemble bool     // Print the listing instead of running
	ConfigFile  string   // Path to liveedit.toml, searched next to the source when empty
	SourceFile  string   // Path to the .jasm or .lei file
	OutputFile  string   // Write the loaded classes here instead of running
	Entry       string   // Entry method, "name" or "Owner.name"
	Args        []string // Program arguments

	Config *config.Config
	Out    io.Writer // Program output and listings (default: os.Stdout)
	ErrOut io.Writer // Uncaught exceptions (default: os.Stderr)
}

// LoadConfig reads the configuration named by ConfigFile, or liveedit.toml
// from the directory of the source file.
func (opts *Runner) LoadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.Load(opts.ConfigFile)
	} else {
		cfg, err = config.Find(filepath.Dir(opts.SourceFile))
	}
	if err != nil {
		return nil, err
	}
	opts.Config = cfg
	return cfg, nil
}

// Run loads the source file, then writes it, lists it or runs its entry
// method depending on the options set.
func (opts *Runner) Run() error {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	log.Info("Processing file", "file", opts.SourceFile, "config", opts.Config.Path)

	classes, err := opts.load()
	if err != nil {
		return err
	}

	if opts.OutputFile != "" {
		out := assembly.For(classes, opts.OutputFile)
		if err := out.Generate(); err != nil {
			return fmt.Errorf("output generation failed: %w", err)
		}
		if err := out.Build(); err != nil {
			return fmt.Errorf("writing %s failed: %w", opts.OutputFile, err)
		}
		log.Info("Wrote output", "file", opts.OutputFile, "classes", len(classes))
	}

	if opts.Disassemble || opts.Verbose {
		listing := assembly.NewListing(classes, "")
		if err := listing.Generate(); err != nil {
			return fmt.Errorf("disassembly failed: %w", err)
		}
		fmt.Fprintln(opts.Out, color.GreenText("=== Listing ==="))
		fmt.Fprint(opts.Out, listing.GetCode())
	}

	if opts.Disassemble || opts.OutputFile != "" {
		return nil
	}
	return opts.execute(classes)
}

func (opts *Runner) load() ([]*bytecode.Class, error) {
	input, err := os.ReadFile(opts.SourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", opts.SourceFile, err)
	}

	if strings.EqualFold(filepath.Ext(opts.SourceFile), assembly.ImageExt) {
		classes, err := image.Unmarshal(input)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.SourceFile, err)
		}
		return classes, nil
	}

	classes, err := parser.Assemble(filepath.Base(opts.SourceFile), string(input))
	if err != nil {
		fmt.Fprintln(opts.ErrOut, color.BrightRedText("=== Assembly Errors ==="))
		return nil, err
	}
	return classes, nil
}

func (opts *Runner) execute(classes []*bytecode.Class) error {
	cfg := opts.Config
	rtOpts := []hosteval.Option{
		hosteval.WithOutput(opts.Out),
		hosteval.WithLogger(log.Default()),
		hosteval.WithDebug(cfg.Interpreter.Debug),
		hosteval.WithMaxSteps(cfg.Interpreter.MaxSteps),
		hosteval.WithTraceCollapse(cfg.CollapseTraces()),
	}
	if opts.Step {
		d, closeFn := debugger.Open()
		defer closeFn()
		rtOpts = append(rtOpts, hosteval.WithEventHandler(d))
	}

	rt := hosteval.New(rtOpts...)
	if err := rt.Load(classes...); err != nil {
		return err
	}

	entry := opts.Entry
	if entry == "" {
		entry = cfg.Run.Entry
	}
	m, err := findEntry(classes, entry)
	if err != nil {
		return err
	}

	var args []interpreter.Value
	if m.Desc == mainDesc {
		argv := opts.Args
		if len(argv) == 0 {
			argv = cfg.Run.Args
		}
		args = append(args, stringArray(argv))
	}

	log.Debug("Running", "method", m.FullName(), "args", len(opts.Args))
	r, err := rt.Invoke(m.Owner, m.Name, m.Desc, args...)
	if err != nil {
		return err
	}
	return opts.report(r)
}

// findEntry picks the first static method called name that takes either a
// String[] or nothing, preferring the String[] form. name may be qualified
// with its owner.
func findEntry(classes []*bytecode.Class, name string) (*bytecode.Method, error) {
	owner := ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		owner, name = name[:i], name[i+1:]
	}
	var found *bytecode.Method
	for _, c := range classes {
		if owner != "" && c.Name != owner {
			continue
		}
		for _, m := range c.Methods {
			if m.Name != name || !m.IsStatic() {
				continue
			}
			if m.Desc == mainDesc {
				return m, nil
			}
			if found == nil && strings.HasPrefix(m.Desc, "()") {
				found = m
			}
		}
	}
	if found != nil {
		return found, nil
	}
	if owner != "" {
		name = owner + "." + name
	}
	return nil, fmt.Errorf("%w: no static %s taking String[] or nothing", ErrNoEntry, name)
}

func stringArray(argv []string) interpreter.Value {
	t := bytecode.TypeOf("[Ljava/lang/String;")
	a := &hosteval.Array{Type: t, Elems: make([]interpreter.Value, len(argv))}
	for i, s := range argv {
		a.Elems[i] = interpreter.ObjectValue(s, bytecode.ObjectType("java/lang/String"))
	}
	return interpreter.ObjectValue(a, t)
}

// report prints the outcome of the entry method
func (opts *Runner) report(r interpreter.Result) error {
	switch r := r.(type) {
	case *interpreter.ValueReturned:
		if r.Value.Kind != interpreter.KindVoid {
			fmt.Fprintln(opts.Out, color.GrayText("=> ")+r.Value.String())
		}
		return nil

	case *interpreter.ExceptionThrown:
		msg := describe(r.Exception)
		fmt.Fprintf(opts.ErrOut, "%s %s\n", color.BrightRedText("Exception:"), msg)
		if t, ok := r.Exception.Ref().(houdini.Traceable); ok {
			for _, e := range t.StackTrace() {
				fmt.Fprintf(opts.ErrOut, "\tat %s\n", e)
			}
		}
		return fmt.Errorf("%w (%s): %s", ErrUncaught, r.Kind, msg)
	}
	return fmt.Errorf("unexpected result %v", r)
}

func describe(exc interpreter.Value) string {
	if err, ok := exc.Ref().(error); ok {
		return err.Error()
	}
	return exc.String()
}
