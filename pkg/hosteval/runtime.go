// Package hosteval is an in-memory evaluation backend for the interpreter.
//
// A Runtime holds loaded classes with their static state, a small builtin
// subset of java.lang and a jni.Bridge for native method bodies. Every call
// from the host starts a session that owns the interpreter and the stack
// trace context of that call chain; interpreted callees run nested inside the
// same session.
package hosteval

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/interpreter"
	"liveedit/pkg/jni"
)

var (
	ErrClassExists   = errors.New("class already loaded")
	ErrUnknownClass  = errors.New("unknown class")
	ErrUnknownMethod = errors.New("unknown method")
)

// Runtime is the object model the interpreted code runs against. The class
// table is safe for concurrent use; objects and static fields are not.
type Runtime struct {
	mu      sync.Mutex
	classes map[string]*Class

	bridge *jni.Bridge
	out    io.Writer
	logger *log.Logger

	debug    bool
	maxSteps int
	handler  interpreter.EventHandler
	collapse bool

	hashMu sync.Mutex
	hashes map[any]int32
	nextID int32
}

type Option func(*Runtime)

// WithOutput sets where System.out writes (default: os.Stdout)
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) { r.out = w }
}

// WithBridge uses b for native methods instead of a private bridge
func WithBridge(b *jni.Bridge) Option {
	return func(r *Runtime) { r.bridge = b }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// WithDebug turns on per-instruction logging in every session
func WithDebug(debug bool) Option {
	return func(r *Runtime) { r.debug = debug }
}

// WithMaxSteps bounds the instructions one top-level call may run (0 = unlimited)
func WithMaxSteps(n int) Option {
	return func(r *Runtime) { r.maxSteps = n }
}

// WithEventHandler installs hooks in every session
func WithEventHandler(h interpreter.EventHandler) Option {
	return func(r *Runtime) { r.handler = h }
}

// WithTraceCollapse controls whether interpreter frames are folded out of
// guest stack traces (default: true)
func WithTraceCollapse(collapse bool) Option {
	return func(r *Runtime) { r.collapse = collapse }
}

// New creates a runtime with the builtin classes loaded.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		classes:  make(map[string]*Class),
		out:      os.Stdout,
		collapse: true,
		hashes:   make(map[any]int32),
	}
	for _, o := range opts {
		o(r)
	}
	if r.bridge == nil {
		r.bridge = jni.NewBridge()
	}
	if r.logger == nil {
		r.logger = log.Default()
	}

	if err := r.loadBuiltins(); err != nil {
		panic(fmt.Sprintf("hosteval: builtin classes: %v", err))
	}
	return r
}

// Bridge is where hosts register bodies for native methods.
func (r *Runtime) Bridge() *jni.Bridge {
	return r.bridge
}

// Load links and adds classes. Superclasses and interfaces must be loaded
// already or be part of the same call.
func (r *Runtime) Load(defs ...*bytecode.Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := make([]*Class, 0, len(defs))
	for _, def := range defs {
		if _, ok := r.classes[def.Name]; ok {
			r.unload(added)
			return fmt.Errorf("hosteval: %s: %w", def.Name, ErrClassExists)
		}
		if err := def.Link(); err != nil {
			r.unload(added)
			return fmt.Errorf("hosteval: %w", err)
		}
		c := &Class{Def: def}
		r.classes[def.Name] = c
		added = append(added, c)
	}

	for _, c := range added {
		if err := r.resolveSupers(c); err != nil {
			r.unload(added)
			return err
		}
		c.prepare()
		r.logger.Debug("hosteval: loaded", "class", c.Name(), "methods", len(c.Def.Methods))
	}
	return nil
}

func (r *Runtime) unload(cs []*Class) {
	for _, c := range cs {
		delete(r.classes, c.Name())
	}
}

func (r *Runtime) resolveSupers(c *Class) error {
	if c.Def.Super == "" {
		if c.Def.Name != "java/lang/Object" {
			c.Def.Super = "java/lang/Object"
		} else {
			return nil
		}
	}
	super, ok := r.classes[c.Def.Super]
	if !ok {
		return fmt.Errorf("hosteval: %s: superclass %s: %w", c.Name(), c.Def.Super, ErrUnknownClass)
	}
	c.Super = super
	c.Interfaces = c.Interfaces[:0]
	for _, name := range c.Def.Interfaces {
		i, ok := r.classes[name]
		if !ok {
			return fmt.Errorf("hosteval: %s: interface %s: %w", c.Name(), name, ErrUnknownClass)
		}
		c.Interfaces = append(c.Interfaces, i)
	}
	return nil
}

// Redefine replaces the definition of a loaded class, which is what a live
// edit does: existing instances and static values stay, later calls run the
// new method bodies. The superclass may not change.
func (r *Runtime) Redefine(def *bytecode.Class) error {
	if err := def.Link(); err != nil {
		return fmt.Errorf("hosteval: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.classes[def.Name]
	if !ok {
		return fmt.Errorf("hosteval: %s: %w", def.Name, ErrUnknownClass)
	}
	if def.Super == "" {
		def.Super = c.Def.Super
	}
	if def.Super != c.Def.Super {
		return fmt.Errorf("hosteval: %s: cannot change superclass from %s to %s", def.Name, c.Def.Super, def.Super)
	}

	old := c.Def
	c.Def = def
	if err := r.resolveSupers(c); err != nil {
		c.Def = old
		return err
	}
	c.prepare()
	r.logger.Info("hosteval: redefined", "class", def.Name, "methods", len(def.Methods))
	return nil
}

// Class returns a loaded class by internal name.
func (r *Runtime) Class(name string) (*Class, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[name]
	return c, ok
}

// arrayClass returns the synthetic class of an array type, creating it on
// first use.
func (r *Runtime) arrayClass(t bytecode.Type) *Class {
	name := t.Descriptor()
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.classes[name]; ok {
		return c
	}
	c := &Class{
		Def:        &bytecode.Class{Name: name, Super: "java/lang/Object", Access: bytecode.AccPublic | bytecode.AccFinal},
		Super:      r.classes["java/lang/Object"],
		Interfaces: []*Class{r.classes["java/lang/Cloneable"], r.classes["java/io/Serializable"]},
		state:      initialized,
	}
	r.classes[name] = c
	return c
}

// identityHash gives every reference a stable hash code.
func (r *Runtime) identityHash(ref any) int32 {
	r.hashMu.Lock()
	defer r.hashMu.Unlock()
	if h, ok := r.hashes[ref]; ok {
		return h
	}
	r.nextID++
	// spread sequential ids the way a real identity hash looks
	h := r.nextID * 0x61c88647
	r.hashes[ref] = h
	return h
}

// Invoke runs owner.name desc from the host. For instance methods args[0]
// is the receiver. The error is reserved for failures that are not guest
// exceptions: an unknown method or an unsupported instruction.
func (r *Runtime) Invoke(owner, name, desc string, args ...interpreter.Value) (interpreter.Result, error) {
	s := r.newSession()
	return s.invokeTop(owner, name, desc, args)
}
