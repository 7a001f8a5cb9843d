package assembly

import (
	"bytes"
	"fmt"
	"strconv"

	"liveedit/pkg/bytecode"
)

type listing struct {
	classes []*bytecode.Class
	output  string // output file name

	text bytes.Buffer
}

// NewListing creates a backend that prints classes in the assembly syntax.
// Reading the listing back with the parser yields the same classes.
func NewListing(classes []*bytecode.Class, output string) Assembly {
	return &listing{classes: classes, output: output}
}

// Generate renders every class. Unnamed labels get names in place.
func (a *listing) Generate() error {
	a.text.Reset()
	for i, c := range a.classes {
		if i > 0 {
			a.addText("")
		}
		a.emitClass(c)
	}
	return nil
}

// GetCode returns the listing
func (a *listing) GetCode() string {
	return a.text.String()
}

// Build writes the listing to the output file
func (a *listing) Build() error {
	if a.text.Len() == 0 {
		if err := a.Generate(); err != nil {
			return err
		}
	}
	return writeOutput(a.output, a.text.Bytes())
}

func (a *listing) emitClass(c *bytecode.Class) {
	a.addText(withFlags(".class", c.Access, c.Name))
	if c.Super != "" {
		a.addText(".super " + c.Super)
	}
	for _, itf := range c.Interfaces {
		a.addText(".implements " + itf)
	}
	if c.Source != "" {
		a.addText(".source " + strconv.Quote(c.Source))
	}

	if len(c.Fields) > 0 {
		a.addText("")
	}
	for _, f := range c.Fields {
		line := withFlags(".field", f.Access, f.Name+" "+f.Desc)
		if f.Value != nil {
			line += " = " + bytecode.FormatConstant(f.Value)
		}
		a.addText(line)
	}

	for _, m := range c.Methods {
		a.addText("")
		a.emitMethod(m)
	}
}

func (a *listing) emitMethod(m *bytecode.Method) {
	nameLabels(m)

	a.addText(withFlags(".method", m.Access, m.Name+m.Desc))
	if m.MaxLocals > 0 {
		a.addText(fmt.Sprintf("  .limit locals %d", m.MaxLocals))
	}
	if m.MaxStack > 0 {
		a.addText(fmt.Sprintf("  .limit stack %d", m.MaxStack))
	}
	for _, tc := range m.TryCatchBlocks {
		typ := tc.Type
		if typ == "" {
			typ = "all"
		}
		a.addText(fmt.Sprintf("  .catch %s from %s to %s using %s", typ, tc.Start, tc.End, tc.Handler))
	}

	for _, in := range m.Instructions {
		if in.Kind == bytecode.KindLabel {
			a.addText(in.String())
			continue
		}
		a.addText("  " + in.String())
	}
	a.addText(".end method")
}

// addText adds one line to the listing
func (a *listing) addText(line string) {
	a.text.WriteString(line + "\n")
}

func withFlags(directive string, acc bytecode.Access, rest string) string {
	if flags := acc.String(); flags != "" {
		return directive + " " + flags + " " + rest
	}
	return directive + " " + rest
}

// nameLabels gives every unnamed label of m a name that is not taken yet
func nameLabels(m *bytecode.Method) {
	taken := make(map[string]bool)
	var unnamed []*bytecode.Label
	visit := func(l *bytecode.Label) {
		if l == nil {
			return
		}
		if l.Name == "" {
			unnamed = append(unnamed, l)
			return
		}
		taken[l.Name] = true
	}
	for _, in := range m.Instructions {
		visit(in.Label)
		visit(in.Target)
	}
	for _, tc := range m.TryCatchBlocks {
		visit(tc.Start)
		visit(tc.End)
		visit(tc.Handler)
	}

	n := 0
	for _, l := range unnamed {
		if l.Name != "" {
			continue
		}
		for taken["L"+strconv.Itoa(n)] {
			n++
		}
		l.Name = "L" + strconv.Itoa(n)
		taken[l.Name] = true
	}
}
