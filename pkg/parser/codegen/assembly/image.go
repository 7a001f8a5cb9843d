package assembly

import (
	"encoding/hex"

	"liveedit/pkg/bytecode"
	"liveedit/pkg/image"
)

type imageBackend struct {
	classes []*bytecode.Class
	output  string

	data []byte
}

// NewImage creates a backend that encodes classes as a binary image.
func NewImage(classes []*bytecode.Class, output string) Assembly {
	return &imageBackend{classes: classes, output: output}
}

func (a *imageBackend) Generate() error {
	data, err := image.Marshal(a.classes...)
	if err != nil {
		return err
	}
	a.data = data
	return nil
}

// GetCode returns a hex dump of the image
func (a *imageBackend) GetCode() string {
	return hex.Dump(a.data)
}

func (a *imageBackend) Build() error {
	if a.data == nil {
		if err := a.Generate(); err != nil {
			return err
		}
	}
	return writeOutput(a.output, a.data)
}
