// Package assembly renders assembled classes into an output format: a text
// listing in the assembly syntax or a binary image.
package assembly

import (
	"path/filepath"
	"strings"

	"liveedit/pkg/bytecode"
)

// ImageExt is the file extension of binary images.
const ImageExt = ".lei"

// Assembly interface defines methods for generating and writing an output format.
type Assembly interface {
	Generate() error
	GetCode() string
	Build() error
}

// For picks the backend by the extension of output: images for ImageExt,
// listings otherwise.
func For(classes []*bytecode.Class, output string) Assembly {
	if strings.EqualFold(filepath.Ext(output), ImageExt) {
		return NewImage(classes, output)
	}
	return NewListing(classes, output)
}
