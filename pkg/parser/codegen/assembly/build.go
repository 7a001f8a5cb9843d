package assembly

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeOutput replaces output with data through a temporary file in the
// same directory, so a failed write never leaves a truncated file behind.
func writeOutput(output string, data []byte) error {
	if output == "" {
		return fmt.Errorf("no output file")
	}

	tmp, err := os.CreateTemp(filepath.Dir(output), ".liveedit_build_")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), output); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
