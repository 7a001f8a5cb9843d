package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"liveedit/internal/config"
)

func TestParse(t *testing.T) {
	c, err := config.Parse(`
[interpreter]
debug = true
max-steps = 1000

[trace]
collapse = false

[log]
level = "info"
caller = true

[run]
entry = "start"
args = ["a", "b"]
`)
	if err != nil {
		t.Fatal(err)
	}

	if !c.Interpreter.Debug || c.Interpreter.MaxSteps != 1000 {
		t.Errorf("unexpected interpreter section %+v", c.Interpreter)
	}
	if c.CollapseTraces() {
		t.Error("expected trace collapsing to be off")
	}
	if c.Log.Level != "info" || !c.Log.Caller || c.Log.Prefix != "LIVEEDIT" {
		t.Errorf("unexpected log section %+v", c.Log)
	}
	if c.Run.Entry != "start" || strings.Join(c.Run.Args, ",") != "a,b" {
		t.Errorf("unexpected run section %+v", c.Run)
	}
}

func TestDefaults(t *testing.T) {
	for name, c := range map[string]*config.Config{
		"default": config.Default(),
		"empty":   mustParse(t, ""),
	} {
		t.Run(name, func(t *testing.T) {
			if !c.CollapseTraces() {
				t.Error("expected trace collapsing by default")
			}
			if c.Log.Level != "warn" {
				t.Errorf("expected level warn, got %q", c.Log.Level)
			}
			if c.Run.Entry != "main" {
				t.Errorf("expected entry main, got %q", c.Run.Entry)
			}
			if c.Interpreter.MaxSteps != 0 {
				t.Errorf("expected no step limit, got %d", c.Interpreter.MaxSteps)
			}
		})
	}
}

func mustParse(t *testing.T, data string) *config.Config {
	t.Helper()
	c, err := config.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"syntax", "[interpreter\n", "parse error"},
		{"unknown key", "[interpreter]\nturbo = true\n", "unknown key"},
		{"wrong type", "[interpreter]\nmax-steps = \"many\"\n", "parse error"},
		{"negative steps", "[interpreter]\nmax-steps = -1\n", config.ErrNegativeSteps.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse(tt.data)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected an error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()

	c, err := config.Find(dir)
	if err != nil {
		t.Fatal(err)
	}
	if c.Path != "" {
		t.Errorf("expected defaults without a file, got %s", c.Path)
	}

	path := filepath.Join(dir, config.FileName)
	if err := os.WriteFile(path, []byte("[run]\nentry = \"go\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = config.Find(dir)
	if err != nil {
		t.Fatal(err)
	}
	if c.Path != path || c.Run.Entry != "go" {
		t.Errorf("unexpected config %+v", c)
	}

	if _, err := config.Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}
