package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"liveedit/internal/logger"
	"liveedit/internal/runner"
	"liveedit/pkg/color"
)

// Main entry point for the liveedit interpreter.
func main() {
	options := runner.Runner{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.BoolVar(&options.Disassemble, "d", false, "Print the listing instead of running")
	flag.BoolVar(&options.Step, "s", false, "Step through the program interactively")
	flag.StringVar(&options.Entry, "e", "", "Entry method, name or Owner.name (default from config, else main)")
	flag.StringVar(&options.ConfigFile, "c", "", "Config file (default: liveedit.toml next to the source)")
	flag.StringVar(&options.OutputFile, "o", "", "Write the classes to a .lei image or a .jasm listing")

	flag.Parse()
	args := flag.Args()

	if options.NoColor {
		color.EnableColor(false)
	}
	if options.Help {
		fmt.Printf("Usage: %s [options] <file.jasm|file.lei> [args...]\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}
	options.SourceFile = args[0]
	options.Args = args[1:]

	cfg, err := options.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	err = logger.Init(options.Verbose, options.NoColor,
		logger.WithLevel(cfg.Log.Level),
		logger.WithPrefix(cfg.Log.Prefix),
		logger.WithCaller(cfg.Log.Caller))
	if err != nil {
		log.Fatal("Invalid log settings", "config", cfg.Path, "error", err)
	}

	if err := options.Run(); err != nil {
		log.Fatal("Run failed", "error", err)
	}
}
