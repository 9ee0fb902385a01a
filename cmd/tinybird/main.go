// Command tinybird is a small command line client for the Tinybird API.
//
// Configuration is read from TB_* environment variables, optionally loaded
// from a .env file:
//
//	TB_TOKEN=p.xxx tinybird query "SELECT count() FROM events"
//	tinybird pipes data top_actions limit=10 -o yaml
package main

import (
	"fmt"
	"io"
	"os"
)

// Config holds the streams used by the command.
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultConfig returns a Config using the process streams.
func DefaultConfig() Config {
	return Config{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// run executes the command line args (including the program name).
func run(args []string, cfg Config) error {
	root := newRootCmd(cfg)
	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}
	return root.Execute()
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
