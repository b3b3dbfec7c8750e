// Package cliutil provides shared CLI utilities for ptxlink command-line tools.
package cliutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gpiler/ptxlink"
)

// GetOutput opens the output file or returns stdout.
// The output file is written to a temporary sibling and renamed into place
// on commit, so a failed link never truncates a previous result. A new
// file gets mode 0644; a replaced file keeps its mode.
func GetOutput(outputFile string, stdout io.Writer) (w io.Writer, commit func() error, cleanup func(), err error) {
	if outputFile == "" {
		return stdout, func() error { return nil }, func() {}, nil
	}
	f, err := os.CreateTemp(filepath.Dir(outputFile), "."+filepath.Base(outputFile)+".*")
	if err != nil {
		return nil, nil, nil, err
	}
	committed := false
	commit = func() error {
		mode := os.FileMode(0o644)
		if fi, err := os.Stat(outputFile); err == nil {
			mode = fi.Mode().Perm()
		}
		if err := f.Chmod(mode); err != nil {
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		if err := os.Rename(f.Name(), outputFile); err != nil {
			return err
		}
		committed = true
		return nil
	}
	cleanup = func() {
		if !committed {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}
	return f, commit, cleanup, nil
}

// PrintError writes a formatted error message to w.
func PrintError(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "error: "+format+"\n", args...)
}

// PrintDiagnostics writes one diagnostic per line to w.
func PrintDiagnostics(w io.Writer, diags []ptxlink.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s (%s)\n", d.String(), d.Code)
	}
}

// NewLogger returns a text logger on w for the given verbosity:
// 0 disables logging, 1 is debug, 2 or more is trace.
func NewLogger(w io.Writer, verbose int) *slog.Logger {
	if verbose <= 0 {
		return nil
	}
	level := slog.LevelDebug
	if verbose >= 2 {
		level = ptxlink.LevelTrace
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
