package testutil

import (
	"os"
	"strings"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"
)

// ReadLines loads a fixture file and splits it into lines with
// terminators stripped. A trailing newline does not produce an empty line.
func ReadLines(t testing.TB, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading fixture %s: %v", path, err)
	}
	return SplitLines(string(data))
}

// SplitLines splits text on "\n", dropping "\r" before it and the empty
// element produced by a trailing newline.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// LinesEqual fails the test with a line diff if got differs from want.
// Nil and empty slices compare equal.
func LinesEqual(t testing.TB, want, got []string, msgAndArgs ...any) {
	t.Helper()
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if diff := gocmp.Diff(want, got); diff != "" {
		t.Fatalf("%s (-want +got):\n%s", formatMsg(msgAndArgs), diff)
	}
}
