package testutil

import (
	"os"
	"testing"
)

// mockTB captures whether a test failure occurred.
type mockTB struct {
	testing.TB // embedded for unimplemented methods
	failed     bool
}

func (m *mockTB) Helper()                           {}
func (m *mockTB) Fatal(args ...any)                 { m.failed = true }
func (m *mockTB) Fatalf(format string, args ...any) { m.failed = true }

// check runs fn against a fresh mockTB and reports whether it failed.
func check(fn func(tb testing.TB)) bool {
	m := &mockTB{}
	fn(m)
	return m.failed
}

func TestAssertions(t *testing.T) {
	var nilPtr *int
	var typedNil error = (*os.PathError)(nil)

	tests := []struct {
		name     string
		fn       func(tb testing.TB)
		wantFail bool
	}{
		{"Equal pass", func(tb testing.TB) { Equal(tb, "a", "a") }, false},
		{"Equal fail", func(tb testing.TB) { Equal(tb, 1, 2) }, true},
		{"SliceEqual pass", func(tb testing.TB) { SliceEqual(tb, []string{".func"}, []string{".func"}) }, false},
		{"SliceEqual empty", func(tb testing.TB) { SliceEqual(tb, []int{}, []int{}) }, false},
		{"SliceEqual length", func(tb testing.TB) { SliceEqual(tb, []int{1, 2}, []int{1, 2, 3}) }, true},
		{"SliceEqual content", func(tb testing.TB) { SliceEqual(tb, []int{1, 2, 3}, []int{1, 9, 3}) }, true},
		{"NoError nil", func(tb testing.TB) { NoError(tb, nil) }, false},
		{"NoError err", func(tb testing.TB) { NoError(tb, os.ErrNotExist) }, true},
		{"Error err", func(tb testing.TB) { Error(tb, os.ErrNotExist) }, false},
		{"Error nil", func(tb testing.TB) { Error(tb, nil) }, true},
		{"Nil untyped", func(tb testing.TB) { Nil(tb, nil) }, false},
		{"Nil pointer", func(tb testing.TB) { Nil(tb, nilPtr) }, false},
		{"Nil typed in interface", func(tb testing.TB) { Nil(tb, typedNil) }, false},
		{"Nil empty slice", func(tb testing.TB) { Nil(tb, []int{}) }, true},
		{"Nil value", func(tb testing.TB) { Nil(tb, 42) }, true},
		{"NotNil value", func(tb testing.TB) { NotNil(tb, 42) }, false},
		{"NotNil nil pointer", func(tb testing.TB) { NotNil(tb, nilPtr) }, true},
		{"NotEmpty pass", func(tb testing.TB) { NotEmpty(tb, []int{1}) }, false},
		{"NotEmpty fail", func(tb testing.TB) { NotEmpty(tb, []int{}) }, true},
		{"Len pass", func(tb testing.TB) { Len(tb, []int{1, 2, 3}, 3) }, false},
		{"Len fail", func(tb testing.TB) { Len(tb, []int{1, 2, 3}, 5) }, true},
		{"True pass", func(tb testing.TB) { True(tb, true) }, false},
		{"True fail", func(tb testing.TB) { True(tb, false) }, true},
		{"False pass", func(tb testing.TB) { False(tb, false) }, false},
		{"False fail", func(tb testing.TB) { False(tb, true) }, true},
		{"Contains pass", func(tb testing.TB) { Contains(tb, "call.uni mapit,", "mapit") }, false},
		{"Contains fail", func(tb testing.TB) { Contains(tb, "call.uni mapit,", "foo") }, true},
		{"Greater int", func(tb testing.TB) { Greater(tb, 5, 3) }, false},
		{"Greater string", func(tb testing.TB) { Greater(tb, "b", "a") }, false},
		{"Greater equal", func(tb testing.TB) { Greater(tb, 3, 3) }, true},
		{"Fail", func(tb testing.TB) { Fail(tb, "always") }, true},
		{"LinesEqual pass", func(tb testing.TB) { LinesEqual(tb, []string{"a", "b"}, []string{"a", "b"}) }, false},
		{"LinesEqual nil vs empty", func(tb testing.TB) { LinesEqual(tb, nil, []string{}) }, false},
		{"LinesEqual fail", func(tb testing.TB) { LinesEqual(tb, []string{"a"}, []string{"b"}) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := check(tt.fn); got != tt.wantFail {
				t.Errorf("failed = %v, want %v", got, tt.wantFail)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a\n", []string{"a"}},
		{"a\r\nb\r\n", []string{"a", "b"}},
		{"a\n\nb", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		got := SplitLines(tt.in)
		SliceEqual(t, tt.want, got, "SplitLines(%q)", tt.in)
	}
}

func TestFormatMsg(t *testing.T) {
	if got := formatMsg(nil); got != "assertion failed" {
		t.Errorf("formatMsg(nil) = %q, want %q", got, "assertion failed")
	}
	if got := formatMsg([]any{"value is %d", 42}); got != "value is 42" {
		t.Errorf("formatMsg with args = %q, want %q", got, "value is 42")
	}
	if got := formatMsg([]any{123}); got != "assertion failed" {
		t.Errorf("formatMsg(non-string) = %q, want %q", got, "assertion failed")
	}
}
