package ptxlink

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/gpiler/ptxlink/internal/types"
)

func TestParseRCLine(t *testing.T) {
	tests := []struct {
		line   string
		wantOp pathOp
		want   []string
		wantOk bool
	}{
		// Replace
		{"ptxdirs /usr/share/ptx", pathReplace, []string{"/usr/share/ptx"}, true},
		{"ptxdirs /a:/b", pathReplace, []string{"/a", "/b"}, true},
		// Append, prefix on value and on directive
		{"ptxdirs +/extra", pathAppend, []string{"/extra"}, true},
		{"+ptxdirs /extra", pathAppend, []string{"/extra"}, true},
		{"ptxdirs +/a:/b", pathAppend, []string{"/a", "/b"}, true},
		// Prepend
		{"ptxdirs -/first", pathPrepend, []string{"/first"}, true},
		{"-ptxdirs /first", pathPrepend, []string{"/first"}, true},
		// Other directives
		{"loglevel debug", 0, nil, false},
		// Comments and blanks
		{"# ptxdirs /foo", 0, nil, false},
		{"", 0, nil, false},
		{"  ", 0, nil, false},
		// No value
		{"ptxdirs", 0, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			op, dirs, ok := parseRCLine(tt.line)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if op != tt.wantOp {
				t.Errorf("op = %v, want %v", op, tt.wantOp)
			}
			if !slices.Equal(dirs, tt.want) {
				t.Errorf("dirs = %v, want %v", dirs, tt.want)
			}
		})
	}
}

func TestApplyOp(t *testing.T) {
	tests := []struct {
		name string
		op   pathOp
		dirs []string
		want []string
	}{
		{"replace", pathReplace, []string{"/new"}, []string{"/new"}},
		{"append", pathAppend, []string{"/extra"}, []string{"/default", "/extra"}},
		{"prepend", pathPrepend, []string{"/first"}, []string{"/first", "/default"}},
		{"append multiple", pathAppend, []string{"/a", "/b"}, []string{"/default", "/a", "/b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyOp(tt.op, tt.dirs, []string{"/default"})
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"replace", "/new/ptx", []string{"/new/ptx"}},
		{"replace multiple", "/a:/b", []string{"/a", "/b"}},
		{"append", "+/extra", []string{"/default/ptx", "/extra"}},
		{"append multiple", "+/a:/b", []string{"/default/ptx", "/a", "/b"}},
		{"prepend", "-/first", []string{"/first", "/default/ptx"}},
		{"prepend multiple", "-/a:/b", []string{"/a", "/b", "/default/ptx"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyEnv(tt.value, []string{"/default/ptx"})
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedup(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"no dups", []string{"/a", "/b", "/c"}, []string{"/a", "/b", "/c"}},
		{"with dups", []string{"/a", "/b", "/a", "/c", "/b"}, []string{"/a", "/b", "/c"}},
		{"all same", []string{"/a", "/a", "/a"}, []string{"/a"}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dedup(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterExistingDirs(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "exists")
	if err := os.Mkdir(existing, 0o755); err != nil {
		t.Fatal(err)
	}

	filePath := filepath.Join(dir, "afile")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := filterExistingDirs([]string{existing, filepath.Join(dir, "missing"), filePath, "/nonexistent"})
	want := []string{existing}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestApplyRCFile(t *testing.T) {
	dir := t.TempDir()
	rc := filepath.Join(dir, "ptxlinkrc")
	if err := os.WriteFile(rc, []byte("# Comment\nptxdirs /base\n+ptxdirs /extra\n-ptxdirs /first\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := applyRCFile(rc, []string{"/original"}, types.Logger{})
	want := []string{"/first", "/base", "/extra"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestApplyRCFileMissing(t *testing.T) {
	current := []string{"/keep"}
	got := applyRCFile("/nonexistent/file", current, types.Logger{})
	if !slices.Equal(got, current) {
		t.Errorf("missing rc file should return current paths unchanged, got %v", got)
	}
}

func TestSplitPaths(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"/a:/b:/c", []string{"/a", "/b", "/c"}},
		{"/single", []string{"/single"}},
		{"", nil},
		{":/a", []string{"/a"}},
		{"/a:", []string{"/a"}},
		{"/a::/b", []string{"/a", "/b"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := splitPaths(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscoverSearchPathsEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	a := filepath.Join(t.TempDir(), "a")
	b := filepath.Join(t.TempDir(), "b")
	for _, d := range []string{a, b} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	t.Setenv("PTXLINK_PATH", a+":"+b+":"+a+":/does/not/exist")
	got := DiscoverSearchPaths(nil)
	want := []string{a, b}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDiscoverSearchPathsHomeRC(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PTXLINK_PATH", "")

	extra := filepath.Join(home, "kernels")
	if err := os.Mkdir(extra, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, ".ptxlinkrc"), []byte("ptxdirs "+extra+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := DiscoverSearchPaths(nil)
	if !slices.Contains(got, extra) {
		t.Errorf("got %v, want it to contain %s", got, extra)
	}
}
