package ptxlink

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"testing/fstest"

	"github.com/gpiler/ptxlink/internal/testutil"
	"github.com/gpiler/ptxlink/internal/types"
)

func memSource(files map[string]string) Source {
	m := fstest.MapFS{}
	for name, data := range files {
		m[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return FS("mem", m)
}

func TestLinkFixtures(t *testing.T) {
	ctx := context.Background()
	res, err := Link(ctx, WithSource(MustDir(fixtureDir)))
	testutil.NoError(t, err, "Link")
	testutil.False(t, res.Failed(), "default link should not fail: %v", res.Diagnostics)

	want := testutil.ReadLines(t, filepath.Join(fixtureDir, "linked.ptx"))
	testutil.LinesEqual(t, want, res.Lines(), "linked output")
	testutil.Equal(t, "example1.ptx", res.Runtime.Name(), "runtime name")
	testutil.Equal(t, "input.ptx", res.Compiled.Name(), "compiled name")
	testutil.Len(t, res.Rewrites, 1, "rewrites")
}

func TestLinkDefaultSourceOpensPaths(t *testing.T) {
	ctx := context.Background()
	res, err := Link(ctx, WithModules(
		filepath.Join(fixtureDir, "example1.ptx"),
		filepath.Join(fixtureDir, "input.ptx"),
	))
	testutil.NoError(t, err, "Link")
	testutil.Greater(t, len(res.Body), 0, "body")
}

func TestLinkMissingModuleIsNotFound(t *testing.T) {
	ctx := context.Background()
	src := memSource(map[string]string{"example1.ptx": ".visible .entry w()\n"})

	_, err := Link(ctx, WithSource(src))
	testutil.Error(t, err, "missing compiled module")
	testutil.True(t, errors.Is(err, ErrNotFound), "want ErrNotFound, got %v", err)

	var lerr *LoadError
	testutil.True(t, errors.As(err, &lerr), "want *LoadError, got %T", err)
	testutil.Equal(t, ErrKindNotFound, lerr.Kind, "kind")
	testutil.Equal(t, "input.ptx", lerr.Module, "module")
	testutil.False(t, errors.Is(err, ErrDecode), "not a decode error")
}

func TestLinkBinaryModuleIsDecodeError(t *testing.T) {
	ctx := context.Background()
	src := memSource(map[string]string{
		"example1.ptx": ".visible .entry w()\n",
		"input.ptx":    "\x7fELF\x02\x01\x01\x00\x00\x00",
	})

	_, err := Link(ctx, WithSource(src))
	testutil.True(t, errors.Is(err, ErrDecode), "want ErrDecode, got %v", err)
	var lerr *LoadError
	testutil.True(t, errors.As(err, &lerr), "want *LoadError")
	testutil.Equal(t, "mem:input.ptx", lerr.Path, "path")
	testutil.Contains(t, err.Error(), "input.ptx", "message names the module")
}

func TestLinkPermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file modes are not enforced")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "input.ptx")
	testutil.NoError(t, os.WriteFile(path, []byte(".func k()\n"), 0o000), "write")
	testutil.NoError(t, os.WriteFile(filepath.Join(dir, "example1.ptx"), []byte(".version 7.0\n"), 0o644), "write")

	_, err := Link(context.Background(), WithSource(MustDir(dir)))
	testutil.True(t, errors.Is(err, ErrPermission), "want ErrPermission, got %v", err)
}

func TestLinkLenientDegradesToEmptyModule(t *testing.T) {
	ctx := context.Background()
	src := memSource(map[string]string{
		"example1.ptx": ".version 7.0\n.visible .entry w()\n\tcall.uni (r), _Z8mapitfooiPiS_, (p);\n",
	})

	res, err := Link(ctx, WithSource(src), WithLenient())
	testutil.NoError(t, err, "lenient link")
	testutil.Equal(t, 0, res.Compiled.Len(), "compiled module is empty")
	testutil.Len(t, res.Body, 0, "body")
	testutil.SliceEqual(t, []string{".version 7.0"}, res.Preamble, "preamble")
	testutil.Equal(t, "\tcall.uni (r), mapit, (p);", res.Declarations[1], "rewrite still applied")

	testutil.Len(t, res.Diagnostics, 1, "diagnostics")
	d := res.Diagnostics[0]
	testutil.Equal(t, types.DiagModuleUnreadable, d.Code, "code")
	testutil.Equal(t, SeverityWarning, d.Severity, "severity")
	testutil.False(t, res.Failed(), "warnings do not fail by default")
}

func TestLinkStrictFailsOnWarning(t *testing.T) {
	ctx := context.Background()
	src := memSource(map[string]string{
		"example1.ptx": ".version 7.0\n",
		"input.ptx":    ".func k()\n",
	})

	res, err := Link(ctx, WithSource(src), WithStrict())
	testutil.NoError(t, err, "strict link returns a result")
	testutil.True(t, res.Failed(), "missing visible marker fails in strict mode")
	testutil.Equal(t, types.DiagVisibleMarkerMissing, res.Diagnostics[0].Code, "code")
}

func TestLinkDiagnosticIgnore(t *testing.T) {
	ctx := context.Background()
	src := memSource(map[string]string{
		"example1.ptx": ".version 7.0\n",
		"input.ptx":    "",
	})

	dc := StrictDiagnosticConfig()
	dc.Ignore = []string{"*-marker-missing", "module-*"}
	res, err := Link(ctx, WithSource(src), WithDiagnosticConfig(dc))
	testutil.NoError(t, err, "Link")
	testutil.Len(t, res.Diagnostics, 0, "all diagnostics ignored")
	testutil.False(t, res.Failed(), "nothing left to fail on")
	testutil.Greater(t, len(res.Result.Diagnostics), 0, "raw splice diagnostics are kept")
}

func TestLinkEmptyModuleInfo(t *testing.T) {
	ctx := context.Background()
	src := memSource(map[string]string{
		"example1.ptx": "",
		"input.ptx":    "",
	})

	res, err := Link(ctx, WithSource(src))
	testutil.NoError(t, err, "Link")
	testutil.Len(t, res.Lines(), 0, "empty output")
	testutil.Len(t, res.Diagnostics, 2, "one module-empty per module")
	for _, d := range res.Diagnostics {
		testutil.Equal(t, types.DiagModuleEmpty, d.Code, "code")
		testutil.Equal(t, SeverityInfo, d.Severity, "severity")
	}
}

func TestLinkWithConfig(t *testing.T) {
	dir := t.TempDir()
	testutil.NoError(t, os.WriteFile(filepath.Join(dir, "rt.ptx"),
		[]byte(".version 7.0\n.visible .entry w()\n\tcall.uni (r), _Z6squarei, (p);\n"), 0o644), "write")
	testutil.NoError(t, os.WriteFile(filepath.Join(dir, "k.ptx"),
		[]byte("junk\n.func square()\n{\n\tret;\n}\n.func other()\n"), 0o644), "write")

	cfg := DefaultConfig()
	cfg.RuntimePath = "rt.ptx"
	cfg.CompiledPath = "k.ptx"
	cfg.RewriteFrom = "_Z6squarei"
	cfg.RewriteTo = "square"
	cfg.BodyEnd = BodyEndFunction
	cfg.SearchPaths = []string{dir}

	res, err := Link(context.Background(), WithConfig(cfg))
	testutil.NoError(t, err, "Link")
	testutil.SliceEqual(t, []string{".func square()", "{", "\tret;", "}"}, res.Body, "body stops at closing brace")
	testutil.Equal(t, "\tcall.uni (r), square, (p);", res.Declarations[1], "configured rewrite")
}

func TestLinkInvalidRules(t *testing.T) {
	rules := DefaultRules()
	rules.BodyEnd = "sometimes"
	_, err := Link(context.Background(), WithRules(rules))
	testutil.Error(t, err, "invalid rules")
}

func TestLinkContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Link(ctx, WithSource(MustDir(fixtureDir)))
	testutil.True(t, errors.Is(err, context.Canceled), "want context.Canceled, got %v", err)
}

func TestLinkIdempotent(t *testing.T) {
	ctx := context.Background()
	var outputs [2]bytes.Buffer
	for i := range outputs {
		res, err := Link(ctx, WithSource(MustDir(fixtureDir)))
		testutil.NoError(t, err, "Link %d", i)
		_, err = res.WriteTo(&outputs[i])
		testutil.NoError(t, err, "WriteTo %d", i)
	}
	testutil.True(t, bytes.Equal(outputs[0].Bytes(), outputs[1].Bytes()), "outputs differ")
}

func TestLoadErrorMessage(t *testing.T) {
	err := &LoadError{Kind: ErrKindDecode, Module: "input.ptx", Path: "/tmp/input.ptx", Err: errors.New("binary content")}
	testutil.Equal(t, "load input.ptx (/tmp/input.ptx): decode: binary content", err.Error(), "message")

	err = &LoadError{Kind: ErrKindNotFound, Module: "input.ptx"}
	testutil.Equal(t, "load input.ptx: not found", err.Error(), "message without cause")
}

func TestReadModule(t *testing.T) {
	mod, err := ReadModule(MustDir(fixtureDir), "input")
	testutil.NoError(t, err, "ReadModule")
	testutil.Equal(t, "input", mod.Name(), "name as requested")
	testutil.Equal(t, filepath.Join(fixtureDir, "input.ptx"), mod.Path(), "resolved path")
	testutil.True(t, mod.IndexPrefix(".func") >= 0, "has a function marker")

	_, err = ReadModule(MustDir(fixtureDir), "absent")
	testutil.True(t, errors.Is(err, ErrNotFound), "want ErrNotFound")
}

func TestSpliceInMemory(t *testing.T) {
	rt := NewModule("rt", []string{".visible .entry w(", "\tcall.uni (r), _Z8mapitfooiPiS_, (p);"})
	cm := NewModule("cm", []string{".func mapit()"})
	res := Splice(rt, cm, DefaultRules(), nil)
	testutil.SliceEqual(t, []string{
		".func mapit()",
		".visible .entry w(",
		"\tcall.uni (r), mapit, (p);",
	}, res.Lines(), "lines")
}
