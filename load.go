package ptxlink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/gpiler/ptxlink/internal/ptx"
	"github.com/gpiler/ptxlink/internal/types"
)

// LoadErrorKind classifies why a module could not be loaded.
type LoadErrorKind int

const (
	ErrKindNotFound LoadErrorKind = iota
	ErrKindPermission
	ErrKindDecode
	ErrKindIO
)

func (k LoadErrorKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not found"
	case ErrKindPermission:
		return "permission denied"
	case ErrKindDecode:
		return "decode"
	case ErrKindIO:
		return "i/o"
	default:
		return fmt.Sprintf("LoadErrorKind(%d)", int(k))
	}
}

// Sentinels matched by errors.Is against a *LoadError of the same kind.
var (
	ErrNotFound   = errors.New("module not found")
	ErrPermission = errors.New("module not readable")
	ErrDecode     = errors.New("module not decodable as PTX text")
	ErrIO         = errors.New("module read failed")
)

// LoadError reports a module that could not be loaded.
type LoadError struct {
	Kind   LoadErrorKind
	Module string // requested name
	Path   string // resolved location, empty if never found
	Err    error  // underlying cause
}

func (e *LoadError) Error() string {
	loc := e.Module
	if e.Path != "" && e.Path != e.Module {
		loc = fmt.Sprintf("%s (%s)", e.Module, e.Path)
	}
	if e.Err == nil {
		return fmt.Sprintf("load %s: %s", loc, e.Kind)
	}
	return fmt.Sprintf("load %s: %s: %v", loc, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == ErrKindNotFound
	case ErrPermission:
		return e.Kind == ErrKindPermission
	case ErrDecode:
		return e.Kind == ErrKindDecode
	case ErrIO:
		return e.Kind == ErrKindIO
	}
	return false
}

// loaded is the outcome of loading one module.
type loaded struct {
	module      *ptx.Module
	diagnostics []types.Diagnostic
}

// loadModule finds name in src and reads it. In lenient mode a load
// failure degrades to an empty module and a warning.
func loadModule(ctx context.Context, src Source, name string, cfg *linkConfig) (loaded, error) {
	if err := ctx.Err(); err != nil {
		return loaded{}, err
	}

	logger := types.Logger{L: types.Component(cfg.logger, "loader")}

	mod, lerr := readModule(src, name)
	if lerr != nil {
		if !cfg.lenient {
			logger.Log(slog.LevelDebug, "module load failed",
				slog.String("module", name),
				slog.String("kind", lerr.Kind.String()))
			return loaded{}, lerr
		}
		logger.Log(slog.LevelWarn, "module unreadable, using empty module",
			slog.String("module", name),
			slog.Any("error", lerr))
		return loaded{
			module: ptx.Empty(name, lerr.Path),
			diagnostics: []types.Diagnostic{{
				Severity: types.SeverityWarning,
				Code:     types.DiagModuleUnreadable,
				Message:  lerr.Error(),
				Module:   name,
			}},
		}, nil
	}

	logger.Log(slog.LevelDebug, "module loaded",
		slog.String("module", name),
		slog.String("path", mod.Path()),
		slog.Int("lines", mod.Len()))

	var diags []types.Diagnostic
	if mod.Len() == 0 {
		diags = append(diags, types.Diagnostic{
			Severity: types.SeverityInfo,
			Code:     types.DiagModuleEmpty,
			Message:  "module has no lines",
			Module:   name,
		})
	}
	return loaded{module: mod, diagnostics: diags}, nil
}

func readModule(src Source, name string) (*ptx.Module, *LoadError) {
	found, err := src.Find(name)
	if err != nil {
		return nil, &LoadError{Kind: classifyFindError(err), Module: name, Path: found.Path, Err: err}
	}
	defer found.Reader.Close() //nolint:errcheck // read-only

	mod, err := ptx.Read(found.Reader, name, found.Path)
	if err != nil {
		kind := ErrKindIO
		if errors.Is(err, ptx.ErrBinary) || errors.Is(err, ptx.ErrInvalidUTF8) {
			kind = ErrKindDecode
		}
		return nil, &LoadError{Kind: kind, Module: name, Path: found.Path, Err: err}
	}
	return mod, nil
}

func classifyFindError(err error) LoadErrorKind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrKindNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrKindPermission
	default:
		return ErrKindIO
	}
}
