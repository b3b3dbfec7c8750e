package ptxlink

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gpiler/ptxlink/internal/types"
)

// WithSearchPaths enables discovery of PTX search directories from the
// ptxlink rc files and the PTXLINK_PATH environment variable. Discovered
// directories are searched after any explicit source.
func WithSearchPaths() Option {
	return func(c *linkConfig) { c.searchPaths = true }
}

type pathOp int

const (
	pathReplace pathOp = iota
	pathAppend
	pathPrepend
)

// discoverSearchSources returns a Dir source for each discovered directory.
func discoverSearchSources(logger types.Logger) []Source {
	var sources []Source
	for _, d := range DiscoverSearchPaths(logger.L) {
		if src, err := Dir(d); err == nil {
			sources = append(sources, src)
		}
	}
	return sources
}

// DiscoverSearchPaths returns PTX directories from defaults, rc files and
// PTXLINK_PATH, deduplicated and filtered to directories that exist.
func DiscoverSearchPaths(logger *slog.Logger) []string {
	l := types.Logger{L: logger}
	paths := searchDefaults()
	for _, rc := range rcFiles() {
		paths = applyRCFile(rc, paths, l)
	}
	if v := os.Getenv("PTXLINK_PATH"); v != "" {
		paths = applyEnv(v, paths)
	}
	paths = filterExistingDirs(dedup(paths))
	l.Log(slog.LevelDebug, "search paths discovered", slog.Int("count", len(paths)))
	return paths
}

func searchDefaults() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".ptxlink", "ptx"))
	}
	paths = append(paths,
		"/usr/local/share/ptxlink",
		"/usr/share/ptxlink",
	)
	return paths
}

func rcFiles() []string {
	files := []string{"/etc/ptxlink.conf"}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".ptxlinkrc"))
	}
	return files
}

// parseRCLine parses a single rc file line for ptxdirs directives.
// Supports both "ptxdirs +/path" (prefix on value) and "+ptxdirs /path"
// (prefix on directive).
func parseRCLine(line string) (pathOp, []string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return 0, nil, false
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, nil, false
	}

	directive := fields[0]
	value := fields[1]

	switch directive {
	case "ptxdirs":
		if strings.HasPrefix(value, "+") {
			return pathAppend, splitPaths(value[1:]), true
		}
		if strings.HasPrefix(value, "-") {
			return pathPrepend, splitPaths(value[1:]), true
		}
		return pathReplace, splitPaths(value), true
	case "+ptxdirs":
		return pathAppend, splitPaths(value), true
	case "-ptxdirs":
		return pathPrepend, splitPaths(value), true
	default:
		return 0, nil, false
	}
}

// applyEnv applies a PTXLINK_PATH value: a leading "+" appends, a leading
// "-" prepends, anything else replaces.
func applyEnv(value string, current []string) []string {
	if strings.HasPrefix(value, "+") {
		return applyOp(pathAppend, splitPaths(value[1:]), current)
	}
	if strings.HasPrefix(value, "-") {
		return applyOp(pathPrepend, splitPaths(value[1:]), current)
	}
	return splitPaths(value)
}

func applyOp(op pathOp, dirs, current []string) []string {
	switch op {
	case pathAppend:
		return append(current, dirs...)
	case pathPrepend:
		return append(dirs, current...)
	default:
		return dirs
	}
}

func applyRCFile(path string, current []string, logger types.Logger) []string {
	f, err := os.Open(path)
	if err != nil {
		return current
	}
	defer f.Close() //nolint:errcheck // best-effort rc file read

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		op, dirs, ok := parseRCLine(scanner.Text())
		if !ok {
			continue
		}
		current = applyOp(op, dirs, current)
	}
	if err := scanner.Err(); err != nil {
		logger.Log(slog.LevelDebug, "error reading rc file", slog.String("path", path), slog.Any("error", err))
	}
	return current
}

func splitPaths(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, p := range strings.Split(s, string(os.PathListSeparator)) {
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func dedup(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var result []string
	for _, p := range paths {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			result = append(result, p)
		}
	}
	return result
}

func filterExistingDirs(paths []string) []string {
	var result []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && info.IsDir() {
			result = append(result, p)
		}
	}
	return result
}
