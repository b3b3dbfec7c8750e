package ptxlink

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// DefaultExtensions returns the file extensions tried when looking up a
// module. The empty string matches the name as given.
func DefaultExtensions() []string {
	return []string{"", ".ptx"}
}

// FindResult is a located module.
type FindResult struct {
	// Reader yields the module content. The caller closes it.
	Reader io.ReadCloser
	// Path is the location reported in diagnostics.
	Path string
}

// Source locates PTX modules by name.
type Source interface {
	// Find locates a module by name. It returns an error wrapping
	// fs.ErrNotExist if the source does not hold the module.
	Find(name string) (FindResult, error)

	// ListModules returns the names of all modules this source can find.
	ListModules() ([]string, error)
}

// SourceOption configures a source.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	extensions []string
}

func defaultSourceConfig() sourceConfig {
	return sourceConfig{
		extensions: DefaultExtensions(),
	}
}

// WithExtensions sets the file extensions to try for this source.
func WithExtensions(exts ...string) SourceOption {
	return func(c *sourceConfig) {
		c.extensions = exts
	}
}

func buildSourceConfig(opts []SourceOption) sourceConfig {
	cfg := defaultSourceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// --- OS Source (names are file paths) ---

type osSource struct {
	config sourceConfig
}

// OS creates a Source that treats module names as file paths, absolute
// or relative to the working directory.
func OS(opts ...SourceOption) Source {
	return &osSource{config: buildSourceConfig(opts)}
}

func (s *osSource) Find(name string) (FindResult, error) {
	for _, ext := range s.config.extensions {
		p := name + ext
		f, err := os.Open(p)
		if err == nil {
			return FindResult{Reader: f, Path: p}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return FindResult{Path: p}, err
		}
	}
	return FindResult{}, fs.ErrNotExist
}

// ListModules returns nothing; the working directory is not enumerated.
func (s *osSource) ListModules() ([]string, error) {
	return nil, nil
}

// --- Dir Source (single directory, lazy) ---

type dirSource struct {
	path   string
	config sourceConfig
}

// Dir creates a Source that resolves names relative to a single
// directory. Files are looked up lazily on each Find call.
func Dir(path string, opts ...SourceOption) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}
	return &dirSource{path: path, config: buildSourceConfig(opts)}, nil
}

// MustDir is like Dir but panics on error.
func MustDir(path string, opts ...SourceOption) Source {
	src, err := Dir(path, opts...)
	if err != nil {
		panic(err)
	}
	return src
}

func (s *dirSource) Find(name string) (FindResult, error) {
	if filepath.IsAbs(name) {
		return FindResult{}, fs.ErrNotExist
	}
	for _, ext := range s.config.extensions {
		fullPath := filepath.Join(s.path, name+ext)
		f, err := os.Open(fullPath)
		if err == nil {
			return FindResult{Reader: f, Path: fullPath}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return FindResult{Path: fullPath}, err
		}
	}
	return FindResult{}, fs.ErrNotExist
}

func (s *dirSource) ListModules() ([]string, error) {
	extSet := makeExtensionSet(s.config.extensions)
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if hasValidExtension(entry.Name(), extSet) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// --- DirTree Source (recursive directory, indexed) ---

type treeSource struct {
	root   string
	index  map[string]string // slash-separated relative path -> file path
	names  []string
	config sourceConfig
}

// DirTree creates a Source that recursively indexes a directory tree.
// Modules are named by their slash-separated path relative to root.
// A name with no directory part also matches by base name anywhere in
// the tree; the first match in walk order wins.
func DirTree(root string, opts ...SourceOption) (Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "open", Path: root, Err: os.ErrInvalid}
	}

	cfg := buildSourceConfig(opts)
	extSet := makeExtensionSet(cfg.extensions)
	s := &treeSource{root: root, index: make(map[string]string), config: cfg}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !hasValidExtension(p, extSet) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		s.add(filepath.ToSlash(rel), p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// MustDirTree is like DirTree but panics on error.
func MustDirTree(root string, opts ...SourceOption) Source {
	src, err := DirTree(root, opts...)
	if err != nil {
		panic(err)
	}
	return src
}

func (s *treeSource) add(rel, full string) {
	s.index[rel] = full
	s.names = append(s.names, rel)
	if base := path.Base(rel); base != rel {
		if _, exists := s.index[base]; !exists {
			s.index[base] = full
		}
	}
}

func (s *treeSource) Find(name string) (FindResult, error) {
	full, ok := lookupIndex(s.index, name, s.config.extensions)
	if !ok {
		return FindResult{}, fs.ErrNotExist
	}
	f, err := os.Open(full)
	if err != nil {
		return FindResult{Path: full}, err
	}
	return FindResult{Reader: f, Path: full}, nil
}

func (s *treeSource) ListModules() ([]string, error) {
	return slices.Clone(s.names), nil
}

// --- FS Source (for embed.FS, testing, http filesystems) ---

type fsSource struct {
	name   string
	fsys   fs.FS
	config sourceConfig

	once  sync.Once
	index map[string]string
	names []string
	err   error
}

// FS creates a Source backed by an fs.FS (e.g., embed.FS). Names follow
// the same rules as DirTree. The name is used as a prefix when reporting
// paths. The filesystem is indexed lazily on first use.
func FS(name string, fsys fs.FS, opts ...SourceOption) Source {
	return &fsSource{
		name:   name,
		fsys:   fsys,
		config: buildSourceConfig(opts),
	}
}

func (s *fsSource) ensureIndex() error {
	s.once.Do(func() {
		s.err = s.buildIndex()
	})
	return s.err
}

func (s *fsSource) Find(name string) (FindResult, error) {
	if err := s.ensureIndex(); err != nil {
		return FindResult{}, err
	}

	p, ok := lookupIndex(s.index, name, s.config.extensions)
	if !ok {
		return FindResult{}, fs.ErrNotExist
	}
	f, err := s.fsys.Open(p)
	if err != nil {
		return FindResult{Path: s.name + ":" + p}, err
	}
	return FindResult{Reader: f, Path: s.name + ":" + p}, nil
}

func (s *fsSource) ListModules() ([]string, error) {
	if err := s.ensureIndex(); err != nil {
		return nil, err
	}
	return slices.Clone(s.names), nil
}

func (s *fsSource) buildIndex() error {
	extSet := makeExtensionSet(s.config.extensions)
	s.index = make(map[string]string)

	return fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !hasValidExtension(p, extSet) {
			return nil
		}
		s.index[p] = p
		s.names = append(s.names, p)
		if base := path.Base(p); base != p {
			if _, exists := s.index[base]; !exists {
				s.index[base] = p
			}
		}
		return nil
	})
}

// --- Multi Source (combines multiple sources) ---

type multiSource struct {
	sources []Source
}

// Multi combines multiple sources into one.
// Find tries each source in order, returning the first match.
func Multi(sources ...Source) Source {
	return &multiSource{sources: sources}
}

func (s *multiSource) Find(name string) (FindResult, error) {
	for _, src := range s.sources {
		result, err := src.Find(name)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return result, err
		}
	}
	return FindResult{}, fs.ErrNotExist
}

func (s *multiSource) ListModules() ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	for _, src := range s.sources {
		n, err := src.ListModules()
		if err != nil {
			return nil, err
		}
		for _, name := range n {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// --- Helpers ---

func lookupIndex(index map[string]string, name string, extensions []string) (string, bool) {
	key := path.Clean(filepath.ToSlash(name))
	for _, ext := range extensions {
		if p, ok := index[key+ext]; ok {
			return p, true
		}
	}
	return "", false
}

func makeExtensionSet(extensions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return set
}

func hasValidExtension(p string, extSet map[string]struct{}) bool {
	ext := strings.ToLower(filepath.Ext(p))
	_, ok := extSet[ext]
	return ok
}
