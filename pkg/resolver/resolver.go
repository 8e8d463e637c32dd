package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protodoc/pkg/protobuf"
)

// Extractor turns file content into a document model
type Extractor interface {
	Extract(content []byte) *protobuf.ExtractedInfos
}

// ExtractorFunc adapts a plain function to the Extractor interface
type ExtractorFunc func(content []byte) *protobuf.ExtractedInfos

// Extract calls f(content)
func (f ExtractorFunc) Extract(content []byte) *protobuf.ExtractedInfos {
	return f(content)
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger sets the logger used for skipped files and failed lookups
func WithLogger(log *logrus.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// WithExtractor replaces the extractor used while indexing
func WithExtractor(e Extractor) Option {
	return func(r *Resolver) {
		if e != nil {
			r.extractor = e
		}
	}
}

// WithReader replaces the function used to read source files
func WithReader(read func(path string) ([]byte, error)) Option {
	return func(r *Resolver) {
		if read != nil {
			r.readFile = read
		}
	}
}

// WithDocExtension sets the extension of generated pages (default ".md")
func WithDocExtension(ext string) Option {
	return func(r *Resolver) {
		if ext != "" {
			r.docExt = ext
		}
	}
}

// Index is a copy of the resolver's lookup tables
type Index struct {
	Imports    map[string]string
	Packages   map[string]string
	References map[string]string
}

// Resolver maps import paths and qualified type names to the files that
// define them, and turns type references into relative links between
// generated pages. Build a fresh Resolver per batch and call Initialize
// before any query; queries on an uninitialized Resolver report not found.
type Resolver struct {
	roots     Roots
	docExt    string
	extractor Extractor
	readFile  func(string) ([]byte, error)
	log       *logrus.Logger

	mu          sync.RWMutex
	initialized bool
	imports     map[string]string
	packages    map[string]string
	references  map[string]string
}

// New creates a resolver over the given search roots
func New(roots []string, opts ...Option) *Resolver {
	r := &Resolver{
		roots:      NewRoots(roots),
		docExt:     DefaultDocExtension,
		extractor:  ExtractorFunc(func(content []byte) *protobuf.ExtractedInfos { return protobuf.Extract(string(content)) }),
		readFile:   os.ReadFile,
		log:        logrus.New(),
		imports:    make(map[string]string),
		packages:   make(map[string]string),
		references: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Roots returns the configured search roots
func (r *Resolver) Roots() Roots {
	return r.roots
}

// Initialize rebuilds every index from the given files, discarding any
// previous state. A file that cannot be read is skipped; the returned error
// joins those per-file failures while the index over the remaining files
// is still usable.
func (r *Resolver) Initialize(paths []string) error {
	imports := make(map[string]string, len(paths))
	packages := make(map[string]string)
	references := make(map[string]string)

	var errs []error
	for _, p := range paths {
		abs := absPath(p)
		imports[r.roots.RootRelative(abs)] = abs

		content, err := r.readFile(abs)
		if err != nil {
			r.log.WithError(err).WithField("file", abs).Warn("Skipping proto file while indexing")
			errs = append(errs, fmt.Errorf("index %s: %w", abs, err))
			continue
		}

		infos := r.extractor.Extract(content)
		if infos == nil || infos.Package == "" {
			continue
		}
		if prev, ok := packages[infos.Package]; ok && prev != abs {
			r.log.WithFields(logrus.Fields{"package": infos.Package, "previous": prev, "file": abs}).
				Debug("Package declared in more than one file, last one wins")
		}
		packages[infos.Package] = abs
		for _, name := range infos.TopLevelNames() {
			references[infos.Package+"."+name] = abs
		}
	}

	r.mu.Lock()
	r.imports = imports
	r.packages = packages
	r.references = references
	r.initialized = true
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"imports":    len(imports),
		"packages":   len(packages),
		"references": len(references),
	}).Debug("Import resolver initialized")

	return errors.Join(errs...)
}

// Initialized reports whether Initialize has completed at least once
func (r *Resolver) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Snapshot returns a copy of the current indices
func (r *Resolver) Snapshot() Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Index{
		Imports:    copyMap(r.imports),
		Packages:   copyMap(r.packages),
		References: copyMap(r.references),
	}
}

// ResolveImport finds the file behind an import path. The import index is
// consulted first, then the path relative to the importing file's
// directory, then the path under each search root. Only candidates that
// exist on disk are returned from the last two steps.
func (r *Resolver) ResolveImport(importPath, importingFile string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.initialized {
		r.log.Warn("Import resolver not initialized")
		return "", false
	}

	if abs, ok := r.imports[importPath]; ok {
		return abs, true
	}

	native := filepath.FromSlash(importPath)
	if importingFile != "" {
		candidate := filepath.Join(filepath.Dir(absPath(importingFile)), native)
		if fileExists(candidate) {
			return candidate, true
		}
	}

	for _, root := range r.roots {
		candidate := filepath.Join(root, native)
		if fileExists(candidate) {
			return candidate, true
		}
	}

	r.log.WithField("import", importPath).Debug("Could not resolve import")
	return "", false
}

// ResolveTypeReference finds the file defining a qualified type name such
// as "example.common.v1.Timestamp". An exact match on a top-level
// definition wins; otherwise the longest dotted prefix naming a known
// package is used. Unqualified names never resolve.
func (r *Resolver) ResolveTypeReference(qualified string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.initialized {
		return "", false
	}

	name := strings.TrimPrefix(qualified, ".")
	if !strings.Contains(name, ".") {
		return "", false
	}

	if abs, ok := r.references[name]; ok {
		return abs, true
	}

	parts := strings.Split(name, ".")
	for i := len(parts) - 1; i >= 1; i-- {
		if abs, ok := r.packages[strings.Join(parts[:i], ".")]; ok {
			return abs, true
		}
	}
	return "", false
}

// OutputPath returns the generated page path for a source file
func (r *Resolver) OutputPath(file, outputRoot string) string {
	return r.roots.OutputPath(file, outputRoot, r.docExt)
}

// RelativeLink resolves typeRef and returns the path of its page relative
// to the directory of currentOutputPath, with forward slashes.
func (r *Resolver) RelativeLink(typeRef, currentOutputPath, outputRoot string) (string, bool) {
	if typeRef == "" || !strings.Contains(typeRef, ".") {
		return "", false
	}

	target, ok := r.ResolveTypeReference(typeRef)
	if !ok {
		return "", false
	}

	page := r.OutputPath(target, outputRoot)
	rel, err := filepath.Rel(filepath.Dir(currentOutputPath), page)
	if err != nil {
		r.log.WithError(err).WithField("type", typeRef).Debug("Cannot compute relative link")
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// MarkdownLink renders typeRef as a link to its page, labelled with the
// simple type name, or as inline code when it cannot be resolved.
func (r *Resolver) MarkdownLink(typeRef, currentOutputPath, outputRoot string) string {
	rel, ok := r.RelativeLink(typeRef, currentOutputPath, outputRoot)
	if !ok {
		return "`" + typeRef + "`"
	}
	return fmt.Sprintf("[`%s`](%s)", SimpleName(typeRef), rel)
}

// SimpleName returns the last dotted component of a type name
func SimpleName(typeRef string) string {
	if i := strings.LastIndex(typeRef, "."); i >= 0 {
		return typeRef[i+1:]
	}
	return typeRef
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
