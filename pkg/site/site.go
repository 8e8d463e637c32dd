package site

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protodoc/pkg/cache"
	"github.com/platinummonkey/protodoc/pkg/discovery"
	"github.com/platinummonkey/protodoc/pkg/docs"
	"github.com/platinummonkey/protodoc/pkg/nav"
	"github.com/platinummonkey/protodoc/pkg/resolver"
	"github.com/platinummonkey/protodoc/pkg/storage"
	"github.com/platinummonkey/protodoc/pkg/watcher"
)

// Config describes one documentation site
type Config struct {
	ProtoPaths   []string
	OutputDir    string
	DocExtension string
	Workers      int

	// SiteConfig is the mkdocs.yml whose nav is kept up to date. Empty
	// disables nav updates.
	SiteConfig string

	// DocsDir is the base of nav page paths. Defaults to the site config's
	// docs_dir.
	DocsDir string
}

// BuildResult summarizes a build or an event
type BuildResult struct {
	RunID      string
	Sources    int
	Converted  []string
	Generated  []string
	Removed    []string
	Failed     []*docs.FileError
	NavUpdated bool
}

// Site keeps generated pages, the change cache and the nav in step with
// the proto sources. Builds and events are serialized.
type Site struct {
	config     Config
	outputDir  string
	explicit   map[string]struct{}
	discoverer *discovery.Discoverer
	files      *cache.FileCache
	extractor  resolver.Extractor
	observer   docs.Observer
	log        *logrus.Logger

	mu      sync.Mutex
	sources *discovery.Sources
}

// Option configures a Site
type Option func(*Site)

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(s *Site) {
		if log != nil {
			s.log = log
		}
	}
}

// WithFileCache enables change detection; without it every build converts
// every file
func WithFileCache(files *cache.FileCache) Option {
	return func(s *Site) {
		s.files = files
	}
}

// WithExtractor shares an extractor, typically a cache.ExtractMemo, across
// builds
func WithExtractor(extractor resolver.Extractor) Option {
	return func(s *Site) {
		s.extractor = extractor
	}
}

// WithObserver reports conversion measurements
func WithObserver(observer docs.Observer) Option {
	return func(s *Site) {
		s.observer = observer
	}
}

// New creates a site
func New(config Config, opts ...Option) (*Site, error) {
	if config.OutputDir == "" {
		return nil, ErrNoOutputDir
	}
	out, err := filepath.Abs(config.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}

	s := &Site{
		config:    config,
		outputDir: out,
		explicit:  make(map[string]struct{}),
		log:       logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.discoverer = discovery.NewDiscoverer(s.log)

	for _, p := range config.ProtoPaths {
		if discovery.IsProto(p) {
			if abs, err := filepath.Abs(p); err == nil {
				s.explicit[abs] = struct{}{}
			}
		}
	}
	return s, nil
}

// OutputDir returns the absolute output directory
func (s *Site) OutputDir() string {
	return s.outputDir
}

// Discover refreshes and returns the current sources
func (s *Site) Discover() (*discovery.Sources, error) {
	sources, err := s.discoverer.Discover(s.config.ProtoPaths, s.outputDir)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.sources = sources
	s.mu.Unlock()
	return sources, nil
}

// WatchConfig returns the watcher settings covering this site's sources
func (s *Site) WatchConfig() (watcher.Config, error) {
	sources, err := s.Discover()
	if err != nil {
		return watcher.Config{}, err
	}
	files := make([]string, 0, len(s.explicit))
	for f := range s.explicit {
		files = append(files, f)
	}
	return watcher.Config{
		Roots:  sources.Roots,
		Files:  files,
		Ignore: []string{s.outputDir},
		Accept: s.Accepts,
	}, nil
}

// Accepts reports whether path is a source this site converts: a .proto
// file below a root or named explicitly, and outside the output directory
func (s *Site) Accepts(path string) bool {
	if !discovery.IsProto(path) {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if discovery.Within(abs, s.outputDir) {
		return false
	}
	if _, ok := s.explicit[abs]; ok {
		return true
	}

	s.mu.Lock()
	sources := s.sources
	s.mu.Unlock()
	if sources == nil {
		return false
	}
	for _, root := range sources.Roots {
		if discovery.Within(abs, root) {
			return true
		}
	}
	return false
}

func (s *Site) converter(roots []string) *docs.Converter {
	return docs.NewConverter(docs.ConverterConfig{
		Roots:        roots,
		DocExtension: s.config.DocExtension,
		Workers:      s.config.Workers,
		Extractor:    s.extractor,
		Observer:     s.observer,
		Logger:       s.log,
	})
}

// Build converts the sources. Unless force is set, files whose content
// matches the change cache are skipped. Hashes are recorded only for files
// that converted successfully.
func (s *Site) Build(ctx context.Context, force bool) (*BuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.build(ctx, force, nil)
}

// build runs a full build and prunes removed pages from the nav
func (s *Site) build(ctx context.Context, force bool, removed []string) (*BuildResult, error) {
	sources, err := s.discoverer.Discover(s.config.ProtoPaths, s.outputDir)
	if err != nil {
		return nil, err
	}
	s.sources = sources
	if len(sources.Files) == 0 {
		s.log.Warn("No proto files found in the specified paths")
		return nil, ErrNoSources
	}

	result := &BuildResult{Sources: len(sources.Files)}

	changed := sources.Files
	if !force && s.files != nil {
		changed = make([]string, 0, len(sources.Files))
		for _, f := range sources.Files {
			if s.files.HasChanged(f) {
				changed = append(changed, f)
			}
		}
	}
	if len(changed) == 0 {
		s.log.Info("No proto files have changed since last build, skipping conversion")
		return result, s.updateNav(result, removed)
	}

	converted, err := s.convert(ctx, sources, changed, result)
	if err != nil {
		return result, err
	}
	s.log.Infof("Processed %d changed proto files out of %d total", len(converted), len(sources.Files))

	return result, s.updateNav(result, removed)
}

// convert runs one batch, records successful files in the change cache and
// fills result
func (s *Site) convert(ctx context.Context, sources *discovery.Sources, changed []string, result *BuildResult) ([]string, error) {
	batch, convErr := s.converter(sources.Roots).Convert(ctx, docs.Batch{
		All:       sources.Files,
		Changed:   changed,
		OutputDir: s.outputDir,
	})
	if batch == nil {
		return nil, convErr
	}

	failed := make(map[string]struct{}, len(batch.Failed))
	for _, f := range batch.Failed {
		failed[f.Path] = struct{}{}
	}

	converted := make([]string, 0, len(batch.Generated))
	for _, f := range changed {
		if _, ok := failed[f]; ok {
			continue
		}
		if convErr != nil {
			// an interrupted batch does not say which files were written
			continue
		}
		converted = append(converted, f)
	}

	result.RunID = batch.RunID
	result.Converted = converted
	result.Generated = batch.Generated
	result.Failed = batch.Failed

	if s.files != nil {
		for _, f := range converted {
			if err := s.files.Record(f); err != nil {
				s.log.WithError(err).WithField("file", f).Warn("Failed to record file hash")
			}
		}
		if err := s.files.Save(); err != nil {
			s.log.WithError(err).Warn("Failed to save file cache")
		}
	}
	return converted, convErr
}

// HandleEvent applies one watcher event. A created or modified file is
// converted against the full current source set. A deleted file loses its
// page and cache entry, then the whole site is rebuilt so links to it are
// re-rendered.
func (s *Site) HandleEvent(ctx context.Context, event watcher.Event) (*BuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := filepath.Abs(event.Path)
	if err != nil {
		return nil, err
	}
	log := s.log.WithFields(logrus.Fields{"file": path, "op": event.Op.String()})

	if discovery.Within(path, s.outputDir) {
		log.Debug("Ignoring file in output directory")
		return nil, nil
	}

	switch event.Op {
	case watcher.Created, watcher.Modified:
		if event.Op == watcher.Modified && s.files != nil && !s.files.HasChanged(path) {
			log.Debug("File content unchanged, skipping")
			return nil, nil
		}
		sources, err := s.discoverer.Discover(s.config.ProtoPaths, s.outputDir)
		if err != nil {
			return nil, err
		}
		s.sources = sources
		if !sources.Contains(path) {
			log.Debug("File is not part of the configured sources")
			return nil, nil
		}

		log.Info("Processing proto file")
		result := &BuildResult{Sources: len(sources.Files)}
		if _, err := s.convert(ctx, sources, []string{path}, result); err != nil {
			return result, err
		}
		return result, s.updateNav(result, nil)

	case watcher.Deleted:
		result := &BuildResult{}
		page := s.converter(s.rootsLocked()).OutputPath(path, s.outputDir)
		store, err := storage.NewFileSystemStorage(s.outputDir)
		if err != nil {
			return nil, err
		}
		if err := store.RemovePage(page); err != nil {
			log.WithError(err).Warn("Error handling deleted proto file")
		} else {
			log.Infof("Deleted markdown file for removed proto: %s", page)
			result.Removed = []string{page}
		}
		if s.files != nil {
			s.files.Forget(path)
		}

		rebuilt, err := s.build(ctx, true, result.Removed)
		if errors.Is(err, ErrNoSources) {
			// the last source is gone; only the nav needs pruning
			return result, s.updateNav(result, result.Removed)
		}
		if rebuilt != nil {
			rebuilt.Removed = result.Removed
			result = rebuilt
		}
		return result, err
	}
	return nil, fmt.Errorf("unsupported event %s", event.Op)
}

func (s *Site) rootsLocked() []string {
	if s.sources == nil {
		return nil
	}
	return s.sources.Roots
}

// updateNav brings the site config nav in line with the pages now in the
// output directory, dropping removed pages. It runs only when something was
// generated or removed, and is a no-op without a site config or when the
// site config declares no nav, in which case mkdocs derives one itself.
func (s *Site) updateNav(result *BuildResult, removed []string) error {
	if s.config.SiteConfig == "" || (len(result.Generated) == 0 && len(removed) == 0) {
		return nil
	}

	sc, err := nav.LoadSiteConfig(s.config.SiteConfig)
	if err != nil {
		return err
	}
	if !sc.HasNav() {
		s.log.Debug("Site config has no nav, leaving navigation to mkdocs")
		return nil
	}
	items, err := sc.Nav()
	if err != nil {
		return err
	}

	pages, err := s.pages()
	if err != nil {
		return err
	}

	docsDir := s.config.DocsDir
	if docsDir == "" {
		docsDir = sc.DocsDir()
	}
	if abs, err := filepath.Abs(docsDir); err == nil {
		docsDir = abs
	}
	outputRel := s.outputDir
	if rel, err := filepath.Rel(docsDir, s.outputDir); err == nil {
		outputRel = filepath.ToSlash(rel)
	}

	var languages []string
	if sc.I18nActive() {
		languages = sc.I18nLanguages()
	}

	items, pruned := nav.Remove(items, nav.RelativeTo(removed, docsDir))
	items, injected := nav.Update(items, pages, docsDir, outputRel, languages)
	if !pruned && !injected {
		s.log.Info("All API files are already in the navigation, not updating nav")
		return nil
	}

	if err := sc.SetNav(items); err != nil {
		return err
	}
	if err := sc.Save(); err != nil {
		return err
	}
	result.NavUpdated = true
	s.log.Infof("Updated navigation with %d API documentation files", len(pages))
	return nil
}

// pages lists every generated page as an absolute path
func (s *Site) pages() ([]string, error) {
	store, err := storage.NewFileSystemStorage(s.outputDir)
	if err != nil {
		return nil, err
	}
	ext := s.config.DocExtension
	if ext == "" {
		ext = resolver.DefaultDocExtension
	}
	rels, err := store.ListPages(ext)
	if err != nil {
		return nil, err
	}
	pages := make([]string, 0, len(rels))
	for _, rel := range rels {
		pages = append(pages, filepath.Join(s.outputDir, filepath.FromSlash(rel)))
	}
	return pages, nil
}
