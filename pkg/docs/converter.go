package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/protodoc/pkg/protobuf"
	"github.com/platinummonkey/protodoc/pkg/resolver"
	"github.com/platinummonkey/protodoc/pkg/storage"
)

// Conversion statuses reported to the Observer
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Observer receives conversion measurements
type Observer interface {
	ObserveFile(status string, duration time.Duration)
	ObserveBatch(generated, failed int, duration time.Duration)
}

// ConverterConfig configures a Converter
type ConverterConfig struct {
	Roots        []string           // search roots deciding page layout
	DocExtension string             // extension of generated pages (default ".md")
	Workers      int                // parallel renders (default: GOMAXPROCS)
	Extractor    resolver.Extractor // shared extraction, e.g. a cache.ExtractMemo
	Observer     Observer
	Logger       *logrus.Logger
}

// Batch is one conversion run
type Batch struct {
	// All is every source file known to the run; the resolver is built over
	// it so links reach files that are not re-rendered. Defaults to Changed.
	All []string

	// Changed lists the files to render. nil renders All.
	Changed []string

	OutputDir string
}

// Result reports the outcome of a batch. Generated and Failed keep the
// order of the rendered files.
type Result struct {
	RunID     string
	Generated []string
	Failed    []*FileError
}

// Converter turns proto files into Markdown pages
type Converter struct {
	roots     resolver.Roots
	rootDirs  []string
	docExt    string
	workers   int
	extractor resolver.Extractor
	observer  Observer
	log       *logrus.Logger
	readFile  func(string) ([]byte, error)
}

// NewConverter creates a new converter
func NewConverter(config ConverterConfig) *Converter {
	c := &Converter{
		roots:     resolver.NewRoots(config.Roots),
		rootDirs:  config.Roots,
		docExt:    config.DocExtension,
		workers:   config.Workers,
		extractor: config.Extractor,
		observer:  config.Observer,
		log:       config.Logger,
		readFile:  os.ReadFile,
	}
	if c.docExt == "" {
		c.docExt = resolver.DefaultDocExtension
	}
	if c.workers < 1 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	if c.extractor == nil {
		c.extractor = resolver.ExtractorFunc(func(content []byte) *protobuf.ExtractedInfos {
			return protobuf.Extract(string(content))
		})
	}
	if c.log == nil {
		c.log = logrus.New()
	}
	return c
}

// OutputPath returns where the page for a source file is written
func (c *Converter) OutputPath(file, outputDir string) string {
	return c.roots.OutputPath(file, outputDir, c.docExt)
}

// Convert renders a batch. The resolver is fully initialized before any
// render starts and is not modified afterwards, so renders run in parallel.
// A failing file is recorded in Result.Failed and does not stop the batch;
// the returned error is reserved for batch-level problems.
func (c *Converter) Convert(ctx context.Context, batch Batch) (*Result, error) {
	if batch.OutputDir == "" {
		return nil, ErrEmptyOutputDir
	}

	all := batch.All
	if len(all) == 0 {
		all = batch.Changed
	}
	targets := batch.Changed
	if targets == nil {
		targets = all
	}

	result := &Result{
		RunID:     uuid.New().String(),
		Generated: make([]string, 0, len(targets)),
		Failed:    make([]*FileError, 0),
	}
	log := c.log.WithField("run_id", result.RunID)

	store, err := storage.NewFileSystemStorage(batch.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open output directory: %w", err)
	}

	start := time.Now()
	log.Debugf("Converting %d of %d proto files into %s", len(targets), len(all), store.Root())

	res := resolver.New(c.rootDirs,
		resolver.WithLogger(c.log),
		resolver.WithExtractor(c.extractor),
		resolver.WithReader(c.readFile),
		resolver.WithDocExtension(c.docExt),
	)
	if err := res.Initialize(all); err != nil {
		log.Warnf("Resolver index is incomplete: %v", err)
	}
	renderer := NewMarkdownRenderer(res)

	pages := make([]string, len(targets))
	failures := make([]*FileError, len(targets))

	eg := new(errgroup.Group)
	eg.SetLimit(c.workers)
	var mu sync.Mutex

	for i, path := range targets {
		i, path := i, path
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			fileStart := time.Now()
			page, err := c.convertFile(renderer, store, path)
			status := StatusSuccess
			if err != nil {
				status = StatusFailed
			}
			c.observeFile(status, time.Since(fileStart))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.WithField("file", path).Errorf("Error converting proto file: %v", err)
				failures[i] = &FileError{Path: path, Err: err}
				return nil
			}
			log.WithField("file", path).Debugf("Generated markdown file: %s", page)
			pages[i] = page
			return nil
		})
	}

	waitErr := eg.Wait()

	for i := range targets {
		switch {
		case failures[i] != nil:
			result.Failed = append(result.Failed, failures[i])
		case pages[i] != "":
			result.Generated = append(result.Generated, pages[i])
		}
	}

	elapsed := time.Since(start)
	if c.observer != nil {
		c.observer.ObserveBatch(len(result.Generated), len(result.Failed), elapsed)
	}
	log.WithFields(logrus.Fields{
		"generated": len(result.Generated),
		"failed":    len(result.Failed),
		"duration":  elapsed.String(),
	}).Info("Conversion finished")

	if waitErr != nil {
		return result, fmt.Errorf("conversion interrupted: %w", waitErr)
	}
	return result, nil
}

// convertFile renders one source file completely in memory before writing
// its page, so a failure never leaves a partial page behind
func (c *Converter) convertFile(renderer *MarkdownRenderer, store storage.PageStore, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	content, err := c.readFile(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read proto file: %w", err)
	}

	infos := c.extractor.Extract(content)
	c.log.WithField("file", abs).Debug(infos.Summary())
	page := c.OutputPath(abs, store.Root())
	markdown := renderer.Render(filepath.Base(abs), infos, page, store.Root())

	if err := store.WritePage(page, []byte(markdown)); err != nil {
		return "", err
	}
	return page, nil
}

func (c *Converter) observeFile(status string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveFile(status, d)
	}
}
