package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protodoc/pkg/discovery"
	"github.com/platinummonkey/protodoc/pkg/observability"
)

// DefaultDebounce is the quiet period before an event is delivered
const DefaultDebounce = 500 * time.Millisecond

// ErrNothingToWatch is returned when no configured directory exists
var ErrNothingToWatch = errors.New("no directories to watch")

// Handler processes one coalesced event. Handlers run one at a time on the
// watch loop.
type Handler func(ctx context.Context, event Event)

// EventObserver receives one call per delivered event
type EventObserver interface {
	ObserveWatchEvent(op string)
}

// Config configures a Watcher
type Config struct {
	// Roots are watched recursively; directories created below them are
	// picked up as they appear.
	Roots []string

	// Files are watched through their parent directory.
	Files []string

	// Ignore lists directories that are never watched, typically the
	// output directory.
	Ignore []string

	// Accept filters source paths. Defaults to every .proto file.
	Accept func(path string) bool

	Debounce time.Duration
}

// Watcher turns filesystem notifications for proto sources into debounced
// events
type Watcher struct {
	config   Config
	handler  Handler
	observer EventObserver
	log      *logrus.Logger
}

// Option configures a Watcher
type Option func(*Watcher)

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// WithObserver reports delivered events, e.g. to observability.Metrics
func WithObserver(observer EventObserver) Option {
	return func(w *Watcher) {
		w.observer = observer
	}
}

// New creates a watcher delivering events to handler
func New(config Config, handler Handler, opts ...Option) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Accept == nil {
		config.Accept = discovery.IsProto
	}
	config.Roots = absAll(config.Roots)
	config.Files = absAll(config.Files)
	config.Ignore = absAll(config.Ignore)

	w := &Watcher{
		config:  config,
		handler: handler,
		log:     logrus.New(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	watched := 0
	for _, root := range w.config.Roots {
		n, err := w.addTree(fsw, root, nil)
		if err != nil {
			w.log.WithError(err).WithField("path", root).Warn("Error setting up watch for path")
			continue
		}
		watched += n
		w.log.Infof("Watching proto files in: %s", root)
	}
	for _, file := range w.config.Files {
		dir := filepath.Dir(file)
		if err := fsw.Add(dir); err != nil {
			w.log.WithError(err).WithField("path", dir).Warn("Error setting up watch for file")
			continue
		}
		watched++
	}
	if watched == 0 {
		return ErrNothingToWatch
	}

	q := newQueue(w.config.Debounce)
	tick := w.config.Debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if n := q.len(); n > 0 {
				w.log.Debugf("Dropping %d pending events on shutdown", n)
			}
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleNotification(fsw, q, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("Watcher error")
		case now := <-ticker.C:
			for _, event := range q.ready(now) {
				w.deliver(ctx, event)
			}
		}
	}
}

func (w *Watcher) handleNotification(fsw *fsnotify.Watcher, q *queue, event fsnotify.Event) {
	path := event.Name
	if w.ignored(path) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.underRoot(path) {
				return
			}
			w.log.WithField("path", path).Debug("New directory")
			// files may land in the directory before its watch is added
			if _, err := w.addTree(fsw, path, func(file string) {
				q.add(file, Created, time.Now())
			}); err != nil {
				w.log.WithError(err).WithField("path", path).Warn("Error watching new directory")
			}
			return
		}
	}

	if !w.config.Accept(path) {
		return
	}

	var op Op
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = Deleted
	case event.Has(fsnotify.Create):
		op = Created
	case event.Has(fsnotify.Write):
		op = Modified
	default:
		return
	}
	w.log.WithFields(logrus.Fields{"path": path, "op": op.String()}).Debug("Source changed")
	q.add(path, op, time.Now())
}

func (w *Watcher) deliver(ctx context.Context, event Event) {
	defer observability.RecoverPanic(w.log, "watch handler")
	if w.observer != nil {
		w.observer.ObserveWatchEvent(event.Op.String())
	}
	w.handler(ctx, event)
}

// addTree watches dir and every directory below it, calling found for each
// accepted file already present
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string, found func(string)) (int, error) {
	added := 0
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if w.ignored(path) {
				return filepath.SkipDir
			}
			if err := fsw.Add(path); err != nil {
				return err
			}
			added++
			return nil
		}
		if found != nil && w.config.Accept(path) {
			found(path)
		}
		return nil
	})
	return added, err
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.config.Ignore {
		if discovery.Within(path, dir) {
			return true
		}
	}
	return false
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.config.Roots {
		if discovery.Within(path, root) {
			return true
		}
	}
	return false
}

func absAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}
