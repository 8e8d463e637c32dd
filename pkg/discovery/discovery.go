package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// ProtoExtension is the suffix of every discovered source file
const ProtoExtension = ".proto"

// Sources is the result of a discovery pass
type Sources struct {
	// Files holds absolute, sorted, de-duplicated .proto paths
	Files []string
	// Roots holds the absolute directory entries of the configured paths
	Roots []string
}

// Discoverer finds proto sources below the configured paths
type Discoverer struct {
	logger *logrus.Logger
}

// NewDiscoverer creates a discoverer. A nil logger falls back to logrus.New().
func NewDiscoverer(logger *logrus.Logger) *Discoverer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Discoverer{logger: logger}
}

// Discover collects the .proto files named by paths. Directories are walked
// recursively and become search roots; explicit .proto files are added when
// they exist. Anything inside outputDir is skipped, as are directories that
// contain or sit inside outputDir.
func (d *Discoverer) Discover(paths []string, outputDir string) (*Sources, error) {
	out := ""
	if outputDir != "" {
		abs, err := filepath.Abs(outputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve output directory %s: %w", outputDir, err)
		}
		out = abs
	}

	files := make(map[string]struct{})
	sources := &Sources{}
	seenRoots := make(map[string]struct{})

	var explicit []string
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", p, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			d.logger.WithField("path", abs).Warn("Proto path not found")
			continue
		}
		if !info.IsDir() {
			explicit = append(explicit, abs)
			continue
		}

		if out != "" && overlaps(abs, out) {
			d.logger.WithFields(logrus.Fields{
				"path":       abs,
				"output_dir": out,
			}).Warn("Skipping proto directory that overlaps with output directory")
			continue
		}

		if _, ok := seenRoots[abs]; !ok {
			seenRoots[abs] = struct{}{}
			sources.Roots = append(sources.Roots, abs)
		}

		err = filepath.WalkDir(abs, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				d.logger.WithError(err).WithField("path", path).Warn("Error walking proto path")
				if entry != nil && entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if entry.IsDir() {
				if out != "" && within(path, out) {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == ProtoExtension {
				files[path] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", abs, err)
		}
	}

	for _, abs := range explicit {
		if filepath.Ext(abs) != ProtoExtension {
			d.logger.WithField("path", abs).Debug("Ignoring non-proto file")
			continue
		}
		if out != "" && within(abs, out) {
			d.logger.WithField("path", abs).Warn("Skipping proto file in output directory")
			continue
		}
		files[abs] = struct{}{}
	}

	sources.Files = make([]string, 0, len(files))
	for f := range files {
		sources.Files = append(sources.Files, f)
	}
	sort.Strings(sources.Files)

	d.logger.WithFields(logrus.Fields{
		"files": len(sources.Files),
		"roots": len(sources.Roots),
	}).Debug("Discovered proto sources")

	return sources, nil
}

// Discover runs a discovery pass with a default logger
func Discover(paths []string, outputDir string) (*Sources, error) {
	return NewDiscoverer(nil).Discover(paths, outputDir)
}

// Contains reports whether file is one of the discovered sources
func (s *Sources) Contains(file string) bool {
	i := sort.SearchStrings(s.Files, file)
	return i < len(s.Files) && s.Files[i] == file
}

// IsProto reports whether path names a proto source file
func IsProto(path string) bool {
	return filepath.Ext(path) == ProtoExtension
}

// Within reports whether path equals dir or lies below it. Both must be absolute.
func Within(path, dir string) bool {
	return within(path, dir)
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func overlaps(a, b string) bool {
	return within(a, b) || within(b, a)
}
