package resolver

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultDocExtension is the extension given to generated pages
const DefaultDocExtension = ".md"

// Roots is an ordered list of absolute, cleaned search root directories
type Roots []string

// NewRoots makes every directory absolute and drops exact duplicates while
// keeping the configured order.
func NewRoots(dirs []string) Roots {
	roots := make(Roots, 0, len(dirs))
	seen := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		abs := absPath(dir)
		if seen[abs] {
			continue
		}
		seen[abs] = true
		roots = append(roots, abs)
	}
	return roots
}

// Owning returns the most specific root containing file, or "" when no
// root contains it. When two roots are equally specific the first listed
// wins.
func (r Roots) Owning(file string) string {
	abs := absPath(file)
	best := ""
	for _, root := range r {
		if !contains(root, abs) {
			continue
		}
		if len(root) > len(best) {
			best = root
		}
	}
	return best
}

// RootRelative returns file relative to its owning root with forward
// slashes, or the file's basename when no root contains it.
func (r Roots) RootRelative(file string) string {
	abs := absPath(file)
	root := r.Owning(abs)
	if root == "" {
		return filepath.Base(abs)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return filepath.Base(abs)
	}
	return filepath.ToSlash(rel)
}

// OutputPath maps a source file to its generated page under outputDir: the
// root-relative path with its extension replaced by ext.
func (r Roots) OutputPath(file, outputDir, ext string) string {
	if ext == "" {
		ext = DefaultDocExtension
	}
	rel := r.RootRelative(file)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ext
	return filepath.Join(outputDir, filepath.FromSlash(rel))
}

func contains(root, file string) bool {
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}
