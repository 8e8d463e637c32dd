package nav

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSection is the title of the generated API section
const DefaultSection = "API Reference"

// Item is one mkdocs nav entry. A bare page has only Path, a titled page has
// Title and Path, a section has Title and Children.
type Item struct {
	Title    string
	Path     string
	Children []Item
}

// Page returns a titled page entry
func Page(title, path string) Item {
	return Item{Title: title, Path: path}
}

// Section returns a titled section entry
func Section(title string, children []Item) Item {
	if children == nil {
		children = []Item{}
	}
	return Item{Title: title, Children: children}
}

// IsSection reports whether the item groups other entries
func (it Item) IsSection() bool {
	return it.Children != nil
}

// UnmarshalYAML accepts the three mkdocs nav forms: "page.md",
// {Title: page.md} and {Title: [...]}
func (it *Item) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*it = Item{Path: node.Value}
		return nil
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: nav entry must have exactly one key", node.Line)
		}
		title, value := node.Content[0].Value, node.Content[1]
		switch value.Kind {
		case yaml.ScalarNode:
			*it = Page(title, value.Value)
			return nil
		case yaml.SequenceNode:
			children := make([]Item, 0, len(value.Content))
			if err := value.Decode(&children); err != nil {
				return err
			}
			*it = Section(title, children)
			return nil
		}
		return fmt.Errorf("line %d: unsupported value for nav entry %q", value.Line, title)
	}
	return fmt.Errorf("line %d: unsupported nav entry", node.Line)
}

// MarshalYAML writes the item back in its mkdocs form
func (it Item) MarshalYAML() (interface{}, error) {
	switch {
	case it.Title == "":
		return it.Path, nil
	case it.IsSection():
		return map[string][]Item{it.Title: it.Children}, nil
	default:
		return map[string]string{it.Title: it.Path}, nil
	}
}

type treeNode struct {
	page     string
	children map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{children: make(map[string]*treeNode)}
}

// BuildTree turns slash-separated page paths into a nested nav tree. Each
// directory becomes a section and each page is titled by its file stem.
// Siblings are sorted by title.
func BuildTree(relPaths []string) []Item {
	return BuildTreeUnder("", relPaths)
}

// BuildTreeUnder is BuildTree with the sections for base left out: pages
// below base are laid out relative to it but keep their full path.
func BuildTreeUnder(base string, relPaths []string) []Item {
	base = strings.Trim(filepath.ToSlash(base), "/")
	root := newTreeNode()
	for _, p := range relPaths {
		p = filepath.ToSlash(p)
		layout := p
		if base != "" && base != "." {
			layout = strings.TrimPrefix(p, base+"/")
		}
		parts := strings.Split(layout, "/")

		current := root
		for _, dir := range parts[:len(parts)-1] {
			if dir == "" {
				continue
			}
			child, ok := current.children[dir]
			if !ok {
				child = newTreeNode()
				current.children[dir] = child
			}
			current = child
		}

		file := parts[len(parts)-1]
		stem := strings.TrimSuffix(file, path.Ext(file))
		leaf, ok := current.children[stem]
		if !ok {
			leaf = newTreeNode()
			current.children[stem] = leaf
		}
		leaf.page = p
	}
	return root.items()
}

func (n *treeNode) items() []Item {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]Item, 0, len(names))
	for _, name := range names {
		child := n.children[name]
		// a page and a directory may share a stem
		if child.page != "" {
			items = append(items, Page(name, child.page))
		}
		if len(child.children) > 0 {
			items = append(items, Section(name, child.items()))
		}
	}
	return items
}

func sectionKeys(outputDir string) []string {
	keys := []string{DefaultSection, "API"}
	if outputDir != "" {
		keys = append(keys, outputDir)
	}
	return keys
}

func findSection(nav []Item, keys []string) int {
	for i, item := range nav {
		if item.Title == "" {
			continue
		}
		for _, key := range keys {
			if item.Title == key {
				return i
			}
		}
	}
	return -1
}

// Inject places tree into nav. The first entry titled "API Reference", "API"
// or outputDir is replaced in place; otherwise a new "API Reference" section
// is appended. The returned slice may share storage with nav.
func Inject(nav []Item, tree []Item, outputDir string) []Item {
	if len(nav) == 0 {
		return []Item{Section(DefaultSection, tree)}
	}
	if i := findSection(nav, sectionKeys(outputDir)); i >= 0 {
		nav[i] = Section(nav[i].Title, tree)
		return nav
	}
	return append(nav, Section(DefaultSection, tree))
}

// InjectLocale places tree into the section of nav titled lang, creating the
// language section when it is missing
func InjectLocale(nav []Item, lang string, tree []Item, outputDir string) []Item {
	i := findSection(nav, []string{lang})
	if i < 0 {
		return append(nav, Section(lang, []Item{Section(DefaultSection, tree)}))
	}
	if !nav[i].IsSection() {
		nav[i] = Section(lang, []Item{Section(DefaultSection, tree)})
		return nav
	}
	nav[i] = Section(lang, Inject(nav[i].Children, tree, outputDir))
	return nav
}

// Paths returns every page path referenced anywhere in nav
func Paths(nav []Item) []string {
	var out []string
	var walk func([]Item)
	walk = func(items []Item) {
		for _, item := range items {
			if item.IsSection() {
				walk(item.Children)
				continue
			}
			if item.Path != "" {
				out = append(out, item.Path)
			}
		}
	}
	walk(nav)
	return out
}

// ContainsAll reports whether every page in files is already referenced by nav
func ContainsAll(nav []Item, files []string) bool {
	present := make(map[string]struct{})
	for _, p := range Paths(nav) {
		present[p] = struct{}{}
	}
	for _, f := range files {
		if _, ok := present[filepath.ToSlash(f)]; !ok {
			return false
		}
	}
	return true
}

// RelativeTo rewrites generated page paths relative to docsDir using forward
// slashes. Paths that cannot be made relative are returned unchanged.
func RelativeTo(generated []string, docsDir string) []string {
	rels := make([]string, 0, len(generated))
	for _, f := range generated {
		if filepath.IsAbs(f) && docsDir != "" {
			if rel, err := filepath.Rel(docsDir, f); err == nil {
				f = rel
			}
		}
		rels = append(rels, filepath.ToSlash(f))
	}
	return rels
}

// Update merges generated pages into nav and reports whether nav changed.
// Nothing changes when there are no pages or all of them are already
// referenced. With languages, pages under "<lang>/" are grouped into that
// language's section; pages outside every language prefix go into the
// top-level API section. outputDir is the output directory relative to
// docsDir.
func Update(nav []Item, generated []string, docsDir, outputDir string, languages []string) ([]Item, bool) {
	if len(generated) == 0 {
		return nav, false
	}
	rels := RelativeTo(generated, docsDir)
	if ContainsAll(nav, rels) {
		return nav, false
	}

	if len(languages) == 0 {
		return Inject(nav, BuildTreeUnder(outputDir, rels), outputDir), true
	}

	grouped := make(map[string][]string)
	var rest []string
	for _, rel := range rels {
		matched := false
		for _, lang := range languages {
			prefix := lang + "/"
			if strings.HasPrefix(rel, prefix) {
				grouped[lang] = append(grouped[lang], strings.TrimPrefix(rel, prefix))
				matched = true
				break
			}
		}
		if !matched {
			rest = append(rest, rel)
		}
	}

	for _, lang := range languages {
		files, ok := grouped[lang]
		if !ok {
			continue
		}
		local := localOutputDir(outputDir, lang)
		nav = InjectLocale(nav, lang, BuildTreeUnder(local, files), local)
	}
	if len(rest) > 0 {
		nav = Inject(nav, BuildTreeUnder(outputDir, rest), outputDir)
	}
	return nav, true
}

func localOutputDir(outputDir, lang string) string {
	return strings.TrimPrefix(filepath.ToSlash(outputDir), lang+"/")
}

// Remove drops every page entry pointing at one of pages and reports
// whether anything was removed. Sections emptied by the removal are dropped
// too; sections that were already empty are kept.
func Remove(nav []Item, pages []string) ([]Item, bool) {
	if len(pages) == 0 || len(nav) == 0 {
		return nav, false
	}
	drop := make(map[string]struct{}, len(pages))
	for _, p := range pages {
		drop[filepath.ToSlash(p)] = struct{}{}
	}
	return remove(nav, drop)
}

func remove(items []Item, drop map[string]struct{}) ([]Item, bool) {
	kept := make([]Item, 0, len(items))
	removed := false
	for _, item := range items {
		if item.IsSection() {
			children, changed := remove(item.Children, drop)
			removed = removed || changed
			if changed && len(children) == 0 {
				continue
			}
			kept = append(kept, Section(item.Title, children))
			continue
		}
		if _, ok := drop[item.Path]; ok {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	return kept, removed
}
