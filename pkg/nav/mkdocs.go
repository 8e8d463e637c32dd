package nav

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/protodoc/pkg/storage"
)

const (
	navKey          = "nav"
	docsDirKey      = "docs_dir"
	pluginsKey      = "plugins"
	i18nPlugin      = "i18n"
	defaultDocsDir  = "docs"
	siteConfigPerms = 0644
)

// ErrNotMapping is returned when the site config is not a YAML mapping
var ErrNotMapping = errors.New("site config is not a mapping")

// SiteConfig is an mkdocs.yml document. Only the nav is rewritten; every
// other key, comment and tag is written back as loaded.
type SiteConfig struct {
	path string
	doc  yaml.Node
}

// LoadSiteConfig reads an mkdocs.yml file
func LoadSiteConfig(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site config: %w", err)
	}

	cfg := &SiteConfig{path: path}
	if err := yaml.Unmarshal(data, &cfg.doc); err != nil {
		return nil, fmt.Errorf("failed to parse site config: %w", err)
	}
	if cfg.doc.Kind == 0 {
		cfg.doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if cfg.root() == nil {
		return nil, ErrNotMapping
	}
	return cfg, nil
}

// Path returns the file the config was loaded from
func (c *SiteConfig) Path() string {
	return c.path
}

func (c *SiteConfig) root() *yaml.Node {
	if c.doc.Kind != yaml.DocumentNode || len(c.doc.Content) == 0 {
		return nil
	}
	if root := c.doc.Content[0]; root.Kind == yaml.MappingNode {
		return root
	}
	return nil
}

// DocsDir returns the absolute docs directory. mkdocs resolves docs_dir
// relative to the config file and defaults it to "docs".
func (c *SiteConfig) DocsDir() string {
	dir := defaultDocsDir
	if node := lookup(c.root(), docsDirKey); node != nil && node.Kind == yaml.ScalarNode && node.Value != "" {
		dir = node.Value
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(filepath.Dir(c.path), dir)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// HasNav reports whether the document declares a nav
func (c *SiteConfig) HasNav() bool {
	return lookup(c.root(), navKey) != nil
}

// Nav decodes the nav. A missing or null nav decodes as empty.
func (c *SiteConfig) Nav() ([]Item, error) {
	node := lookup(c.root(), navKey)
	if node == nil || node.Tag == "!!null" {
		return nil, nil
	}
	var items []Item
	if err := node.Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode nav: %w", err)
	}
	return items, nil
}

// SetNav replaces the nav, adding the key when it is missing
func (c *SiteConfig) SetNav(items []Item) error {
	var value yaml.Node
	if items == nil {
		items = []Item{}
	}
	if err := value.Encode(items); err != nil {
		return fmt.Errorf("failed to encode nav: %w", err)
	}

	root := c.root()
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == navKey {
			root.Content[i+1] = &value
			return nil
		}
	}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: navKey},
		&value,
	)
	return nil
}

// i18nConfig returns the mkdocs-static-i18n plugin block, if the plugin is
// enabled. An enabled plugin without options yields a non-nil empty node.
func (c *SiteConfig) i18nConfig() *yaml.Node {
	plugins := lookup(c.root(), pluginsKey)
	if plugins == nil {
		return nil
	}
	switch plugins.Kind {
	case yaml.SequenceNode:
		for _, p := range plugins.Content {
			if p.Kind == yaml.ScalarNode && p.Value == i18nPlugin {
				return &yaml.Node{Kind: yaml.MappingNode}
			}
			if p.Kind == yaml.MappingNode {
				if cfg := lookup(p, i18nPlugin); cfg != nil {
					return cfg
				}
			}
		}
	case yaml.MappingNode:
		return lookup(plugins, i18nPlugin)
	}
	return nil
}

// I18nActive reports whether the i18n plugin is enabled
func (c *SiteConfig) I18nActive() bool {
	return c.i18nConfig() != nil
}

// I18nLanguages returns the configured locales in declaration order. Both
// the list form (plain codes or entries with a "locale" key) and the
// mapping form keyed by locale are understood.
func (c *SiteConfig) I18nLanguages() []string {
	languages := lookup(c.i18nConfig(), "languages")
	if languages == nil {
		return nil
	}

	var out []string
	switch languages.Kind {
	case yaml.SequenceNode:
		for _, lang := range languages.Content {
			switch lang.Kind {
			case yaml.ScalarNode:
				out = append(out, lang.Value)
			case yaml.MappingNode:
				if locale := lookup(lang, "locale"); locale != nil && locale.Value != "" {
					out = append(out, locale.Value)
				}
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(languages.Content); i += 2 {
			out = append(out, languages.Content[i].Value)
		}
	}
	return out
}

// DefaultLanguage returns the i18n default locale: the plugin's
// default_language option, else the language marked "default: true"
func (c *SiteConfig) DefaultLanguage() string {
	cfg := c.i18nConfig()
	if node := lookup(cfg, "default_language"); node != nil {
		return node.Value
	}
	languages := lookup(cfg, "languages")
	if languages == nil || languages.Kind != yaml.SequenceNode {
		return ""
	}
	for _, lang := range languages.Content {
		if def := lookup(lang, "default"); def != nil && def.Value == "true" {
			if locale := lookup(lang, "locale"); locale != nil {
				return locale.Value
			}
		}
	}
	return ""
}

// Save writes the document back to its file
func (c *SiteConfig) Save() error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&c.doc); err != nil {
		return fmt.Errorf("failed to encode site config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode site config: %w", err)
	}
	if err := storage.WriteFileAtomic(c.path, buf.Bytes(), siteConfigPerms); err != nil {
		return fmt.Errorf("failed to write site config: %w", err)
	}
	return nil
}

// lookup returns the value for key in a mapping node
func lookup(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
