// Package nav keeps the mkdocs navigation in step with the generated pages.
//
// Generated page paths are folded into a nested tree of sections titled by
// directory and pages titled by file stem. Update merges that tree into an
// existing nav: an "API Reference" (or "API", or output directory) section
// is replaced in place, or one is appended. When the mkdocs-static-i18n
// plugin is enabled, pages are grouped under their language section.
//
// SiteConfig edits mkdocs.yml through yaml.Node so that everything besides
// the nav survives a round trip untouched.
package nav
