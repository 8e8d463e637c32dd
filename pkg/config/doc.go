// Package config loads protodoc configuration.
//
// Settings are layered: DefaultConfig, then an optional protodoc.yaml,
// then PROTODOC_* environment variables, then command line flags.
//
//	proto_paths:
//	  - proto
//	site_config: mkdocs.yml
//	output_dir: api
//	workers: 4
//	log:
//	  level: debug
//	  format: json
//	watch:
//	  debounce: 500ms
//	  rebuild_schedule: "@every 1h"
//	  serve_addr: 127.0.0.1:8000
//
// Relative paths in a config file are resolved against the file's
// directory. output_dir is relative to the docs directory.
package config
