// Package cli implements the protodoc command line.
//
//	protodoc generate [--force]
//	protodoc watch [--serve] [--addr host:port] [--rebuild-schedule "@every 1h"]
//
// Both commands read protodoc.yaml (or --config), then PROTODOC_*
// environment variables, then flags. generate converts the proto files
// changed since the last run; watch keeps converting as files change
// until interrupted.
package cli
