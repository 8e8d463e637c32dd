// Package server implements the preview server started by "protodoc watch".
//
// Endpoints:
//
//	GET /healthz          liveness
//	GET /readyz           503 until the first build has finished
//	GET /metrics          Prometheus metrics
//	GET /api/pages        generated pages, relative to the output directory
//	GET /api/pages/{path} raw Markdown of one page
//	GET /...              static files from the docs directory
package server
