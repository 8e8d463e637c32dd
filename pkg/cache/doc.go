// Package cache keeps build state between and within documentation runs.
//
// FileCache is the persistent change cache: absolute source path to MD5
// digest, stored as JSON, consulted to skip files that did not change since
// they were last converted.
//
// ExtractMemo is an in-memory, expiring LRU of extraction results keyed by
// the SHA-256 of file content. It implements resolver.Extractor so the
// indexing pass and the rendering pass of one batch extract each file once.
package cache
