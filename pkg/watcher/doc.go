// Package watcher delivers debounced change events for proto sources.
//
// Raw fsnotify notifications are coalesced per path: a burst of writes
// becomes a single Modified event once the file has been quiet for the
// debounce window, and an editor's remove-then-create save is reported as
// Modified rather than Deleted followed by Created. Renames are reported as
// Deleted for the old path. Events are handed to the Handler one at a time.
package watcher
