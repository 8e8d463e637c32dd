// Package discovery finds the .proto sources a documentation build works on.
//
// Configured paths may name directories, which are walked recursively and
// become the search roots used for import resolution and output layout, or
// individual .proto files. Sources inside the output directory are never
// picked up, so generated pages cannot feed back into a build.
package discovery
