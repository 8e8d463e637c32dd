// Package resolver indexes a set of proto files so that imports and
// qualified type names can be traced back to the file defining them.
//
// A Resolver holds three tables, rebuilt from scratch by every Initialize:
// root-relative import path to file, package name to file (the last file
// declaring a package wins), and "<package>.<Name>" to file for every
// top-level message, enum and service.
//
// Files are placed under the most specific configured search root. The same
// root-relative path decides where a file's generated page lives, which is
// what RelativeLink uses to build links between pages:
//
//	r := resolver.New([]string{"protos"})
//	_ = r.Initialize(files)
//	link := r.MarkdownLink("example.common.v1.Timestamp", "docs/api/user/v1/user.md", "docs/api")
//	// [`Timestamp`](../../common/v1/common.md)
package resolver
