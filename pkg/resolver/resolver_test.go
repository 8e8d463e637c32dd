package resolver

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeProto(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const (
	commonProto = `syntax = "proto3";
package example.common.v1;

message Timestamp {
  int64 seconds = 1;
}

enum Status {
  STATUS_UNSPECIFIED = 0;
}
`
	userProto = `syntax = "proto3";
package example.user.v1;

import "common/v1/common.proto";

message User {
  string id = 1;
  example.common.v1.Timestamp created_at = 4;

  message Settings {
    bool dark = 1;
  }
}

service UserService {
  rpc GetUser(User) returns (User);
}
`
)

func setupTree(t *testing.T) (root, common, user string) {
	t.Helper()
	root = t.TempDir()
	common = writeProto(t, filepath.Join(root, "common", "v1", "common.proto"), commonProto)
	user = writeProto(t, filepath.Join(root, "user", "v1", "user.proto"), userProto)
	return root, common, user
}

func TestResolver_UninitializedFailsClosed(t *testing.T) {
	root, common, _ := setupTree(t)
	r := New([]string{root}, WithLogger(quietLogger()))

	assert.False(t, r.Initialized())

	_, ok := r.ResolveImport("common/v1/common.proto", "")
	assert.False(t, ok)

	_, ok = r.ResolveTypeReference("example.common.v1.Timestamp")
	assert.False(t, ok)

	_, ok = r.RelativeLink("example.common.v1.Timestamp", filepath.Join(root, "out", "x.md"), filepath.Join(root, "out"))
	assert.False(t, ok)

	assert.Equal(t, "`example.common.v1.Timestamp`",
		r.MarkdownLink("example.common.v1.Timestamp", common, filepath.Join(root, "out")))
}

func TestResolver_Indices(t *testing.T) {
	root, common, user := setupTree(t)
	r := New([]string{root}, WithLogger(quietLogger()))
	require.NoError(t, r.Initialize([]string{common, user}))
	require.True(t, r.Initialized())

	idx := r.Snapshot()
	assert.Equal(t, map[string]string{
		"common/v1/common.proto": common,
		"user/v1/user.proto":     user,
	}, idx.Imports)
	assert.Equal(t, map[string]string{
		"example.common.v1": common,
		"example.user.v1":   user,
	}, idx.Packages)
	assert.Equal(t, map[string]string{
		"example.common.v1.Timestamp": common,
		"example.common.v1.Status":    common,
		"example.user.v1.User":        user,
		"example.user.v1.UserService": user,
	}, idx.References)

	_, nested := idx.References["example.user.v1.Settings"]
	assert.False(t, nested, "nested messages are not registered")
}

func TestResolver_ImportRoundTrip(t *testing.T) {
	root, common, user := setupTree(t)
	r := New([]string{root}, WithLogger(quietLogger()))
	require.NoError(t, r.Initialize([]string{common, user}))

	for key, abs := range r.Snapshot().Imports {
		got, ok := r.ResolveImport(key, "")
		require.True(t, ok, key)
		assert.Equal(t, abs, got)
	}
}

func TestResolver_InitializeIsIdempotent(t *testing.T) {
	root, common, user := setupTree(t)
	r := New([]string{root}, WithLogger(quietLogger()))

	require.NoError(t, r.Initialize([]string{common, user}))
	first := r.Snapshot()
	require.NoError(t, r.Initialize([]string{common, user}))
	assert.Equal(t, first, r.Snapshot())

	require.NoError(t, r.Initialize([]string{common}))
	assert.Len(t, r.Snapshot().Imports, 1, "previous state is discarded")
}

func TestResolver_ResolveImportFallbacks(t *testing.T) {
	root, common, user := setupTree(t)
	extra := writeProto(t, filepath.Join(root, "user", "v1", "extra.proto"), "package extra;")
	r := New([]string{root}, WithLogger(quietLogger()))
	require.NoError(t, r.Initialize([]string{common, user}))

	got, ok := r.ResolveImport("extra.proto", user)
	require.True(t, ok)
	assert.Equal(t, extra, got)

	got, ok = r.ResolveImport("user/v1/extra.proto", "")
	require.True(t, ok)
	assert.Equal(t, extra, got)

	_, ok = r.ResolveImport("missing/none.proto", user)
	assert.False(t, ok)
}

func TestResolver_ResolveTypeReference(t *testing.T) {
	dir := t.TempDir()
	outer := writeProto(t, filepath.Join(dir, "a.proto"), "package a; message Outer { message Inner { bool ok = 1; } }")
	inner := writeProto(t, filepath.Join(dir, "ab.proto"), "package a.b; message C { bool ok = 1; }")

	r := New([]string{dir}, WithLogger(quietLogger()))
	require.NoError(t, r.Initialize([]string{outer, inner}))

	tests := []struct {
		name     string
		ref      string
		expected string
	}{
		{"exact", "a.b.C", inner},
		{"leading dot", ".a.b.C", inner},
		{"longest package prefix", "a.b.Missing", inner},
		{"nested through package", "a.Outer.Inner", outer},
		{"shorter package prefix", "a.Unknown", outer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.ResolveTypeReference(tt.ref)
			require.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}

	for _, ref := range []string{"C", "Outer", "", "zzz.Nope"} {
		_, ok := r.ResolveTypeReference(ref)
		assert.False(t, ok, ref)
	}
}

func TestResolver_DuplicatePackageLastWins(t *testing.T) {
	dir := t.TempDir()
	first := writeProto(t, filepath.Join(dir, "one.proto"), "package dup; message One {}")
	second := writeProto(t, filepath.Join(dir, "two.proto"), "package dup; message Two {}")

	r := New([]string{dir}, WithLogger(quietLogger()))
	require.NoError(t, r.Initialize([]string{first, second}))

	got, ok := r.ResolveTypeReference("dup.Unknown")
	require.True(t, ok)
	assert.Equal(t, second, got)

	got, ok = r.ResolveTypeReference("dup.One")
	require.True(t, ok)
	assert.Equal(t, first, got)
}

func TestResolver_MarkdownLinkAcrossDirectories(t *testing.T) {
	root, common, user := setupTree(t)
	out := filepath.Join(root, "out")
	r := New([]string{root}, WithLogger(quietLogger()))
	require.NoError(t, r.Initialize([]string{common, user}))

	current := r.OutputPath(user, out)
	assert.Equal(t, filepath.Join(out, "user", "v1", "user.md"), current)

	rel, ok := r.RelativeLink("example.common.v1.Timestamp", current, out)
	require.True(t, ok)
	assert.Equal(t, "../../common/v1/common.md", rel)

	assert.Equal(t, "[`Timestamp`](../../common/v1/common.md)",
		r.MarkdownLink("example.common.v1.Timestamp", current, out))
	assert.Equal(t, "`Timestamp`", r.MarkdownLink("Timestamp", current, out))
	assert.Equal(t, "`other.pkg.Thing`", r.MarkdownLink("other.pkg.Thing", current, out))
	assert.Equal(t, "``", r.MarkdownLink("", current, out))
}

func TestResolver_SelfLinkAcrossSiblingRoots(t *testing.T) {
	base := t.TempDir()
	rootA := filepath.Join(base, "A")
	rootB := filepath.Join(base, "B")
	a := writeProto(t, filepath.Join(rootA, "a.proto"), "package p1; message Y { string s = 1; }")
	b := writeProto(t, filepath.Join(rootB, "b.proto"), "package p1.sub; message X { p1.sub.X self = 1; }")
	out := filepath.Join(base, "out")

	r := New([]string{rootA, rootB}, WithLogger(quietLogger()))
	require.NoError(t, r.Initialize([]string{a, b}))

	current := r.OutputPath(b, out)
	assert.Equal(t, "[`X`](b.md)", r.MarkdownLink("p1.sub.X", current, out))
	assert.Equal(t, "[`Y`](a.md)", r.MarkdownLink("p1.Y", current, out))
}

func TestResolver_InitializeSkipsUnreadableFiles(t *testing.T) {
	root, common, user := setupTree(t)
	broken := errors.New("permission denied")
	read := func(path string) ([]byte, error) {
		if path == user {
			return nil, broken
		}
		return os.ReadFile(path)
	}

	r := New([]string{root}, WithLogger(quietLogger()), WithReader(read))
	err := r.Initialize([]string{common, user})
	require.Error(t, err)
	assert.ErrorIs(t, err, broken)
	assert.True(t, r.Initialized())

	_, ok := r.ResolveTypeReference("example.common.v1.Timestamp")
	assert.True(t, ok)
	_, ok = r.ResolveTypeReference("example.user.v1.User")
	assert.False(t, ok)
}

func TestRoots_Owning(t *testing.T) {
	base := t.TempDir()
	nested := filepath.Join(base, "api")
	file := filepath.Join(nested, "v1", "svc.proto")

	tests := []struct {
		name     string
		roots    []string
		owner    string
		relative string
	}{
		{"most specific wins", []string{base, nested}, nested, "v1/svc.proto"},
		{"order does not matter for specificity", []string{nested, base}, nested, "v1/svc.proto"},
		{"equal roots keep the first", []string{base + string(os.PathSeparator), base}, base, "api/v1/svc.proto"},
		{"no root", []string{filepath.Join(base, "other")}, "", "svc.proto"},
		{"sibling prefix is not containment", []string{base + "x"}, "", "svc.proto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roots := NewRoots(tt.roots)
			assert.Equal(t, tt.owner, roots.Owning(file))
			assert.Equal(t, tt.relative, roots.RootRelative(file))
		})
	}
}

func TestRoots_OutputPath(t *testing.T) {
	base := t.TempDir()
	roots := NewRoots([]string{base})

	assert.Equal(t, filepath.Join("out", "a", "b.md"), roots.OutputPath(filepath.Join(base, "a", "b.proto"), "out", ""))
	assert.Equal(t, filepath.Join("out", "a", "b.mdx"), roots.OutputPath(filepath.Join(base, "a", "b.proto"), "out", ".mdx"))
	assert.Equal(t, filepath.Join("out", "loose.md"), roots.OutputPath("/elsewhere/loose.proto", "out", ".md"))
}
