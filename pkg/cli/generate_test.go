package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protodoc/pkg/nav"
)

func runCommand(t *testing.T, args []string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGenerate(t *testing.T) {
	p := newProject(t)

	output, err := runCommand(t, p.args("generate"))
	require.NoError(t, err)
	assert.Contains(t, output, "Generated 2 of 2 pages from 2 sources")
	assert.Contains(t, output, "Navigation updated")

	data, err := os.ReadFile(filepath.Join(p.out, "user", "v1", "user.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Timestamp](../../common/v1/common.md)")
	assert.FileExists(t, filepath.Join(p.out, "common", "v1", "common.md"))
	assert.FileExists(t, p.cache)

	sc, err := nav.LoadSiteConfig(p.mkdocs)
	require.NoError(t, err)
	items, err := sc.Nav()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, nav.DefaultSection, items[1].Title)
	assert.Subset(t, nav.Paths(items), []string{"index.md", "api/common/v1/common.md", "api/user/v1/user.md"})
}

func TestGenerate_SkipsUnchanged(t *testing.T) {
	p := newProject(t)

	_, err := runCommand(t, p.args("generate"))
	require.NoError(t, err)

	output, err := runCommand(t, p.args("generate"))
	require.NoError(t, err)
	assert.Contains(t, output, "No changes in 2 proto files")

	output, err = runCommand(t, p.args("generate", "--force"))
	require.NoError(t, err)
	assert.Contains(t, output, "Generated 2 of 2 pages")
}

func TestGenerate_NoSources(t *testing.T) {
	p := newProject(t)
	empty := t.TempDir()

	output, err := runCommand(t, []string{
		"generate",
		"--proto-path", empty,
		"--site-config", p.mkdocs,
		"--cache-file", p.cache,
		"--log-level", "error",
	})
	require.NoError(t, err)
	assert.Empty(t, output)
	assert.NoDirExists(t, p.out)
}

func TestGenerate_WithoutSiteConfig(t *testing.T) {
	p := newProject(t)
	docs := filepath.Join(p.base, "site-docs")

	output, err := runCommand(t, []string{
		"generate",
		"--proto-path", p.protos,
		"--site-config", filepath.Join(p.base, "missing.yml"),
		"--docs-dir", docs,
		"--output-dir", "reference",
		"--cache-file", p.cache,
		"--log-level", "error",
	})
	require.NoError(t, err)
	assert.NotContains(t, output, "Navigation updated")
	assert.FileExists(t, filepath.Join(docs, "reference", "common", "v1", "common.md"))
}
