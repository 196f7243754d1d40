package scaffold

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRC(t *testing.T) *versio_io.RuntimeContext {
	t.Helper()
	return versio_io.NewContext(context.Background(), "test")
}

func put(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestScanFindsManifests(t *testing.T) {
	dir := t.TempDir()
	put(t, dir, "web/package.json", "{\"version\": \"1.0.0\"}\n")
	put(t, dir, "core/Cargo.toml", "[package]\nversion = \"1.0.0\"\n")
	put(t, dir, "tool/go.mod", "module example.com/tool\n")
	put(t, dir, "web/node_modules/dep/package.json", "{}\n")
	put(t, dir, ".hidden/package.json", "{}\n")

	found, err := Scan(testRC(t), dir)
	require.NoError(t, err)
	require.Len(t, found, 3)

	roots := []string{found[0].Root, found[1].Root, found[2].Root}
	assert.Equal(t, []string{"core", "tool", "web"}, roots)
}

func TestWriteProducesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	put(t, dir, "web/package.json", "{\"version\": \"1.0.0\"}\n")
	put(t, dir, "tool/go.mod", "module example.com/tool\n")

	require.NoError(t, Write(testRC(t), dir))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.Len(t, cfg.Projects, 2)

	tool, err := cfg.FindByName("tool")
	require.NoError(t, err)
	assert.True(t, tool.Version.IsTags())
	require.NotNil(t, tool.TagPrefix)

	web, err := cfg.FindByName("web")
	require.NoError(t, err)
	assert.Equal(t, config.FormatJSON, web.Version.Format)
}

func TestWriteRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	put(t, dir, config.Filename, "projects: []\n")
	require.Error(t, Write(testRC(t), dir))
}
