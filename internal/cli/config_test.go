package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirRepo creates a temp repository root with a .git directory, changes
// into dir under it and returns the root.
func chdirRepo(t *testing.T, dir ...string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	cwd := filepath.Join(append([]string{root}, dir...)...)
	require.NoError(t, os.MkdirAll(cwd, 0o755))

	oldCwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })
	require.NoError(t, os.Chdir(cwd))
	return root
}

func TestFindConfigFile_ExplicitPath(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("dialect: postgres"), 0o644))

	path, err := findConfigFile(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, tmpFile, path)
}

func TestFindConfigFile_ExplicitPathNotFound(t *testing.T) {
	_, err := findConfigFile("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestFindConfigFile_AutoDiscovery(t *testing.T) {
	root := chdirRepo(t, "deep", "nested")
	configPath := filepath.Join(root, "datagrid.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("dialect: postgres"), 0o644))

	path, err := findConfigFile("")
	require.NoError(t, err)

	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expectedPath, _ := filepath.EvalSymlinks(configPath)
	actualPath, _ := filepath.EvalSymlinks(path)
	assert.Equal(t, expectedPath, actualPath)
}

func TestFindConfigFile_PrefersYamlOverYml(t *testing.T) {
	root := chdirRepo(t)
	yamlPath := filepath.Join(root, "datagrid.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("dialect: postgres"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "datagrid.yml"), []byte("dialect: sqlite"), 0o644))

	path, err := findConfigFile("")
	require.NoError(t, err)

	expectedPath, _ := filepath.EvalSymlinks(yamlPath)
	actualPath, _ := filepath.EvalSymlinks(path)
	assert.Equal(t, expectedPath, actualPath)
}

func TestFindConfigFile_StopsAtRepoRoot(t *testing.T) {
	root := chdirRepo(t, "sub")
	// A config above the repository root is not picked up.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(root), "datagrid.yaml"), []byte("dialect: postgres"), 0o644))
	t.Cleanup(func() { _ = os.Remove(filepath.Join(filepath.Dir(root), "datagrid.yaml")) })

	path, err := findConfigFile("")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdirRepo(t)

	cfg, path, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_FromFile(t *testing.T) {
	root := chdirRepo(t)
	content := `
schema: defs/grids
scenarios: defs/scenarios
dialect: postgres
stable_order: id
format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "datagrid.yaml"), []byte(content), 0o644))

	cfg, path, err := LoadConfig("")
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.Equal(t, &Config{
		Schema:      "defs/grids",
		Scenarios:   "defs/scenarios",
		Dialect:     "postgres",
		StableOrder: "id",
		Format:      "json",
	}, cfg)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	root := chdirRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "datagrid.yaml"), []byte("stable_order: id\n"), 0o644))

	cfg, _, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "id", cfg.StableOrder)
	assert.Equal(t, defaultSchema, cfg.Schema)
	assert.Equal(t, defaultDialect, cfg.Dialect)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	root := chdirRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "datagrid.yaml"), []byte("dialect: sqlite\n"), 0o644))
	t.Setenv("DATAGRID_DIALECT", "postgres")

	cfg, _, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	root := chdirRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "datagrid.yaml"), []byte("dialect: [unclosed"), 0o644))

	_, _, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}
