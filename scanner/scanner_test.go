package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/docsmith/config"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.ProjectRoot = root
	return cfg
}

func TestScanPolicy(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "print('hi')\n")
	writeFile(t, root, "pkg/core.py", "x = 1\n")
	writeFile(t, root, "notes.txt", "not python\n")
	writeFile(t, root, "setup.py", "from setuptools import setup\n")
	writeFile(t, root, "test_main.py", "def test_ok(): pass\n")
	writeFile(t, root, "tests/test_core.py", "def test_core(): pass\n")
	writeFile(t, root, "__pycache__/cached.py", "x = 1\n")
	writeFile(t, root, "build/artifact.py", "x = 1\n")

	files, err := New(testConfig(root)).Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py", "pkg/core.py"}, files)
}

func TestScanMissingRootFails(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing"))
	_, err := New(cfg).Scan()
	require.Error(t, err)
}

func TestScanIncludeTests(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "print('hi')\n")
	writeFile(t, root, "test_main.py", "def test_ok(): pass\n")
	writeFile(t, root, "tests/test_core.py", "def test_core(): pass\n")

	cfg := testConfig(root)
	cfg.IncludeTests = true
	files, err := New(cfg).Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py", "test_main.py", "tests/test_core.py"}, files)
}

func TestScanInitCarveOut(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "trivial/__init__.py", "")
	writeFile(t, root, "reexport/__init__.py", "from .core import thing\n")
	writeFile(t, root, "real/__init__.py", "def configure():\n    return 1\n")
	writeFile(t, root, "long/__init__.py", strings.Repeat("# filler line\n", 20))

	files, err := New(testConfig(root)).Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"long/__init__.py", "real/__init__.py"}, files)
}

func TestScanMaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.py", "x = 1\n")
	writeFile(t, root, "big.py", strings.Repeat("x = 1\n", 200))

	cfg := testConfig(root)
	cfg.MaxFileSize = 100
	files, err := New(cfg).Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"small.py"}, files)
}

func TestScanPrunesExcludedSubtrees(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.py", "x = 1\n")
	writeFile(t, root, ".venv/lib/deep/nested/mod.py", "x = 1\n")
	writeFile(t, root, "demo.egg-info/pkg/mod.py", "x = 1\n")

	files, err := New(testConfig(root)).Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.py"}, files)
}

func TestProjectStructure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "x = 1\n")
	writeFile(t, root, "pkg/core.py", "x = 1\n")
	writeFile(t, root, "pkg/util.py", "x = 1\n")

	tree, err := New(testConfig(root)).ProjectStructure()
	require.NoError(t, err)

	assert.True(t, tree.IsDir)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "main.py", tree.Children[0].Name)
	assert.False(t, tree.Children[0].IsDir)

	pkg := tree.Children[1]
	assert.Equal(t, "pkg", pkg.Name)
	assert.True(t, pkg.IsDir)
	require.Len(t, pkg.Children, 2)
	assert.Equal(t, "core.py", pkg.Children[0].Name)
	assert.Equal(t, "util.py", pkg.Children[1].Name)
}
