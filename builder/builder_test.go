package builder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/docsmith/analyzer"
	"github.com/lexcodex/docsmith/config"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	cfg := config.Default()
	cfg.ProjectRoot = t.TempDir()
	return New(cfg)
}

func sampleDoc(path string) *FileDoc {
	return &FileDoc{
		Path: path,
		Analysis: &analyzer.Record{
			Path:      path,
			ModuleDoc: "Handles things.",
			Classes: []analyzer.Class{{
				Name:  "Handler",
				Bases: []string{"BaseHandler"},
				Methods: []analyzer.Callable{{
					Name:   "handle",
					Doc:    "Handle one request.\n\nDetails follow.",
					Params: []analyzer.Param{{Name: "self"}, {Name: "req", Annotation: "Request"}},
				}},
			}},
			Functions: []analyzer.Callable{{
				Name:    "main",
				Params:  []analyzer.Param{{Name: "argv", Annotation: "list[str]"}},
				Returns: "int",
				Raises:  []string{"SystemExit"},
			}},
			LinesOfCode:    42,
			Complexity:     9,
			Dependencies:   []string{"requests"},
			DecoratorsSeen: []string{"property"},
		},
		Documentation: "## Overview\nThis file handles things.",
		Timestamp:     time.Now(),
	}
}

func readOutput(t *testing.T, b *Builder, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(b.outputDir(), rel))
	require.NoError(t, err)
	return string(data)
}

func TestBuildOutputs(t *testing.T) {
	b := testBuilder(t)
	b.Add("app/service/handler.py", sampleDoc("app/service/handler.py"))
	b.Add("main.py", sampleDoc("main.py"))
	require.NoError(t, b.Build())

	readme := readOutput(t, b, "README.md")
	assert.Contains(t, readme, "# Project Documentation")
	assert.Contains(t, readme, "- Total Files Documented: 2")
	assert.Contains(t, readme, "- Total Modules: 2")
	assert.Contains(t, readme, "- Total Classes: 2")
	assert.Contains(t, readme, "- Total Functions: 2")
	assert.Contains(t, readme, "app/")
	assert.Contains(t, readme, "handler.py")

	api := readOutput(t, b, "api-reference.md")
	assert.Contains(t, api, "### class Handler")
	assert.Contains(t, api, "**Inherits from:** BaseHandler")
	assert.Contains(t, api, "- `handle(req)` - Handle one request.")
	assert.Contains(t, api, "`main(argv: list[str]) -> int`")
	assert.Contains(t, api, "**Raises:** SystemExit")

	overview := readOutput(t, b, "project-overview.md")
	assert.Contains(t, overview, "- requests")
	assert.Contains(t, overview, "Services:")
	assert.Contains(t, overview, "Property decorators for encapsulation")

	moduleDoc := readOutput(t, b, filepath.Join("modules", "app_service", "index.md"))
	assert.Contains(t, moduleDoc, "# Module: app/service")
	assert.Contains(t, moduleDoc, "## Overview\n\nThis module contains 1 files")
	assert.Contains(t, moduleDoc, "### handler.py")
	assert.Contains(t, moduleDoc, "This file handles things.")
	assert.Contains(t, moduleDoc, "- **Complexity Score:** 9")

	rootDoc := readOutput(t, b, filepath.Join("modules", "root", "index.md"))
	assert.Contains(t, rootDoc, "# Module: root")
}

func TestLoadExistingRoundTrip(t *testing.T) {
	b := testBuilder(t)
	b.Add("main.py", sampleDoc("main.py"))
	require.NoError(t, b.Build())

	b2 := New(b.cfg)
	assert.Zero(t, b2.Len())
	b2.LoadExisting()
	require.Equal(t, 1, b2.Len())

	// Incremental runs keep untouched entries and replace changed ones.
	updated := sampleDoc("main.py")
	updated.Documentation = "new prose"
	b2.Add("main.py", updated)
	b2.Add("extra.py", sampleDoc("extra.py"))
	assert.Equal(t, 2, b2.Len())
}

func TestLoadExistingCorrupt(t *testing.T) {
	b := testBuilder(t)
	require.NoError(t, os.MkdirAll(b.outputDir(), 0o755))
	require.NoError(t, os.WriteFile(b.jsonPath(), []byte("{broken"), 0o644))
	b.LoadExisting()
	assert.Zero(t, b.Len())
}

func TestRemove(t *testing.T) {
	b := testBuilder(t)
	b.Add("gone.py", sampleDoc("gone.py"))
	b.Remove("gone.py")
	assert.Zero(t, b.Len())
}

func TestRenderTree(t *testing.T) {
	tree := buildTree([]string{"a.py", "pkg/b.py", "pkg/c.py", "pkg/sub/d.py"})
	out := renderTree(tree, "")
	assert.Equal(t, "├── a.py\n└── pkg/\n    ├── b.py\n    ├── c.py\n    └── sub/\n        └── d.py\n", out)
}
