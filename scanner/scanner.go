// Package scanner enumerates the source files a documentation run should
// consider, applying the configured inclusion and exclusion policy.
package scanner

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lexcodex/docsmith/config"
)

// Scanner walks a project root and produces the current file set. Paths are
// returned relative to the root, slash-separated, so they can key the ledger
// portably.
type Scanner struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// Scan returns the sorted, de-duplicated set of files to document. Excluded
// directories are pruned before descent so their subtrees are never visited.
func (s *Scanner) Scan() ([]string, error) {
	root := s.cfg.ProjectRoot
	seen := make(map[string]struct{})

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// An unreadable root is fatal; anything deeper is skipped.
			if path == root {
				return fmt.Errorf("walking project root: %w", err)
			}
			log.Printf("scanner: %v", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if s.excludedDir(d.Name()) {
				return fs.SkipDir
			}
			if !s.cfg.IncludeTests && isTestDirectory(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !s.matchesInclude(d.Name()) {
			return nil
		}
		if !s.shouldInclude(path, d.Name()) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		seen[filepath.ToSlash(rel)] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	log.Printf("scanner: found %d files matching patterns", len(files))
	return files, nil
}

func (s *Scanner) matchesInclude(name string) bool {
	for _, pattern := range s.cfg.IncludePatterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) excludedDir(name string) bool {
	for _, pattern := range s.cfg.ExcludeDirs {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) shouldInclude(path, name string) bool {
	info, err := os.Stat(path)
	if err != nil {
		log.Printf("scanner: stat %s: %v", path, err)
		return false
	}
	if info.Size() > s.cfg.MaxFileSize {
		return false
	}

	for _, pattern := range s.cfg.ExcludeFiles {
		ok, _ := filepath.Match(pattern, name)
		if !ok {
			continue
		}
		// Package initializers with real content are documented even when
		// excluded by pattern; only trivial init stubs are skipped.
		if name == "__init__.py" && hasRealContent(path) {
			return true
		}
		return false
	}

	if !s.cfg.IncludeTests && isTestFile(name) {
		return false
	}
	return true
}

func hasRealContent(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	content := strings.TrimSpace(string(data))
	return len(content) > 100 || strings.Contains(content, "class") || strings.Contains(content, "def ")
}

func isTestDirectory(name string) bool {
	name = strings.ToLower(name)
	switch name {
	case "tests", "test", "testing":
		return true
	}
	return strings.HasPrefix(name, "test_")
}

func isTestFile(name string) bool {
	name = strings.ToLower(name)
	switch name {
	case "test.py", "tests.py":
		return true
	}
	return strings.HasPrefix(name, "test_") || strings.HasSuffix(name, "_test.py")
}

// TreeNode is one entry in the project structure tree used by the document
// builder's overview rendering.
type TreeNode struct {
	Name     string      `json:"name"`
	IsDir    bool        `json:"is_dir"`
	Children []*TreeNode `json:"children,omitempty"`
}

// ProjectStructure arranges the scanned file set into a directory tree rooted
// at the project directory name.
func (s *Scanner) ProjectStructure() (*TreeNode, error) {
	files, err := s.Scan()
	if err != nil {
		return nil, err
	}
	root := &TreeNode{Name: filepath.Base(s.cfg.ProjectRoot), IsDir: true}
	for _, f := range files {
		parts := strings.Split(f, "/")
		node := root
		for i, part := range parts {
			isDir := i < len(parts)-1
			child := node.child(part)
			if child == nil {
				child = &TreeNode{Name: part, IsDir: isDir}
				node.Children = append(node.Children, child)
			}
			node = child
		}
	}
	return root, nil
}

func (n *TreeNode) child(name string) *TreeNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}
