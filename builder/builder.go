// Package builder assembles per-file documentation into the final document
// tree: raw JSON, README, per-module pages, API reference and overview.
package builder

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lexcodex/docsmith/analyzer"
	"github.com/lexcodex/docsmith/config"
)

// FileDoc pairs one file's structural analysis with its generated prose.
type FileDoc struct {
	Path          string           `json:"path"`
	Analysis      *analyzer.Record `json:"analysis"`
	Documentation string           `json:"documentation"`
	Timestamp     time.Time        `json:"timestamp"`
}

// Builder accumulates file documentation across a run and renders the
// output tree in one pass at the end.
type Builder struct {
	cfg  *config.Config
	docs map[string]*FileDoc
}

func New(cfg *config.Config) *Builder {
	return &Builder{
		cfg:  cfg,
		docs: make(map[string]*FileDoc),
	}
}

func (b *Builder) outputDir() string {
	if filepath.IsAbs(b.cfg.OutputDir) {
		return b.cfg.OutputDir
	}
	return filepath.Join(b.cfg.ProjectRoot, b.cfg.OutputDir)
}

func (b *Builder) jsonPath() string {
	return filepath.Join(b.outputDir(), "documentation.json")
}

// LoadExisting reads the previous run's documentation so an incremental run
// only replaces the entries that changed. Absence or corruption just means
// starting empty.
func (b *Builder) LoadExisting() {
	data, err := os.ReadFile(b.jsonPath())
	if err != nil {
		return
	}
	var docs map[string]*FileDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		log.Printf("builder: existing documentation unreadable, starting empty: %v", err)
		return
	}
	b.docs = docs
	log.Printf("builder: loaded existing documentation for %d files", len(docs))
}

// Add records documentation for one file, replacing any prior entry.
func (b *Builder) Add(rel string, doc *FileDoc) {
	b.docs[rel] = doc
}

// Remove drops entries for files that no longer exist.
func (b *Builder) Remove(rel string) {
	delete(b.docs, rel)
}

// Len reports how many files currently have documentation.
func (b *Builder) Len() int {
	return len(b.docs)
}

// Build writes the complete output tree. Individual page failures are
// logged and do not stop the remaining pages.
func (b *Builder) Build() error {
	out := b.outputDir()
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := b.saveJSON(); err != nil {
		log.Printf("builder: saving documentation JSON: %v", err)
	}
	if err := b.writeReadme(); err != nil {
		log.Printf("builder: writing README: %v", err)
	}
	if err := b.writeModuleDocs(); err != nil {
		log.Printf("builder: writing module docs: %v", err)
	}
	if err := b.writeAPIReference(); err != nil {
		log.Printf("builder: writing API reference: %v", err)
	}
	if err := b.writeProjectOverview(); err != nil {
		log.Printf("builder: writing project overview: %v", err)
	}

	log.Printf("builder: documentation built in %s", out)
	return nil
}

func (b *Builder) saveJSON() error {
	data, err := json.MarshalIndent(b.docs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.jsonPath(), data, 0o644)
}

func (b *Builder) sortedPaths() []string {
	paths := make([]string, 0, len(b.docs))
	for p := range b.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (b *Builder) writeReadme() error {
	var sb strings.Builder
	sb.WriteString("# Project Documentation\n\n")
	fmt.Fprintf(&sb, "Generated on: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	sb.WriteString("## Table of Contents\n\n")
	sb.WriteString("1. [Project Overview](project-overview.md)\n")
	sb.WriteString("2. [Module Documentation](modules/)\n")
	sb.WriteString("3. [API Reference](api-reference.md)\n\n")
	sb.WriteString("## Quick Navigation\n\n")
	sb.WriteString("```\n")
	sb.WriteString(renderTree(buildTree(b.sortedPaths()), ""))
	sb.WriteString("```\n\n")
	sb.WriteString("## Documentation Statistics\n\n")
	fmt.Fprintf(&sb, "- Total Files Documented: %d\n", len(b.docs))
	fmt.Fprintf(&sb, "- Total Modules: %d\n", len(b.groupByModule()))
	fmt.Fprintf(&sb, "- Total Classes: %d\n", b.countClasses())
	fmt.Fprintf(&sb, "- Total Functions: %d\n", b.countFunctions())
	return os.WriteFile(filepath.Join(b.outputDir(), "README.md"), []byte(sb.String()), 0o644)
}

func (b *Builder) countClasses() int {
	n := 0
	for _, doc := range b.docs {
		if doc.Analysis != nil {
			n += len(doc.Analysis.Classes)
		}
	}
	return n
}

func (b *Builder) countFunctions() int {
	n := 0
	for _, doc := range b.docs {
		if doc.Analysis != nil {
			n += len(doc.Analysis.Functions)
		}
	}
	return n
}

// treeNode is the rendering shape for the README navigation block.
type treeNode struct {
	name     string
	isDir    bool
	children []*treeNode
}

func buildTree(paths []string) *treeNode {
	root := &treeNode{name: "", isDir: true}
	for _, p := range paths {
		node := root
		parts := strings.Split(p, "/")
		for i, part := range parts {
			child := node.find(part)
			if child == nil {
				child = &treeNode{name: part, isDir: i < len(parts)-1}
				node.children = append(node.children, child)
			}
			node = child
		}
	}
	return root
}

func (n *treeNode) find(name string) *treeNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func renderTree(node *treeNode, prefix string) string {
	var sb strings.Builder
	for i, child := range node.children {
		last := i == len(node.children)-1
		connector := "├── "
		extension := "│   "
		if last {
			connector = "└── "
			extension = "    "
		}
		name := child.name
		if child.isDir {
			name += "/"
		}
		sb.WriteString(prefix + connector + name + "\n")
		if child.isDir {
			sb.WriteString(renderTree(child, prefix+extension))
		}
	}
	return sb.String()
}

func (b *Builder) groupByModule() map[string][]string {
	modules := make(map[string][]string)
	for _, p := range b.sortedPaths() {
		module := path.Dir(p)
		if module == "." {
			module = "root"
		}
		modules[module] = append(modules[module], p)
	}
	return modules
}

func (b *Builder) writeModuleDocs() error {
	modulesDir := filepath.Join(b.outputDir(), "modules")
	if err := os.MkdirAll(modulesDir, 0o755); err != nil {
		return err
	}
	for module, files := range b.groupByModule() {
		if err := b.writeModuleDoc(modulesDir, module, files); err != nil {
			log.Printf("builder: module %s: %v", module, err)
		}
	}
	return nil
}

func (b *Builder) writeModuleDoc(modulesDir, module string, files []string) error {
	dir := filepath.Join(modulesDir, strings.ReplaceAll(module, "/", "_"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var classes, functions, loc int
	for _, f := range files {
		if a := b.docs[f].Analysis; a != nil {
			classes += len(a.Classes)
			functions += len(a.Functions)
			loc += a.LinesOfCode
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Module: %s\n\n", module)
	sb.WriteString("## Overview\n\n")
	fmt.Fprintf(&sb, "This module contains %d files with a total of:\n", len(files))
	fmt.Fprintf(&sb, "- %d classes\n", classes)
	fmt.Fprintf(&sb, "- %d functions\n", functions)
	fmt.Fprintf(&sb, "- %d lines of code\n\n", loc)
	sb.WriteString("## Files\n\n")

	for _, f := range files {
		doc := b.docs[f]
		fmt.Fprintf(&sb, "### %s\n\n", path.Base(f))
		prose := doc.Documentation
		if prose == "" {
			prose = "No documentation available."
		}
		sb.WriteString(prose + "\n\n")
		sb.WriteString("#### Code Analysis\n\n")
		sb.WriteString(formatAnalysis(doc.Analysis))
		sb.WriteString("\n---\n\n")
	}
	return os.WriteFile(filepath.Join(dir, "index.md"), []byte(sb.String()), 0o644)
}

func formatAnalysis(a *analyzer.Record) string {
	if a == nil {
		return "No analysis available.\n"
	}
	var sb strings.Builder
	if a.ModuleDoc != "" {
		summary := a.ModuleDoc
		if len(summary) > 200 {
			summary = summary[:200] + "..."
		}
		sb.WriteString("**Module Docstring:**\n")
		fmt.Fprintf(&sb, "> %s\n\n", summary)
	}
	fmt.Fprintf(&sb, "- **Lines of Code:** %d\n", a.LinesOfCode)
	fmt.Fprintf(&sb, "- **Classes:** %d\n", len(a.Classes))
	fmt.Fprintf(&sb, "- **Functions:** %d\n", len(a.Functions))
	fmt.Fprintf(&sb, "- **Complexity Score:** %d\n", a.Complexity)
	if len(a.Dependencies) > 0 {
		sb.WriteString("\n**Dependencies:**\n")
		for _, dep := range a.Dependencies {
			fmt.Fprintf(&sb, "- %s\n", dep)
		}
	}
	return sb.String()
}

func (b *Builder) writeAPIReference() error {
	var sb strings.Builder
	sb.WriteString("# API Reference\n\n")
	sb.WriteString("Complete API documentation for all classes and functions.\n\n")
	sb.WriteString("## Classes\n\n")

	type locatedClass struct {
		cls  analyzer.Class
		file string
	}
	type locatedFunc struct {
		fn   analyzer.Callable
		file string
	}
	var classes []locatedClass
	var functions []locatedFunc
	for _, f := range b.sortedPaths() {
		a := b.docs[f].Analysis
		if a == nil {
			continue
		}
		for _, cls := range a.Classes {
			classes = append(classes, locatedClass{cls, f})
		}
		for _, fn := range a.Functions {
			functions = append(functions, locatedFunc{fn, f})
		}
	}
	sort.SliceStable(classes, func(i, j int) bool { return classes[i].cls.Name < classes[j].cls.Name })
	sort.SliceStable(functions, func(i, j int) bool { return functions[i].fn.Name < functions[j].fn.Name })

	for _, c := range classes {
		writeClassReference(&sb, c.cls, c.file)
	}
	sb.WriteString("\n## Functions\n\n")
	for _, fn := range functions {
		writeFunctionReference(&sb, fn.fn, fn.file)
	}
	return os.WriteFile(filepath.Join(b.outputDir(), "api-reference.md"), []byte(sb.String()), 0o644)
}

func writeClassReference(sb *strings.Builder, cls analyzer.Class, file string) {
	fmt.Fprintf(sb, "### class %s\n", cls.Name)
	fmt.Fprintf(sb, "*File: %s*\n\n", file)
	if cls.Doc != "" {
		sb.WriteString(cls.Doc + "\n\n")
	}
	if len(cls.Bases) > 0 {
		fmt.Fprintf(sb, "**Inherits from:** %s\n\n", strings.Join(cls.Bases, ", "))
	}
	if len(cls.Methods) > 0 {
		sb.WriteString("**Methods:**\n\n")
		for _, m := range cls.Methods {
			var args []string
			for _, p := range m.Params {
				if p.Name == "self" {
					continue
				}
				args = append(args, p.Name)
			}
			line := fmt.Sprintf("- `%s(%s)`", m.Name, strings.Join(args, ", "))
			if m.Doc != "" {
				line += " - " + firstLine(m.Doc)
			}
			sb.WriteString(line + "\n")
		}
	}
	sb.WriteString("\n---\n\n")
}

func writeFunctionReference(sb *strings.Builder, fn analyzer.Callable, file string) {
	fmt.Fprintf(sb, "### %s\n", fn.Name)
	fmt.Fprintf(sb, "*File: %s*\n\n", file)

	var args []string
	for _, p := range fn.Params {
		arg := p.Name
		if p.Annotation != "" {
			arg += ": " + p.Annotation
		}
		args = append(args, arg)
	}
	sig := fmt.Sprintf("`%s(%s)", fn.Name, strings.Join(args, ", "))
	if fn.Returns != "" {
		sig += " -> " + fn.Returns
	}
	sig += "`"
	sb.WriteString(sig + "\n\n")

	if fn.Doc != "" {
		sb.WriteString(fn.Doc + "\n\n")
	}
	if len(fn.Decorators) > 0 {
		fmt.Fprintf(sb, "**Decorators:** %s\n\n", strings.Join(fn.Decorators, ", "))
	}
	if len(fn.Raises) > 0 {
		fmt.Fprintf(sb, "**Raises:** %s\n\n", strings.Join(fn.Raises, ", "))
	}
	sb.WriteString("---\n\n")
}

func (b *Builder) writeProjectOverview() error {
	var sb strings.Builder
	sb.WriteString("# Project Overview\n\n")
	sb.WriteString("## Architecture\n\n")
	sb.WriteString(b.describeArchitecture() + "\n\n")
	sb.WriteString("## Dependencies\n\n")
	sb.WriteString(b.describeDependencies() + "\n\n")
	sb.WriteString("## Key Components\n\n")
	sb.WriteString(b.describeKeyComponents() + "\n\n")
	sb.WriteString("## Design Patterns\n\n")
	sb.WriteString(b.describeDesignPatterns() + "\n")
	return os.WriteFile(filepath.Join(b.outputDir(), "project-overview.md"), []byte(sb.String()), 0o644)
}

func (b *Builder) describeArchitecture() string {
	layers := []string{"api", "application", "domain", "infrastructure", "core"}
	var lines []string
	for _, layer := range layers {
		count := 0
		for _, p := range b.sortedPaths() {
			if strings.HasPrefix(p, layer+"/") || strings.Contains(p, "/"+layer+"/") {
				count++
			}
		}
		if count > 0 {
			lines = append(lines, fmt.Sprintf("- **%s Layer:** %d files", strings.ToUpper(layer[:1])+layer[1:], count))
		}
	}
	if len(lines) == 0 {
		return "Architecture analysis not available."
	}
	return strings.Join(lines, "\n")
}

func (b *Builder) describeDependencies() string {
	deps := make(map[string]struct{})
	for _, doc := range b.docs {
		if doc.Analysis == nil {
			continue
		}
		for _, dep := range doc.Analysis.Dependencies {
			deps[dep] = struct{}{}
		}
	}
	if len(deps) == 0 {
		return "No external dependencies identified."
	}
	sorted := make([]string, 0, len(deps))
	for d := range deps {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)
	var lines []string
	for _, d := range sorted {
		lines = append(lines, "- "+d)
	}
	return strings.Join(lines, "\n")
}

func (b *Builder) describeKeyComponents() string {
	count := func(needle ...string) int {
		n := 0
		for _, p := range b.sortedPaths() {
			lower := strings.ToLower(p)
			for _, s := range needle {
				if strings.Contains(lower, s) {
					n++
					break
				}
			}
		}
		return n
	}
	var lines []string
	if n := count("service"); n > 0 {
		lines = append(lines, fmt.Sprintf("- **Services:** %d service modules identified", n))
	}
	if n := count("controller"); n > 0 {
		lines = append(lines, fmt.Sprintf("- **Controllers:** %d controller modules identified", n))
	}
	if n := count("entity", "model"); n > 0 {
		lines = append(lines, fmt.Sprintf("- **Domain Entities:** %d entity modules identified", n))
	}
	if len(lines) == 0 {
		return "Component analysis in progress."
	}
	return strings.Join(lines, "\n")
}

func (b *Builder) describeDesignPatterns() string {
	patterns := make(map[string]struct{})
	for _, doc := range b.docs {
		a := doc.Analysis
		if a == nil {
			continue
		}
		for _, d := range a.DecoratorsSeen {
			switch d {
			case "property":
				patterns["Property decorators for encapsulation"] = struct{}{}
			case "classmethod", "staticmethod":
				patterns["Class and static methods for alternative constructors"] = struct{}{}
			}
		}
		for _, cls := range a.Classes {
			for _, base := range cls.Bases {
				if strings.Contains(base, "Abstract") || strings.Contains(base, "Base") {
					patterns["Abstract base classes for interface definition"] = struct{}{}
				}
			}
		}
	}
	if len(patterns) == 0 {
		return "Pattern analysis in progress."
	}
	sorted := make([]string, 0, len(patterns))
	for p := range patterns {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)
	var lines []string
	for _, p := range sorted {
		lines = append(lines, "- "+p)
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
