package analyzer

import (
	"strings"
	"testing"
)

const sampleSource = `"""Utility helpers."""

import os
import numpy as np
from typing import Optional
from . import sibling

MAX_RETRIES = 3
DEFAULT_NAME = "worker"
lowercase_binding = 1

class BaseError(Exception):
    """Base failure."""

    code: int = 0

    def describe(self) -> str:
        return str(self.code)

@dataclass
class Task:
    name: str

    @property
    def label(self) -> str:
        return self.name

    @staticmethod
    def parse(raw: dict) -> "Task":
        if not raw:
            raise ValueError("empty")
        return Task(raw["name"])

def run(task: Task, retries: int = 1) -> Optional[str]:
    """Run a task."""
    return task.label

async def stream(items):
    for item in items:
        yield item

if __name__ == "__main__":
    run(Task({"name": "x"}))
`

func analyzeSample(t *testing.T) *Record {
	t.Helper()
	rec := New().Analyze("sample.py", []byte(sampleSource))
	if rec.ParseError != "" || rec.AnalysisError != "" {
		t.Fatalf("unexpected errors: parse=%q analysis=%q", rec.ParseError, rec.AnalysisError)
	}
	return rec
}

func findClass(t *testing.T, rec *Record, name string) Class {
	t.Helper()
	for _, cls := range rec.Classes {
		if cls.Name == name {
			return cls
		}
	}
	t.Fatalf("class %s not found", name)
	return Class{}
}

func findFunc(t *testing.T, fns []Callable, name string) Callable {
	t.Helper()
	for _, fn := range fns {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("callable %s not found", name)
	return Callable{}
}

func TestAnalyzeModuleLevel(t *testing.T) {
	rec := analyzeSample(t)

	if rec.ModuleDoc != "Utility helpers." {
		t.Errorf("module doc = %q", rec.ModuleDoc)
	}
	if !rec.HasMainGuard {
		t.Error("main guard not detected")
	}
	if len(rec.Constants) != 2 {
		t.Fatalf("constants = %v", rec.Constants)
	}
	if rec.Constants[0].Name != "MAX_RETRIES" || rec.Constants[0].ValueKind != "int" {
		t.Errorf("first constant = %+v", rec.Constants[0])
	}
	if rec.Constants[1].Name != "DEFAULT_NAME" || rec.Constants[1].ValueKind != "str" {
		t.Errorf("second constant = %+v", rec.Constants[1])
	}
	if rec.LinesOfCode != strings.Count(sampleSource, "\n") {
		t.Errorf("loc = %d", rec.LinesOfCode)
	}
}

func TestAnalyzeImports(t *testing.T) {
	rec := analyzeSample(t)

	if len(rec.Imports) != 4 {
		t.Fatalf("imports = %+v", rec.Imports)
	}
	if rec.Imports[0].Kind != ImportDirect || rec.Imports[0].Module != "os" {
		t.Errorf("os import = %+v", rec.Imports[0])
	}
	if rec.Imports[1].Module != "numpy" || rec.Imports[1].Alias != "np" {
		t.Errorf("aliased import = %+v", rec.Imports[1])
	}
	if rec.Imports[2].Kind != ImportFrom || rec.Imports[2].Module != "typing" || rec.Imports[2].Name != "Optional" {
		t.Errorf("from import = %+v", rec.Imports[2])
	}
	rel := rec.Imports[3]
	if rel.Level != 1 || rel.Module != "" || rel.Name != "sibling" {
		t.Errorf("relative import = %+v", rel)
	}

	// os and typing are stdlib, the relative import has no root module.
	if len(rec.Dependencies) != 1 || rec.Dependencies[0] != "numpy" {
		t.Errorf("dependencies = %v", rec.Dependencies)
	}
}

func TestAnalyzeClasses(t *testing.T) {
	rec := analyzeSample(t)

	base := findClass(t, rec, "BaseError")
	if !base.IsException {
		t.Error("BaseError not flagged as exception")
	}
	if base.Doc != "Base failure." {
		t.Errorf("docstring = %q", base.Doc)
	}
	if len(base.Fields) != 1 || base.Fields[0].Name != "code" || base.Fields[0].Type != "int" || !base.Fields[0].HasDefault {
		t.Errorf("fields = %+v", base.Fields)
	}
	describe := findFunc(t, base.Methods, "describe")
	if !describe.IsMethod || describe.Returns != "str" {
		t.Errorf("describe = %+v", describe)
	}

	task := findClass(t, rec, "Task")
	if len(task.Decorators) != 1 || task.Decorators[0] != "dataclass" {
		t.Errorf("decorators = %v", task.Decorators)
	}
	label := findFunc(t, task.Methods, "label")
	if !label.IsProperty {
		t.Error("label not flagged as property")
	}
	parse := findFunc(t, task.Methods, "parse")
	if !parse.IsStaticMethod {
		t.Error("parse not flagged as staticmethod")
	}
	// Forward-reference annotations lose their quotes.
	if parse.Returns != "Task" {
		t.Errorf("parse returns = %q", parse.Returns)
	}
	if len(parse.Raises) != 1 || parse.Raises[0] != "ValueError" {
		t.Errorf("parse raises = %v", parse.Raises)
	}
}

func TestAnalyzeFunctions(t *testing.T) {
	rec := analyzeSample(t)

	run := findFunc(t, rec.Functions, "run")
	if run.Doc != "Run a task." {
		t.Errorf("docstring = %q", run.Doc)
	}
	if run.Returns != "Optional[str]" {
		t.Errorf("returns = %q", run.Returns)
	}
	if len(run.Params) != 2 {
		t.Fatalf("params = %+v", run.Params)
	}
	if run.Params[0].Name != "task" || run.Params[0].Annotation != "Task" {
		t.Errorf("first param = %+v", run.Params[0])
	}
	if run.Params[1].Name != "retries" || !run.Params[1].HasDefault {
		t.Errorf("second param = %+v", run.Params[1])
	}

	stream := findFunc(t, rec.Functions, "stream")
	if !stream.IsAsync {
		t.Error("stream not flagged async")
	}
	if !stream.IsGenerator {
		t.Error("stream not flagged as generator")
	}
}

func TestAnalyzeComplexityAndDecorators(t *testing.T) {
	rec := analyzeSample(t)

	want := []string{"dataclass", "property", "staticmethod"}
	if len(rec.DecoratorsSeen) != len(want) {
		t.Fatalf("decorators seen = %v", rec.DecoratorsSeen)
	}
	for i, d := range want {
		if rec.DecoratorsSeen[i] != d {
			t.Errorf("decorator[%d] = %q, want %q", i, rec.DecoratorsSeen[i], d)
		}
	}

	// 2 classes, 3 methods, 2 top-level functions, 3 distinct decorators.
	if rec.Complexity != 2*5+3+2*2+3 {
		t.Errorf("complexity = %d", rec.Complexity)
	}
}

func TestAnalyzeConditionalImports(t *testing.T) {
	src := `from typing import TYPE_CHECKING

try:
    import ujson as json
except ImportError:
    import json

if TYPE_CHECKING:
    import requests

def load(path):
    import yaml
    return yaml.safe_load(path)
`
	rec := New().Analyze("cond.py", []byte(src))
	if rec.ParseError != "" || rec.AnalysisError != "" {
		t.Fatalf("unexpected errors: parse=%q analysis=%q", rec.ParseError, rec.AnalysisError)
	}

	modules := make(map[string]bool)
	for _, imp := range rec.Imports {
		modules[imp.Module] = true
	}
	for _, want := range []string{"ujson", "json", "requests"} {
		if !modules[want] {
			t.Errorf("conditional import %s not recorded: %+v", want, rec.Imports)
		}
	}
	// Imports local to a function body stay invisible.
	if modules["yaml"] {
		t.Errorf("function-local import recorded: %+v", rec.Imports)
	}

	if len(rec.Dependencies) != 2 || rec.Dependencies[0] != "requests" || rec.Dependencies[1] != "ujson" {
		t.Errorf("dependencies = %v", rec.Dependencies)
	}
}

func TestAnalyzeComplexityExample(t *testing.T) {
	src := `class Service:
    @property
    def name(self):
        return "svc"

    @staticmethod
    def build():
        return Service()

    def run(self):
        pass

@cached
def top():
    pass

def other():
    pass
`
	rec := New().Analyze("c.py", []byte(src))
	// 1 class with 3 members, 2 functions, 3 distinct decorators.
	if rec.Complexity != 15 {
		t.Errorf("complexity = %d, want 15", rec.Complexity)
	}
}

func TestAnalyzeSyntaxError(t *testing.T) {
	rec := New().Analyze("broken.py", []byte("def broken(:\n    pass\n"))
	if rec.ParseError == "" {
		t.Fatal("expected parse error")
	}
	if len(rec.Classes) != 0 || len(rec.Functions) != 0 {
		t.Errorf("structural fields populated despite parse error: %+v", rec)
	}
	if rec.LinesOfCode != 2 {
		t.Errorf("loc = %d", rec.LinesOfCode)
	}
}

func TestAnalyzeVarargsAndKwargs(t *testing.T) {
	src := "def call(*args, **kwargs):\n    pass\n"
	rec := New().Analyze("v.py", []byte(src))
	fn := findFunc(t, rec.Functions, "call")
	if len(fn.Params) != 2 {
		t.Fatalf("params = %+v", fn.Params)
	}
	if fn.Params[0].Kind != ParamVararg || fn.Params[0].Name != "args" {
		t.Errorf("vararg = %+v", fn.Params[0])
	}
	if fn.Params[1].Kind != ParamKwarg || fn.Params[1].Name != "kwargs" {
		t.Errorf("kwarg = %+v", fn.Params[1])
	}
}

func TestAnalyzeYieldFrom(t *testing.T) {
	src := "def chain(a, b):\n    yield from a\n    yield from b\n"
	rec := New().Analyze("g.py", []byte(src))
	if !findFunc(t, rec.Functions, "chain").IsGenerator {
		t.Error("yield from not detected as generator")
	}
}

func TestAnalyzeMainGuardShape(t *testing.T) {
	cases := map[string]bool{
		"if __name__ == \"__main__\":\n    pass\n":     true,
		"if __name__ == '__main__':\n    pass\n":       true,
		"if \"__main__\" == __name__:\n    pass\n":     false,
		"if __name__ != \"__main__\":\n    pass\n":     false,
		"if __name__ == \"__not_main__\":\n    pass\n": false,
	}
	for src, want := range cases {
		rec := New().Analyze("m.py", []byte(src))
		if rec.HasMainGuard != want {
			t.Errorf("main guard for %q = %v, want %v", src, rec.HasMainGuard, want)
		}
	}
}

func TestCountLines(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"x = 1", 1},
		{"x = 1\n", 1},
		{"x = 1\ny = 2\n", 2},
	}
	for _, tc := range cases {
		if got := countLines([]byte(tc.in)); got != tc.want {
			t.Errorf("countLines(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestIsConstantName(t *testing.T) {
	cases := map[string]bool{
		"MAX_RETRIES": true,
		"_PRIVATE":    true,
		"API_KEY_V2":  true,
		"MAXRETRIES":  false,
		"Max_Retries": false,
		"__all__":     false,
	}
	for name, want := range cases {
		if got := isConstantName(name); got != want {
			t.Errorf("isConstantName(%q) = %v, want %v", name, got, want)
		}
	}
}
