package analyzer

// Record is the normalized structural description of one source file. It is
// produced fresh on every analysis and is never merged with prior records.
type Record struct {
	Path        string     `json:"path"`
	ModuleDoc   string     `json:"module_doc,omitempty"`
	Imports     []Import   `json:"imports"`
	Classes     []Class    `json:"classes"`
	Functions   []Callable `json:"functions"`
	Constants   []Constant `json:"constants"`
	LinesOfCode int        `json:"loc"`
	Complexity  int        `json:"complexity"`
	// HasMainGuard is true when the file contains a top-level
	// `if __name__ == "__main__":` guard.
	HasMainGuard bool `json:"has_main"`
	// Dependencies lists top-level module names of absolute imports that are
	// not in the standard-library set. Sorted.
	Dependencies   []string `json:"dependencies"`
	DecoratorsSeen []string `json:"decorators_used"`

	// ParseError is set when the source could not be parsed; only
	// LinesOfCode is meaningful in that case. AnalysisError covers
	// unexpected traversal failures. Exactly one of the two may be set.
	ParseError    string `json:"parse_error,omitempty"`
	AnalysisError string `json:"analysis_error,omitempty"`
}

// ImportKind distinguishes `import x` from `from x import y`.
type ImportKind string

const (
	ImportDirect ImportKind = "import"
	ImportFrom   ImportKind = "from"
)

// Import describes a single imported binding.
type Import struct {
	Kind   ImportKind `json:"kind"`
	Module string     `json:"module"`
	// Name is the imported symbol for from-imports; empty otherwise.
	Name  string `json:"name,omitempty"`
	Alias string `json:"alias,omitempty"`
	Line  int    `json:"line"`
	// Level is the relative-import depth: 0 for absolute imports, one per
	// leading dot otherwise.
	Level int `json:"level"`
}

// Class describes a declared type and its members.
type Class struct {
	Name       string     `json:"name"`
	Line       int        `json:"line"`
	Doc        string     `json:"docstring,omitempty"`
	Bases      []string   `json:"bases"`
	Decorators []string   `json:"decorators"`
	Methods    []Callable `json:"methods"`
	Fields     []Field    `json:"fields"`
	// IsException is true when any base name contains "Exception" or
	// "Error".
	IsException bool   `json:"is_exception"`
	Metaclass   string `json:"metaclass,omitempty"`
}

// Field is an annotated class-level attribute.
type Field struct {
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Line       int    `json:"line"`
	HasDefault bool   `json:"has_default"`
}

// ParamKind classifies how a parameter binds its argument.
type ParamKind string

const (
	ParamPositional ParamKind = "positional"
	ParamVararg     ParamKind = "vararg"
	ParamKwarg      ParamKind = "kwarg"
)

// Param is one parameter of a callable.
type Param struct {
	Name       string    `json:"name"`
	Kind       ParamKind `json:"kind"`
	Annotation string    `json:"annotation,omitempty"`
	HasDefault bool      `json:"has_default,omitempty"`
}

// Callable describes a function or method.
type Callable struct {
	Name       string   `json:"name"`
	Line       int      `json:"line"`
	Doc        string   `json:"docstring,omitempty"`
	Decorators []string `json:"decorators"`
	Params     []Param  `json:"params"`
	Returns    string   `json:"returns,omitempty"`
	IsAsync    bool     `json:"is_async"`
	// IsGenerator is true when a yield expression occurs anywhere in the
	// body, at any nesting depth.
	IsGenerator bool `json:"is_generator"`
	// Raises holds names of raised error types, deduplicated and sorted.
	Raises []string `json:"raises"`

	IsMethod       bool `json:"is_method"`
	IsClassMethod  bool `json:"is_classmethod,omitempty"`
	IsStaticMethod bool `json:"is_staticmethod,omitempty"`
	IsProperty     bool `json:"is_property,omitempty"`
}

// Constant is an UPPER_SNAKE module-level binding.
type Constant struct {
	Name string `json:"name"`
	Line int    `json:"line"`
	// ValueKind is the runtime category of the assigned value, e.g. "str",
	// "int", "list", "call".
	ValueKind string `json:"value_type"`
}

// complexity applies the fixed scoring formula: 5 per class, 1 per method,
// 2 per top-level function, 1 per distinct decorator seen.
func (r *Record) complexity() int {
	score := 0
	for _, cls := range r.Classes {
		score += 5
		score += len(cls.Methods)
	}
	score += len(r.Functions) * 2
	score += len(r.DecoratorsSeen)
	return score
}
