package analyzer

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Analyzer extracts structural records from Python source without executing
// it. The zero value is ready to use; instances are safe for concurrent use
// since every Analyze call builds its own parser.
type Analyzer struct{}

// New returns a ready-to-use analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze parses content and returns its structural record. It never fails:
// unparseable input yields a record with ParseError set and only LinesOfCode
// populated, and any unexpected traversal fault is captured in AnalysisError.
// Callers batch many files and a single bad one must not abort the batch.
func (a *Analyzer) Analyze(path string, content []byte) *Record {
	rec := emptyRecord(path)
	rec.LinesOfCode = countLines(content)

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		rec.ParseError = err.Error()
		return rec
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		rec.ParseError = "source contains syntax errors"
		log.Printf("analyzer: syntax error in %s", path)
		return rec
	}

	a.traverse(root, content, rec)
	return rec
}

// traverse walks the tree, converting any panic into an analysis error so the
// total-function contract of Analyze holds.
func (a *Analyzer) traverse(root *sitter.Node, src []byte, rec *Record) {
	defer func() {
		if r := recover(); r != nil {
			loc := rec.LinesOfCode
			*rec = *emptyRecord(rec.Path)
			rec.LinesOfCode = loc
			rec.AnalysisError = fmt.Sprintf("%v", r)
			log.Printf("analyzer: traversal failed for %s: %v", rec.Path, r)
		}
	}()

	w := &walker{
		src:   src,
		rec:   rec,
		deps:  make(map[string]struct{}),
		decos: make(map[string]struct{}),
	}
	w.module(root)

	rec.Dependencies = sortedKeys(w.deps)
	rec.DecoratorsSeen = sortedKeys(w.decos)
	rec.Complexity = rec.complexity()
}

func emptyRecord(path string) *Record {
	return &Record{
		Path:           path,
		Imports:        []Import{},
		Classes:        []Class{},
		Functions:      []Callable{},
		Constants:      []Constant{},
		Dependencies:   []string{},
		DecoratorsSeen: []string{},
	}
}

// classCtx carries the enclosing-type context through the traversal, so
// callables encountered inside a class body are attached as methods instead
// of top-level functions.
type classCtx struct {
	inClass bool
	name    string
}

type walker struct {
	src   []byte
	rec   *Record
	deps  map[string]struct{}
	decos map[string]struct{}
}

func (w *walker) module(root *sitter.Node) {
	w.rec.ModuleDoc = docstringOf(root, w.src)
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "import_statement":
			w.importStatement(stmt)
		case "import_from_statement":
			w.importFromStatement(stmt)
		case "class_definition":
			w.class(stmt, nil)
		case "function_definition":
			w.rec.Functions = append(w.rec.Functions, w.callable(stmt, nil, classCtx{}))
		case "decorated_definition":
			w.decorated(stmt, classCtx{}, nil)
		case "if_statement":
			if w.isMainGuard(stmt) {
				w.rec.HasMainGuard = true
			}
			w.nestedImports(stmt)
		case "try_statement", "with_statement", "for_statement", "while_statement":
			w.nestedImports(stmt)
		case "expression_statement":
			w.moduleConstant(stmt)
		}
	}
}

// nestedImports records imports declared inside compound statements:
// try/except fallbacks and TYPE_CHECKING blocks still bind at module level.
// Function bodies are not descended into.
func (w *walker) nestedImports(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "import_statement":
			w.importStatement(child)
		case "import_from_statement":
			w.importFromStatement(child)
		case "function_definition", "lambda":
		default:
			w.nestedImports(child)
		}
	}
}

func (w *walker) importStatement(node *sitter.Node) {
	line := lineOf(node)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			module := textOf(child, w.src)
			w.rec.Imports = append(w.rec.Imports, Import{
				Kind:   ImportDirect,
				Module: module,
				Line:   line,
			})
			w.addDependency(module)
		case "aliased_import":
			module := textOf(child.ChildByFieldName("name"), w.src)
			w.rec.Imports = append(w.rec.Imports, Import{
				Kind:   ImportDirect,
				Module: module,
				Alias:  textOf(child.ChildByFieldName("alias"), w.src),
				Line:   line,
			})
			w.addDependency(module)
		}
	}
}

func (w *walker) importFromStatement(node *sitter.Node) {
	line := lineOf(node)
	module := ""
	level := 0
	if mod := node.ChildByFieldName("module_name"); mod != nil {
		if mod.Type() == "relative_import" {
			for i := 0; i < int(mod.ChildCount()); i++ {
				part := mod.Child(i)
				switch part.Type() {
				case "import_prefix":
					level = strings.Count(textOf(part, w.src), ".")
				case "dotted_name":
					module = textOf(part, w.src)
				}
			}
		} else {
			module = textOf(mod, w.src)
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "wildcard_import" {
			w.rec.Imports = append(w.rec.Imports, Import{
				Kind: ImportFrom, Module: module, Name: "*", Line: line, Level: level,
			})
			continue
		}
		if node.FieldNameForChild(i) != "name" {
			continue
		}
		imp := Import{Kind: ImportFrom, Module: module, Line: line, Level: level}
		switch child.Type() {
		case "dotted_name":
			imp.Name = textOf(child, w.src)
		case "aliased_import":
			imp.Name = textOf(child.ChildByFieldName("name"), w.src)
			imp.Alias = textOf(child.ChildByFieldName("alias"), w.src)
		default:
			continue
		}
		w.rec.Imports = append(w.rec.Imports, imp)
	}

	// Relative imports never contribute external dependencies.
	if level == 0 && module != "" {
		w.addDependency(module)
	}
}

func (w *walker) addDependency(module string) {
	root := module
	if idx := strings.IndexByte(module, '.'); idx >= 0 {
		root = module[:idx]
	}
	if root != "" && !isStdlibModule(root) {
		w.deps[root] = struct{}{}
	}
}

// decorated handles a decorated_definition: the decorators apply to the
// wrapped class or function. When cls is non-nil the wrapped callable is
// appended to that class.
func (w *walker) decorated(node *sitter.Node, ctx classCtx, cls *Class) {
	var decorators []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		if child.NamedChildCount() > 0 {
			if name := decoratorName(child.NamedChild(0), w.src); name != "" {
				decorators = append(decorators, name)
			}
		}
	}
	def := node.ChildByFieldName("definition")
	if def == nil {
		return
	}
	switch def.Type() {
	case "class_definition":
		w.class(def, decorators)
	case "function_definition":
		fn := w.callable(def, decorators, ctx)
		if cls != nil {
			cls.Methods = append(cls.Methods, fn)
		} else {
			w.rec.Functions = append(w.rec.Functions, fn)
		}
	}
}

func (w *walker) class(node *sitter.Node, decorators []string) {
	if decorators == nil {
		decorators = []string{}
	}
	for _, d := range decorators {
		w.decos[d] = struct{}{}
	}
	cls := Class{
		Name:       textOf(node.ChildByFieldName("name"), w.src),
		Line:       lineOf(node),
		Bases:      []string{},
		Decorators: decorators,
		Methods:    []Callable{},
		Fields:     []Field{},
	}

	if args := node.ChildByFieldName("superclasses"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			switch arg.Type() {
			case "identifier", "attribute":
				cls.Bases = append(cls.Bases, textOf(arg, w.src))
			case "keyword_argument":
				if textOf(arg.ChildByFieldName("name"), w.src) == "metaclass" {
					cls.Metaclass = simpleName(arg.ChildByFieldName("value"), w.src)
				}
			}
		}
	}
	for _, base := range cls.Bases {
		if strings.Contains(base, "Exception") || strings.Contains(base, "Error") {
			cls.IsException = true
			break
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		cls.Doc = docstringOf(body, w.src)
		ctx := classCtx{inClass: true, name: cls.Name}
		for i := 0; i < int(body.NamedChildCount()); i++ {
			stmt := body.NamedChild(i)
			switch stmt.Type() {
			case "import_statement":
				w.importStatement(stmt)
			case "import_from_statement":
				w.importFromStatement(stmt)
			case "function_definition":
				cls.Methods = append(cls.Methods, w.callable(stmt, nil, ctx))
			case "decorated_definition":
				w.decorated(stmt, ctx, &cls)
			case "class_definition":
				// Nested types are recorded alongside top-level ones.
				w.class(stmt, nil)
			case "expression_statement":
				w.classField(stmt, &cls)
			}
		}
	}

	w.rec.Classes = append(w.rec.Classes, cls)
}

// classField records annotated class-level attributes.
func (w *walker) classField(stmt *sitter.Node, cls *Class) {
	if stmt.NamedChildCount() == 0 {
		return
	}
	assign := stmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return
	}
	left := assign.ChildByFieldName("left")
	typ := assign.ChildByFieldName("type")
	if left == nil || left.Type() != "identifier" || typ == nil {
		return
	}
	cls.Fields = append(cls.Fields, Field{
		Name:       textOf(left, w.src),
		Type:       renderAnnotation(typ, w.src),
		Line:       lineOf(assign),
		HasDefault: assign.ChildByFieldName("right") != nil,
	})
}

func (w *walker) callable(node *sitter.Node, decorators []string, ctx classCtx) Callable {
	if decorators == nil {
		decorators = []string{}
	}
	for _, d := range decorators {
		w.decos[d] = struct{}{}
	}
	fn := Callable{
		Name:       textOf(node.ChildByFieldName("name"), w.src),
		Line:       lineOf(node),
		Decorators: decorators,
		Params:     []Param{},
		Raises:     []string{},
		IsMethod:   ctx.inClass,
	}
	if first := node.Child(0); first != nil && first.Type() == "async" {
		fn.IsAsync = true
	}
	fn.Params = w.params(node.ChildByFieldName("parameters"))
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		fn.Returns = renderAnnotation(ret, w.src)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		fn.Doc = docstringOf(body, w.src)
		fn.IsGenerator = containsNodeType(body, "yield")
		fn.Raises = w.raisedNames(body)
	}
	if ctx.inClass {
		for _, d := range fn.Decorators {
			switch d {
			case "classmethod":
				fn.IsClassMethod = true
			case "staticmethod":
				fn.IsStaticMethod = true
			case "property":
				fn.IsProperty = true
			}
		}
	}
	return fn
}

func (w *walker) params(node *sitter.Node) []Param {
	params := []Param{}
	if node == nil {
		return params
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		p := node.NamedChild(i)
		switch p.Type() {
		case "identifier":
			params = append(params, Param{Name: textOf(p, w.src), Kind: ParamPositional})
		case "typed_parameter":
			param := Param{Kind: ParamPositional, Annotation: renderAnnotation(p.ChildByFieldName("type"), w.src)}
			if p.NamedChildCount() > 0 {
				pattern := p.NamedChild(0)
				switch pattern.Type() {
				case "identifier":
					param.Name = textOf(pattern, w.src)
				case "list_splat_pattern":
					param.Name = splatName(pattern, w.src)
					param.Kind = ParamVararg
				case "dictionary_splat_pattern":
					param.Name = splatName(pattern, w.src)
					param.Kind = ParamKwarg
				}
			}
			if param.Name != "" {
				params = append(params, param)
			}
		case "default_parameter":
			params = append(params, Param{
				Name:       textOf(p.ChildByFieldName("name"), w.src),
				Kind:       ParamPositional,
				HasDefault: true,
			})
		case "typed_default_parameter":
			params = append(params, Param{
				Name:       textOf(p.ChildByFieldName("name"), w.src),
				Kind:       ParamPositional,
				Annotation: renderAnnotation(p.ChildByFieldName("type"), w.src),
				HasDefault: true,
			})
		case "list_splat_pattern":
			params = append(params, Param{Name: splatName(p, w.src), Kind: ParamVararg})
		case "dictionary_splat_pattern":
			params = append(params, Param{Name: splatName(p, w.src), Kind: ParamKwarg})
		}
	}
	return params
}

// raisedNames collects raised error-type names from anywhere in the body:
// bare identifiers and called constructors resolve, everything else is
// omitted. Duplicates collapse and the result is sorted.
func (w *walker) raisedNames(body *sitter.Node) []string {
	seen := make(map[string]struct{})
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "raise_statement" && n.NamedChildCount() > 0 {
			raised := n.NamedChild(0)
			name := ""
			switch raised.Type() {
			case "identifier":
				name = textOf(raised, w.src)
			case "call":
				name = simpleName(raised.ChildByFieldName("function"), w.src)
			}
			if name != "" {
				seen[name] = struct{}{}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(body)
	return sortedKeys(seen)
}

// moduleConstant records UPPER_SNAKE module-level assignments.
func (w *walker) moduleConstant(stmt *sitter.Node) {
	if stmt.NamedChildCount() == 0 {
		return
	}
	assign := stmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return
	}
	left := assign.ChildByFieldName("left")
	right := assign.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "identifier" {
		return
	}
	name := textOf(left, w.src)
	if !isConstantName(name) {
		return
	}
	w.rec.Constants = append(w.rec.Constants, Constant{
		Name:      name,
		Line:      lineOf(assign),
		ValueKind: valueKind(right),
	})
}

// isMainGuard matches the exact shape `if __name__ == "__main__":` — the
// name must be the left operand and the comparison a single equality.
func (w *walker) isMainGuard(node *sitter.Node) bool {
	cond := node.ChildByFieldName("condition")
	if cond == nil || cond.Type() != "comparison_operator" {
		return false
	}
	if cond.NamedChildCount() != 2 {
		return false
	}
	ops := 0
	for i := 0; i < int(cond.ChildCount()); i++ {
		child := cond.Child(i)
		if child.IsNamed() {
			continue
		}
		switch child.Type() {
		case "==":
			ops++
		case "!=", "<", ">", "<=", ">=", "in", "not", "is":
			return false
		}
	}
	if ops != 1 {
		return false
	}
	left := cond.NamedChild(0)
	right := cond.NamedChild(1)
	if left.Type() != "identifier" || textOf(left, w.src) != "__name__" {
		return false
	}
	return right.Type() == "string" && stripQuotes(textOf(right, w.src)) == "__main__"
}

// docstringOf returns the docstring of a module or block node: the string
// literal that forms the first statement, skipping comments.
func docstringOf(body *sitter.Node, src []byte) string {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			return ""
		}
		str := stmt.NamedChild(0)
		if str.Type() != "string" {
			return ""
		}
		return strings.TrimSpace(stripQuotes(textOf(str, src)))
	}
	return ""
}

func containsNodeType(node *sitter.Node, nodeType string) bool {
	if node.Type() == nodeType {
		return true
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if containsNodeType(node.Child(i), nodeType) {
			return true
		}
	}
	return false
}

// valueKind maps a value expression to its runtime category.
func valueKind(node *sitter.Node) string {
	switch node.Type() {
	case "string", "concatenated_string":
		return "str"
	case "integer":
		return "int"
	case "float":
		return "float"
	case "true", "false":
		return "bool"
	case "none":
		return "NoneType"
	case "list", "list_comprehension":
		return "list"
	case "dictionary", "dictionary_comprehension":
		return "dict"
	case "set", "set_comprehension":
		return "set"
	case "tuple":
		return "tuple"
	case "call":
		return "call"
	case "unary_operator":
		if node.NamedChildCount() > 0 {
			return valueKind(node.NamedChild(0))
		}
		return "expression"
	default:
		return node.Type()
	}
}

// isConstantName reports whether a binding name is UPPER_SNAKE: it must
// contain an underscore and at least one upper-case letter, and no
// lower-case letters.
func isConstantName(name string) bool {
	if !strings.ContainsRune(name, '_') {
		return false
	}
	hasUpper := false
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasUpper = true
		}
	}
	return hasUpper
}

func splatName(pattern *sitter.Node, src []byte) string {
	for i := 0; i < int(pattern.NamedChildCount()); i++ {
		if pattern.NamedChild(i).Type() == "identifier" {
			return textOf(pattern.NamedChild(i), src)
		}
	}
	return ""
}

func lineOf(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// countLines mirrors splitlines semantics: a trailing newline does not add
// an empty final line.
func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := strings.Count(string(content), "\n")
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
