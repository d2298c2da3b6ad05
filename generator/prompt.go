package generator

import (
	"fmt"
	"path"
	"strings"

	"github.com/lexcodex/docsmith/analyzer"
)

// maxPromptContent caps how much raw source is embedded in a prompt so one
// oversized file cannot blow the context window.
const maxPromptContent = 10000

func buildPrompt(rel, content string, rec *analyzer.Record) string {
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent] + "\n... (truncated)"
	}

	var sb strings.Builder
	sb.WriteString("Please generate comprehensive documentation for the following Python file.\n\n")
	fmt.Fprintf(&sb, "File Path: %s\n", rel)
	fmt.Fprintf(&sb, "File Type: %s\n\n", path.Ext(rel))
	sb.WriteString("Code Analysis:\n")
	fmt.Fprintf(&sb, "- Classes: %d\n", len(rec.Classes))
	fmt.Fprintf(&sb, "- Functions: %d\n", len(rec.Functions))
	fmt.Fprintf(&sb, "- Imports: %d\n", len(rec.Imports))
	fmt.Fprintf(&sb, "- Lines of Code: %d\n\n", rec.LinesOfCode)
	sb.WriteString("File Content:\n```python\n")
	sb.WriteString(content)
	sb.WriteString("\n```\n\n")
	sb.WriteString("Please provide:\n")
	sb.WriteString("1. A brief overview of the file's purpose\n")
	sb.WriteString("2. Detailed description of each class (purpose, key methods, relationships)\n")
	sb.WriteString("3. Detailed description of each function (purpose, parameters, return values, exceptions)\n")
	sb.WriteString("4. Key dependencies and imports\n")
	sb.WriteString("5. Usage examples where applicable\n")
	sb.WriteString("6. Any important notes or considerations\n\n")
	sb.WriteString("Format the documentation in clean Markdown with appropriate headers and sections.")
	return sb.String()
}
