package repl

import (
	"fmt"
	"os"
	"strings"
)

// maxListedFiles caps the directory listing embedded in the system
// prompt so huge directories don't blow up the request.
const maxListedFiles = 50

const systemPromptTemplate = `You are a helpful AI assistant with access to the user's file system.
Current working directory: %s
Files in current directory:
%s

You can help users with:
- Reading and analyzing files (use relative or absolute paths)
- Writing or modifying files
- Answering questions about their code and projects
- General programming and technical assistance

When suggesting file operations, provide clear commands or code snippets.

IMPORTANT: When writing mathematical expressions or formulas, always use LaTeX notation:
- For inline math: use single dollar signs like $x = 2$
- For display math: use double dollar signs like $$E = mc^2$$
Always wrap math in these delimiters so it renders properly.`

// SystemPrompt builds the per-turn system message: the working
// directory with a capped file listing, plus the math delimiter
// instructions the renderer depends on.
func SystemPrompt(cwd string) string {
	return fmt.Sprintf(systemPromptTemplate, cwd, fileListing(cwd))
}

func fileListing(cwd string) string {
	entries, err := os.ReadDir(cwd)
	if err != nil {
		return fmt.Sprintf("Error listing files: %v", err)
	}

	var b strings.Builder
	for i, e := range entries {
		if i == maxListedFiles {
			fmt.Fprintf(&b, "\n... and %d more files", len(entries)-maxListedFiles)
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(e.Name())
	}
	return b.String()
}
