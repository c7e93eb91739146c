package repl

import (
	"strings"

	"github.com/parleylabs/parley/internal/domain"
	"github.com/parleylabs/parley/internal/provider"
)

// modelSubcommands are the non-alias arguments /model accepts.
var modelSubcommands = []string{"list"}

// ComputeCompletions returns full-line completion candidates for the
// given input. Only slash commands complete; plain chat text never does.
func ComputeCompletions(input string) []string {
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil
	}
	cmd := strings.ToLower(fields[0])

	// Still typing the command name (no space after it yet).
	if len(fields) == 1 && !strings.HasSuffix(input, " ") {
		return FilterByPrefix(domain.CommandNames(), "", cmd)
	}

	switch cmd {
	case "/model":
		partial := ""
		if len(fields) >= 2 {
			partial = strings.ToLower(fields[1])
		}
		candidates := append([]string{}, modelSubcommands...)
		candidates = append(candidates, provider.AliasNames()...)
		return FilterByPrefix(candidates, "/model ", partial)
	case "/read", "/write":
		// Could add file path completion in the future.
		return nil
	}
	return nil
}

// FilterByPrefix returns candidates that start with partial, each
// prefixed with the given prefix string. An empty partial matches all.
func FilterByPrefix(candidates []string, prefix, partial string) []string {
	var result []string
	lower := strings.ToLower(partial)
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), lower) {
			result = append(result, prefix+c)
		}
	}
	return result
}
