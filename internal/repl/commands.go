package repl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/parleylabs/parley/internal/backup"
	"github.com/parleylabs/parley/internal/domain"
	"github.com/parleylabs/parley/internal/extract"
	"github.com/parleylabs/parley/internal/provider"
	"github.com/parleylabs/parley/internal/tui"
)

// dispatch runs one slash command. It reports whether the REPL should
// exit.
func (r *REPL) dispatch(input string) bool {
	cmd, arg, _ := strings.Cut(input, " ")
	cmd = strings.ToLower(cmd)
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/exit", "/quit":
		fmt.Println("Goodbye!")
		return true
	case "/clear":
		r.history = r.history[:0]
		fmt.Println("Conversation history cleared.")
	case "/help":
		r.printHelp()
	case "/read":
		r.cmdRead(arg)
	case "/write":
		r.cmdWrite(arg)
	case "/model":
		r.cmdModel(arg)
	case "/sessions":
		r.cmdSessions()
	case "/copy":
		r.cmdCopy()
	default:
		fmt.Println(tui.ErrorLineStyle.Render("Unknown command"))
	}
	return false
}

func (r *REPL) printHelp() {
	for _, g := range domain.CommandGroups {
		fmt.Println(tui.HeadingStyle.Render(g.Label))
		for _, c := range domain.CommandDefs {
			if c.Group != g.Key {
				continue
			}
			usage := c.Name
			if c.Args != "" {
				usage += " " + c.Args
			}
			fmt.Printf("  %-22s %s\n", usage, c.Description)
		}
		fmt.Println()
	}
}

// cmdRead shows a file or URL in a panel and appends the extracted text
// to the conversation so the model can answer questions about it.
func (r *REPL) cmdRead(arg string) {
	if arg == "" {
		fmt.Println("Usage: /read <file|url>")
		return
	}
	src := arg
	if !strings.HasPrefix(arg, "http://") && !strings.HasPrefix(arg, "https://") {
		src = expandHome(arg)
	}
	text, err := extract.Source(src)
	if err != nil {
		fmt.Println(tui.ErrorLineStyle.Render("Error: " + err.Error()))
		return
	}

	for _, line := range tui.RenderPanel(arg, text, r.width()) {
		fmt.Println(line)
	}

	ctxMsg := fmt.Sprintf("Content of %s:\n%s", arg, text)
	r.history = append(r.history, domain.ChatMessage{Role: domain.RoleUser, Content: ctxMsg})
	r.persist(domain.RoleUser, ctxMsg)
	fmt.Println(tui.HintStyle.Render("Added to the conversation as context."))
}

func (r *REPL) cmdWrite(arg string) {
	if arg == "" {
		fmt.Println("Usage: /write <file>")
		return
	}
	r.writeTo = arg
	fmt.Println(tui.HintStyle.Render("Next message will be written to " + arg))
}

// finishWrite writes the armed /write content. When the target exists a
// diff preview is shown, confirmation is required, and the previous
// version is snapshotted first.
func (r *REPL) finishWrite(target, content string) {
	path, err := filepath.Abs(expandHome(target))
	if err != nil {
		fmt.Println(tui.ErrorLineStyle.Render(fmt.Sprintf("Error writing file: %v", err)))
		return
	}

	if old, readErr := os.ReadFile(path); readErr == nil {
		for _, line := range renderDiff(string(old), content, path) {
			fmt.Println(line)
		}
		if !r.confirm(fmt.Sprintf("Overwrite %s? [y/N] ", path)) {
			fmt.Println("Write cancelled.")
			return
		}
		if err := r.snapshot(path); err != nil {
			fmt.Println(tui.ErrorLineStyle.Render(fmt.Sprintf("Error backing up %s: %v", path, err)))
			return
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Println(tui.ErrorLineStyle.Render(fmt.Sprintf("Error writing file: %v", err)))
		return
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		fmt.Println(tui.ErrorLineStyle.Render(fmt.Sprintf("Error writing file: %v", err)))
		return
	}
	fmt.Println(tui.SuccessStyle.Render("Successfully wrote to " + path))
}

// snapshot copies the current file into the backup dir. Overwrites only
// proceed once the previous version is safe.
func (r *REPL) snapshot(path string) error {
	dir, err := backup.Dir()
	if err != nil {
		return err
	}
	snap, err := backup.Save(dir, path)
	if err != nil {
		return err
	}
	fmt.Println(tui.HintStyle.Render("Previous version saved to " + snap))
	return nil
}

// confirm asks a yes/no question; anything but y/yes declines.
func (r *REPL) confirm(question string) bool {
	answer, err := r.readLine(question)
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (r *REPL) cmdModel(arg string) {
	switch {
	case arg == "":
		fmt.Printf("Current model: %s (%s)\n", r.opts.Stream.Model, r.opts.Provider.Name())
		fmt.Println(tui.HintStyle.Render("Aliases: " + strings.Join(provider.AliasNames(), ", ")))
	case strings.EqualFold(arg, "list"):
		r.listModels()
	default:
		provName, model := provider.ResolveProviderAndModel(arg, r.opts.Provider.Name())
		if provName != r.opts.Provider.Name() {
			p, err := provider.GetProvider(provName)
			if err != nil {
				fmt.Println(tui.ErrorLineStyle.Render("Error: " + err.Error()))
				return
			}
			r.opts.Provider = p
		}
		r.opts.Stream.Model = model
		if r.opts.Store != nil && r.opts.Session != nil {
			if err := r.opts.Store.UpdateSessionModel(r.opts.Session.ID, model); err != nil {
				r.logf("update session model: %v", err)
			}
		}
		fmt.Printf("Switched to %s (%s)\n", model, provName)
	}
}

func (r *REPL) listModels() {
	lister, ok := r.opts.Provider.(provider.ModelLister)
	if !ok {
		fmt.Println(tui.HintStyle.Render(r.opts.Provider.Name() + " does not support model listing."))
		return
	}
	models, err := lister.FetchModels(r.opts.Stream.APIKey)
	if err != nil {
		fmt.Println(tui.ErrorLineStyle.Render("Error: " + err.Error()))
		return
	}
	if len(models) == 0 {
		fmt.Println("No models available.")
		return
	}

	const maxShown = 30
	shown := models
	if len(shown) > maxShown {
		shown = shown[:maxShown]
	}
	for _, m := range shown {
		if m.DisplayName != "" && m.DisplayName != m.ID {
			fmt.Printf("  %-44s %s\n", m.ID, m.DisplayName)
		} else {
			fmt.Printf("  %s\n", m.ID)
		}
	}
	if extra := len(models) - maxShown; extra > 0 {
		fmt.Println(tui.HintStyle.Render(fmt.Sprintf("  ... and %d more", extra)))
	}
}

func (r *REPL) cmdSessions() {
	if r.opts.Store == nil || r.opts.Session == nil {
		fmt.Println(tui.HintStyle.Render("No session store available."))
		return
	}
	sessions, err := r.opts.Store.ListSessions(r.opts.Session.ProjectPath, 10)
	if err != nil {
		fmt.Println(tui.ErrorLineStyle.Render("Error: " + err.Error()))
		return
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions yet.")
		return
	}
	for _, s := range sessions {
		marker := " "
		if s.ID == r.opts.Session.ID {
			marker = "*"
		}
		fmt.Printf("%s %s  %s  %3d msgs  %s\n",
			marker, s.ShortID(), s.UpdatedAt.Local().Format("2006-01-02 15:04"), s.MessageCount, s.Title)
	}
	fmt.Println(tui.HintStyle.Render("Resume with: parley -c <id>"))
}

func (r *REPL) cmdCopy() {
	if r.lastReply == "" {
		fmt.Println(tui.HintStyle.Render("Nothing to copy yet."))
		return
	}
	if err := tui.CopyToClipboard(os.Stdout, r.lastReply); err != nil {
		fmt.Println(tui.ErrorLineStyle.Render("Error: " + err.Error()))
		return
	}
	fmt.Println(tui.HintStyle.Render("Copied last reply to the clipboard."))
}

// renderDiff produces a colored line diff between the current file and
// its replacement, with long unchanged runs collapsed.
func renderDiff(oldText, newText, path string) []string {
	dmp := diffmatchpatch.New()
	a, b, lineArr := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArr)

	out := []string{
		tui.DiffMetaStyle.Render("--- " + path),
		tui.DiffMetaStyle.Render("+++ " + path + " (new)"),
	}
	for _, d := range diffs {
		lines := strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n")
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			for _, l := range lines {
				out = append(out, tui.DiffAddStyle.Render("+ "+l))
			}
		case diffmatchpatch.DiffDelete:
			for _, l := range lines {
				out = append(out, tui.DiffDelStyle.Render("- "+l))
			}
		default:
			out = append(out, contextLines(lines)...)
		}
	}
	return out
}

// contextLines keeps short unchanged runs whole and collapses long ones
// to their edges.
func contextLines(lines []string) []string {
	const keep = 2
	if len(lines) <= 2*keep+1 {
		out := make([]string, 0, len(lines))
		for _, l := range lines {
			out = append(out, "  "+l)
		}
		return out
	}
	out := []string{"  " + lines[0], "  " + lines[1]}
	out = append(out, tui.DiffMetaStyle.Render(fmt.Sprintf("  ... %d unchanged lines", len(lines)-2*keep)))
	out = append(out, "  "+lines[len(lines)-2], "  "+lines[len(lines)-1])
	return out
}

// expandHome resolves a leading ~ against the user's home directory.
func expandHome(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
