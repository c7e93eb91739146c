// Package repl implements the interactive chat loop: a line editor with
// persistent history and completion, slash commands, and streamed
// replies rendered math-aware. Input falls back to plain line reading
// when stdout is not a terminal.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"

	"github.com/parleylabs/parley/internal/config"
	"github.com/parleylabs/parley/internal/domain"
	"github.com/parleylabs/parley/internal/provider"
	"github.com/parleylabs/parley/internal/store"
	"github.com/parleylabs/parley/internal/term"
	"github.com/parleylabs/parley/internal/tui"
)

const promptLabel = "You: "

// Options wires the REPL's collaborators. Store and Session may be nil,
// in which case nothing is persisted.
type Options struct {
	Store    *store.Store
	Session  *domain.Session
	Renderer *tui.Renderer
	Caps     term.Capabilities
	Prefs    config.Preferences
	Provider provider.Provider
	Stream   provider.StreamOptions
	Logger   *config.Logger
	Resumed  bool
}

// REPL owns the prompt loop and the in-memory conversation.
type REPL struct {
	opts    Options
	line    *liner.State   // nil when stdout is not a terminal
	scanner *bufio.Scanner // plain fallback input

	history   []domain.ChatMessage
	lastReply string
	writeTo   string // armed /write target; next message becomes content
}

// New builds the REPL and, for resumed sessions, reloads the stored
// transcript into the conversation.
func New(opts Options) *REPL {
	r := &REPL{opts: opts}

	if opts.Caps.TTY {
		r.line = liner.NewLiner()
		r.line.SetCtrlCAborts(true)
		r.line.SetCompleter(ComputeCompletions)
		if f, err := os.Open(config.HistoryFilePath()); err == nil {
			r.line.ReadHistory(f)
			f.Close()
		}
	} else {
		r.scanner = bufio.NewScanner(os.Stdin)
	}

	if opts.Resumed && opts.Store != nil && opts.Session != nil {
		msgs, err := opts.Store.GetMessages(opts.Session.ID)
		if err != nil {
			r.logf("load transcript: %v", err)
		}
		for _, m := range msgs {
			r.history = append(r.history, domain.ChatMessage{Role: m.Role, Content: m.Content})
		}
	}
	return r
}

// Close saves the prompt history and releases the line editor.
func (r *REPL) Close() {
	if r.line == nil {
		return
	}
	if dir := config.ConfigDir(); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err == nil {
			if f, err := os.OpenFile(config.HistoryFilePath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
				r.line.WriteHistory(f)
				f.Close()
			}
		}
	}
	r.line.Close()
}

// RunOnce sends a single prompt through the normal chat path: streamed,
// rendered, and recorded to the session. Used for one-shot invocations.
func (r *REPL) RunOnce(prompt string) error {
	return r.chat(prompt)
}

// Run drives the prompt loop until /exit, /quit, or end of input.
func (r *REPL) Run() error {
	r.printWelcome()

	for {
		fmt.Println()
		input, err := r.readLine(promptLabel)
		if errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			fmt.Println(tui.HintStyle.Render("Use /exit to quit"))
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		if r.line != nil {
			r.line.AppendHistory(trimmed)
		}

		if strings.HasPrefix(trimmed, "/") {
			if quit := r.dispatch(trimmed); quit {
				return nil
			}
			continue
		}

		if target := r.writeTo; target != "" {
			r.writeTo = ""
			r.finishWrite(target, input)
			continue
		}

		if err := r.chat(trimmed); err != nil {
			fmt.Println(tui.ErrorLineStyle.Render("Error: " + err.Error()))
			r.logf("chat: %v", err)
		}
	}
}

func (r *REPL) readLine(label string) (string, error) {
	if r.line != nil {
		return r.line.Prompt(label)
	}
	fmt.Print(label)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *REPL) printWelcome() {
	lines := []string{
		fmt.Sprintf("Model: %s (%s)", r.opts.Stream.Model, r.opts.Provider.Name()),
	}
	if r.opts.Resumed && r.opts.Session != nil {
		lines = append(lines, fmt.Sprintf("Resumed session %s: %s", r.opts.Session.ShortID(), r.opts.Session.Title))
	}
	lines = append(lines, "Type your message and press Enter. /help lists commands.")
	for _, line := range tui.RenderPanel("parley", strings.Join(lines, "\n"), r.width()) {
		fmt.Println(line)
	}
}

// chat sends one user turn: system prompt + history + the new message,
// streamed live, then rendered in full and recorded.
func (r *REPL) chat(prompt string) error {
	messages := make([]domain.ChatMessage, 0, len(r.history)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: SystemPrompt(tui.MustGetwd())})
	messages = append(messages, r.history...)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: prompt})

	reply, err := r.stream(messages)
	stopped := errors.Is(err, context.Canceled)
	if err != nil && !stopped && strings.TrimSpace(reply) == "" {
		// Keep the user turn so a retry still has it in context.
		r.record(prompt, "")
		return err
	}

	r.printReply(reply)
	r.record(prompt, reply)
	if err != nil && !stopped {
		return err
	}
	return nil
}

// stream runs the provider call, behind the live view on a terminal or
// silently otherwise. Partial output survives errors and cancellation.
func (r *REPL) stream(messages []domain.ChatMessage) (string, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !r.opts.Caps.TTY {
		return provider.StreamWithRetry(ctx, r.opts.Provider, messages, r.opts.Stream, nil,
			func(note string) { r.logf("stream retry: %s", note) })
	}

	model := tui.NewLiveModel(r.opts.Renderer, tui.StreamCmd(ctx, r.opts.Provider, messages, r.opts.Stream), cancel)
	p := tea.NewProgram(model)
	tui.SetProgram(p)
	final, err := p.Run()
	tui.SetProgram(nil)
	if err != nil {
		return "", fmt.Errorf("live view: %w", err)
	}
	lm, ok := final.(tui.LiveModel)
	if !ok {
		return "", fmt.Errorf("live view returned %T", final)
	}
	return lm.Result()
}

// printReply renders the final reply: plain text conversion off-terminal,
// image blocks where the terminal and preferences allow, styled text
// otherwise.
func (r *REPL) printReply(reply string) {
	if strings.TrimSpace(reply) == "" {
		return
	}
	if !r.opts.Caps.TTY {
		fmt.Println(r.opts.Renderer.RenderPlain(reply))
		return
	}
	if r.imageMode() {
		r.printBlocks(reply)
		return
	}
	fmt.Println(r.opts.Renderer.RenderResponse(reply, r.width()))
}

func (r *REPL) printBlocks(reply string) {
	fmt.Println(tui.AsstIconStyle.Render("●"))
	for _, b := range r.opts.Renderer.RenderResponseBlocks(reply, r.width()) {
		if !b.IsImage() {
			fmt.Println(strings.Join(b.Lines, "\n"))
			continue
		}
		if err := term.WriteImage(os.Stdout, r.imageCaps(), b.PNG, b.WidthHint); err != nil {
			fmt.Println(b.Fragment)
		} else {
			fmt.Println()
		}
	}
}

// imageMode reports whether final replies render math as images.
// "text" disables images, "image" forces them, "auto" follows terminal
// detection.
func (r *REPL) imageMode() bool {
	switch r.opts.Prefs.Render {
	case config.RenderText:
		return false
	case config.RenderImage:
		return true
	default:
		return r.opts.Caps.SupportsImages()
	}
}

// imageCaps assumes the kitty protocol when images are forced on a
// terminal the detector didn't recognize.
func (r *REPL) imageCaps() term.Capabilities {
	caps := r.opts.Caps
	if r.opts.Prefs.Render == config.RenderImage && !caps.Kitty && !caps.ITerm {
		caps.Kitty = true
	}
	return caps
}

// record appends the turn to the in-memory conversation and the session
// store, and titles the session on its first real prompt.
func (r *REPL) record(prompt, reply string) {
	r.history = append(r.history, domain.ChatMessage{Role: domain.RoleUser, Content: prompt})
	if reply != "" {
		r.history = append(r.history, domain.ChatMessage{Role: domain.RoleAssistant, Content: reply})
		r.lastReply = reply
	}
	r.persist(domain.RoleUser, prompt)
	if reply != "" {
		r.persist(domain.RoleAssistant, reply)
	}
	r.maybeTitle(prompt)
}

func (r *REPL) persist(role, content string) {
	if r.opts.Store == nil || r.opts.Session == nil {
		return
	}
	if err := r.opts.Store.AppendMessage(r.opts.Session.ID, role, content); err != nil {
		r.logf("append %s message: %v", role, err)
	}
}

func (r *REPL) maybeTitle(prompt string) {
	if r.opts.Store == nil || r.opts.Session == nil {
		return
	}
	if r.opts.Session.Title != domain.DefaultSessionTitle {
		return
	}
	title := domain.TitleFromPrompt(prompt)
	if title == domain.DefaultSessionTitle {
		return
	}
	if err := r.opts.Store.UpdateSessionTitle(r.opts.Session.ID, title); err != nil {
		r.logf("update session title: %v", err)
		return
	}
	r.opts.Session.Title = title
}

func (r *REPL) width() int {
	if r.opts.Caps.Width > 0 {
		return r.opts.Caps.Width
	}
	return 80
}

func (r *REPL) logf(format string, args ...any) {
	if r.opts.Logger != nil {
		r.opts.Logger.Printf(format, args...)
	}
}
