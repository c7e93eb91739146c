package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleylabs/parley/internal/domain"
	"github.com/parleylabs/parley/internal/provider"
)

// StreamDeltaMsg carries a streaming text delta from the provider.
type StreamDeltaMsg struct {
	Text string
}

// StreamRetryMsg reports a retry wait before the stream has started.
type StreamRetryMsg struct {
	Message string
}

// StreamDoneMsg signals that the provider call finished.
type StreamDoneMsg struct {
	Text string
	Err  error
}

// LiveModel is the inline Bubble Tea model shown while a reply streams.
// The whole buffer is re-rendered on every delta (textual math only),
// and the view clears itself on completion so the caller can print the
// final reply through the full renderer.
type LiveModel struct {
	spinner  spinner.Model
	renderer *Renderer
	start    tea.Cmd
	cancel   context.CancelFunc

	width     int
	height    int
	buf       string
	retryNote string
	stopping  bool
	done      bool
	final     StreamDoneMsg
}

// NewLiveModel builds the streaming view. start is the command that
// kicks off the provider call; cancel aborts it on ctrl+c.
func NewLiveModel(r *Renderer, start tea.Cmd, cancel context.CancelFunc) LiveModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = ThinkingStyle
	return LiveModel{
		spinner:  sp,
		renderer: r,
		start:    start,
		cancel:   cancel,
		width:    80,
		height:   24,
	}
}

// Result returns the final accumulated text and the stream error, valid
// after the program exits.
func (m LiveModel) Result() (string, error) {
	return m.final.Text, m.final.Err
}

// Init starts the spinner and the provider call.
func (m LiveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start)
}

// Update handles stream progress and cancellation.
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StreamDeltaMsg:
		// Strip leading newlines at the start of the response so the
		// first delta doesn't open with a blank live region.
		if m.buf == "" {
			msg.Text = strings.TrimLeft(msg.Text, "\n\r")
		}
		m.buf += msg.Text
		m.retryNote = ""
		return m, nil

	case StreamRetryMsg:
		m.retryNote = msg.Message
		return m, nil

	case StreamDoneMsg:
		m.done = true
		m.final = msg
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && m.cancel != nil {
			m.cancel()
			m.stopping = true
		}
		return m, nil
	}
	return m, nil
}

// View renders the streamed tail plus a status line. It returns empty
// once done so Bubble Tea erases the live region on exit.
func (m LiveModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	if m.buf != "" {
		lines := m.renderer.RenderStreaming(m.buf, m.width)
		// Keep the live region inside the terminal; the full reply is
		// reprinted after the stream ends.
		maxLines := m.height - 3
		if maxLines < 5 {
			maxLines = 5
		}
		if len(lines) > maxLines {
			lines = lines[len(lines)-maxLines:]
		}
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	switch {
	case m.stopping:
		b.WriteString(HintStyle.Render(m.spinner.View() + " Stopping..."))
	case m.retryNote != "":
		b.WriteString(RetryStyle.Render(m.spinner.View() + " " + m.retryNote))
	case m.buf == "":
		b.WriteString(ThinkingStyle.Render(m.spinner.View() + " Thinking..."))
	default:
		b.WriteString(ThinkingStyle.Render(m.spinner.View()))
	}
	return b.String()
}

// StreamCmd starts the provider call in the background. Deltas and
// retry notices are pushed to the running program via Prog.Send; the
// command's own return message carries the final result.
func StreamCmd(ctx context.Context, prov provider.Provider, messages []domain.ChatMessage, opts provider.StreamOptions) tea.Cmd {
	return func() tea.Msg {
		text, err := provider.StreamWithRetry(ctx, prov, messages, opts,
			func(delta string) {
				if Prog != nil {
					Prog.Send(StreamDeltaMsg{Text: delta})
				}
			},
			func(note string) {
				if Prog != nil {
					Prog.Send(StreamRetryMsg{Message: note})
				}
			})
		return StreamDoneMsg{Text: text, Err: err}
	}
}
