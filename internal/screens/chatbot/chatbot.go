// Package chatbot is the study coach overlay: a running conversation with
// the coach, sent along with the student's past quiz scores.
package chatbot

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/gateway"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/screen"
	"github.com/abhisek/studybuddy/internal/store"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

// Fixed coach lines.
const (
	Greeting     = "Hi! I'm your study coach. Ask me anything about your studies."
	ConnectError = "Sorry, I am having trouble connecting. Please try again."
	typing       = "..."
)

// ReportSource provides the quiz history used as coaching context.
type ReportSource interface {
	Reports(ctx context.Context) ([]store.Report, error)
}

type performanceMsg struct {
	Seq         int
	Performance []gateway.Performance
	Err         error
}

type replyMsg struct {
	Text string
	Err  error
}

type entry struct {
	role string
	text string
}

// Overlay is the chat panel. It keeps the conversation for the lifetime of
// the process; closing the panel does not clear it.
type Overlay struct {
	gw      gateway.Gateway
	reports ReportSource
	log     *zap.Logger

	input       components.TextInput
	transcript  []entry
	history     []gateway.ChatTurn
	performance []gateway.Performance
	seq         int
	waiting     bool
}

var _ screen.Screen = (*Overlay)(nil)
var _ screen.Refresher = (*Overlay)(nil)

// New creates the coach overlay.
func New(gw gateway.Gateway, reports ReportSource, log *zap.Logger) *Overlay {
	if log == nil {
		log = zap.NewNop()
	}
	return &Overlay{
		gw:         gw,
		reports:    reports,
		log:        log,
		input:      components.NewTextInput("Message", "Ask your coach...", false, 1000),
		transcript: []entry{{role: gateway.ChatRoleBot, text: Greeting}},
	}
}

func (o *Overlay) Init() tea.Cmd { return nil }

func (o *Overlay) Title() string { return "Study Coach" }

// Refresh focuses the input and reloads the performance context.
func (o *Overlay) Refresh() tea.Cmd {
	o.seq++
	seq, src := o.seq, o.reports
	load := func() tea.Msg {
		if src == nil {
			return performanceMsg{Seq: seq}
		}
		reports, err := src.Reports(context.Background())
		return performanceMsg{Seq: seq, Performance: Performance(reports), Err: err}
	}
	return tea.Batch(o.input.Focus(), load)
}

// Performance summarizes reports in the order they were taken, scores as
// "score/total".
func Performance(reports []store.Report) []gateway.Performance {
	out := make([]gateway.Performance, 0, len(reports))
	for _, r := range reports {
		out = append(out, gateway.Performance{
			Topic: r.Topic,
			Score: fmt.Sprintf("%d/%d", r.Score, r.Total),
		})
	}
	return out
}

// History returns the turns exchanged so far.
func (o *Overlay) History() []gateway.ChatTurn {
	return append([]gateway.ChatTurn(nil), o.history...)
}

func (o *Overlay) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case performanceMsg:
		if msg.Seq != o.seq {
			return o, nil
		}
		if msg.Err != nil {
			o.log.Warn("loading chat context failed", zap.Error(msg.Err))
			return o, nil
		}
		o.performance = msg.Performance
		return o, nil

	case replyMsg:
		o.waiting = false
		last := len(o.transcript) - 1
		if msg.Err != nil {
			o.log.Warn("chat failed", zap.Error(msg.Err))
			o.transcript[last].text = ConnectError
			return o, nil
		}
		o.transcript[last].text = msg.Text
		o.history = append(o.history, gateway.ChatTurn{Role: gateway.ChatRoleBot, Text: msg.Text})
		return o, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			o.input.Blur()
			return o, router.ToggleChatbot()
		case "enter":
			return o, o.send()
		}
		var cmd tea.Cmd
		o.input, cmd = o.input.Update(msg)
		return o, cmd

	case tea.PasteMsg:
		var cmd tea.Cmd
		o.input, cmd = o.input.Update(msg)
		return o, cmd
	}
	return o, nil
}

// send posts the typed message. The request carries the turns before it;
// the reply fills in the typing placeholder.
func (o *Overlay) send() tea.Cmd {
	text := o.input.Value()
	if text == "" || o.waiting {
		return nil
	}
	o.input.SetValue("")

	req := gateway.ChatRequest{
		Message:     text,
		History:     o.History(),
		Performance: append([]gateway.Performance(nil), o.performance...),
	}
	o.history = append(o.history, gateway.ChatTurn{Role: gateway.ChatRoleUser, Text: text})
	o.transcript = append(o.transcript,
		entry{role: gateway.ChatRoleUser, text: text},
		entry{role: gateway.ChatRoleBot, text: typing},
	)
	o.waiting = true

	gw := o.gw
	return func() tea.Msg {
		reply, err := gw.Chat(context.Background(), req)
		return replyMsg{Text: reply, Err: err}
	}
}

// View renders the panel. Only the most recent messages that fit are shown.
func (o *Overlay) View(width, height int) string {
	w := width - 8
	if w > 64 {
		w = 64
	}
	if w < 24 {
		w = 24
	}
	inner := w - 4

	var lines []string
	for _, e := range o.transcript {
		lines = append(lines, strings.Split(bubble(e, inner), "\n")...)
	}
	room := height - 12
	if room < 3 {
		room = 3
	}
	if len(lines) > room {
		lines = lines[len(lines)-room:]
	}

	body := strings.Join(lines, "\n") + "\n\n" + o.input.View() + "\n" +
		theme.Hint.Render("Enter send · Esc close")
	return components.Panel("Study Coach", body, w)
}

func bubble(e entry, width int) string {
	style := theme.Bubble.Width(width - 4)
	if e.role == gateway.ChatRoleUser {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right,
			style.Foreground(theme.Accent).Align(lipgloss.Right).Render(e.text))
	}
	return style.Foreground(theme.Text).Render(e.text)
}
