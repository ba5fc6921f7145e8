package clients

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"HeroChatAI/app/runtime"
)

const tuiLogLines = 200

var _ Interface = &TUIClient{}

// TUIClient is a terminal chat. While it runs, log output is captured in a
// buffer and the latest line is shown under the input.
type TUIClient struct {
	Client
	title string
}

func NewTUIClient(cfg map[string]string) *TUIClient {
	title := cfg["title"]
	if title == "" {
		title = "Chat with your favorite superhero!"
	}
	return &TUIClient{title: title}
}

func (c *TUIClient) Run(ctx context.Context) error {
	logs := runtime.NewLogBuffer(tuiLogLines)
	prev := log.Writer()
	log.SetOutput(logs)
	defer log.SetOutput(prev)

	program := tea.NewProgram(newChatModel(ctx, c.runtime, c.title, logs), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// Responder is the part of the runtime the chat model needs.
type Responder interface {
	Characters() []string
	GetResponse(ctx context.Context, question, character string) (string, error)
}

type replyMsg struct {
	epoch     int
	character string
	question  string
	reply     string
	err       error
}

type chatModel struct {
	ctx        context.Context
	responder  Responder
	title      string
	logs       *runtime.LogBuffer
	characters []string
	selected   int
	conv       Conversation
	epoch      int
	input      textinput.Model
	viewport   viewport.Model
	status     string
	waiting    bool
	ready      bool
}

func newChatModel(ctx context.Context, responder Responder, title string, logs *runtime.LogBuffer) chatModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	m := chatModel{
		ctx:        ctx,
		responder:  responder,
		title:      title,
		logs:       logs,
		characters: responder.Characters(),
		input:      ti,
		viewport:   viewport.New(0, 0),
		status:     "Tab switches superhero. Ctrl+C quits.",
	}
	if len(m.characters) > 0 {
		m.conv.Select(m.characters[0])
	}
	return m
}

func (m chatModel) Init() tea.Cmd { return textinput.Blink }

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, hh := historyBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 3 + ih + 2
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-hh)
		m.refresh()
		return m, nil
	case replyMsg:
		m.waiting = false
		if msg.epoch != m.epoch {
			return m, nil
		}
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.conv.Record(msg.question, msg.reply)
		m.status = msg.character + " answered."
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			m.selectCharacter(m.selected + 1)
			return m, nil
		case tea.KeyShiftTab:
			m.selectCharacter(m.selected - 1)
			return m, nil
		case tea.KeyEnter:
			return m.submit()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *chatModel) selectCharacter(i int) {
	if len(m.characters) == 0 {
		return
	}
	m.selected = (i + len(m.characters)) % len(m.characters)
	if m.conv.Select(m.characters[m.selected]) {
		m.epoch++
		m.status = "Now chatting with " + m.conv.Character + "."
		m.refresh()
	}
}

func (m chatModel) submit() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	if question == "" || m.waiting || m.conv.Character == "" {
		return m, nil
	}
	m.input.SetValue("")
	m.waiting = true
	m.status = m.conv.Character + " is thinking..."
	return m, m.ask(question, m.conv.Character)
}

// ask runs the question off the update loop. The reply is dropped if the
// character was switched in the meantime.
func (m chatModel) ask(question, character string) tea.Cmd {
	ctx, responder, epoch := m.ctx, m.responder, m.epoch
	return func() tea.Msg {
		reply, err := responder.GetResponse(ctx, question, character)
		return replyMsg{epoch: epoch, character: character, question: question, reply: reply, err: err}
	}
}

func (m *chatModel) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m chatModel) renderHistory() string {
	if len(m.conv.History) == 0 {
		return "No messages yet."
	}
	var sb strings.Builder
	for i, ex := range m.conv.History {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(userStyle.Render("You: ") + ex.Question + "\n")
		sb.WriteString(heroStyle.Render(m.conv.Character+": ") + ex.Reply + "\n")
	}
	return sb.String()
}

func (m chatModel) renderSelector() string {
	names := make([]string, len(m.characters))
	for i, name := range m.characters {
		if i == m.selected {
			names[i] = selectedStyle.Render("[" + name + "]")
		} else {
			names[i] = name
		}
	}
	return strings.Join(names, "  ")
}

func (m chatModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(m.title)
	status := statusStyle.Render(m.status)
	if m.logs != nil {
		if last := m.logs.Last(1); len(last) > 0 {
			status += "\n" + logStyle.Render(last[0])
		}
	}
	return header + "\n" +
		m.renderSelector() + "\n" +
		historyBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		status
}

var (
	historyBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	selectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	heroStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	logStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
