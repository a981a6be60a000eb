// Package tui is the interactive menu: ingest a PDF, ask a question over
// the indexed corpus, or list ingested documents.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"multirag/internal/answer"
	"multirag/internal/service"
)

// Pipeline is the TUI-facing subset of the application service.
type Pipeline interface {
	Ingest(ctx context.Context, pdfPath string) (service.Stats, error)
	Ask(ctx context.Context, question string) (answer.Result, error)
	AlreadyIngested(pdfPath string) bool
	IngestedDocs() []string
}

type state int

const (
	stateMenu state = iota
	statePathInput
	stateConfirmReindex
	stateIngesting
	stateQuestionInput
	stateAsking
	stateAnswer
	stateList
)

type ingestDoneMsg struct {
	path  string
	stats service.Stats
	err   error
}

type answerMsg struct {
	result answer.Result
	err    error
}

// Model is the Bubble Tea model for the application.
type Model struct {
	pipeline    Pipeline
	state       state
	input       textinput.Model
	viewport    viewport.Model
	status      string
	pendingPath string
	result      answer.Result
	showSources bool
	ready       bool
}

// New creates the TUI model.
func New(pipeline Pipeline) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		pipeline: pipeline,
		state:    stateMenu,
		input:    ti,
		viewport: vp,
		status:   "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := bodyStyle.GetFrameSize()
		reserved := 2 + 1 + bh + 1 // header + spacer + body frame + status
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = vh
		return m, nil

	case ingestDoneMsg:
		if msg.err != nil {
			m.status = "Ingestion failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Ingested %s (texts: %d, tables: %d, images: %d)",
				msg.path, msg.stats.Texts, msg.stats.Tables, msg.stats.Images)
		}
		m.state = stateMenu
		return m, nil

	case answerMsg:
		if msg.err != nil {
			m.status = "Query failed: " + msg.err.Error()
			m.state = stateMenu
			return m, nil
		}
		m.result = msg.result
		m.showSources = false
		m.state = stateAnswer
		m.status = "Press s to toggle sources, esc to return."
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		switch msg.String() {
		case "1", "u":
			m.state = statePathInput
			m.input.Placeholder = "Path to PDF file"
			m.input.SetValue("")
			m.input.Focus()
			m.status = "Enter a PDF path and press Enter."
			return m, textinput.Blink
		case "2", "a":
			m.state = stateQuestionInput
			m.input.Placeholder = "Your question"
			m.input.SetValue("")
			m.input.Focus()
			m.status = "Type a question and press Enter."
			return m, textinput.Blink
		case "3", "l":
			m.state = stateList
			m.viewport.SetContent(m.renderIngested())
			m.status = "Press esc to return."
			return m, nil
		case "4", "q", "esc":
			return m, tea.Quit
		}

	case statePathInput:
		switch msg.String() {
		case "esc":
			return m.backToMenu(), nil
		case "enter":
			path := strings.Trim(strings.TrimSpace(m.input.Value()), `"'`)
			if path == "" {
				return m, nil
			}
			if m.pipeline.AlreadyIngested(path) {
				m.pendingPath = path
				m.state = stateConfirmReindex
				m.status = fmt.Sprintf("%s is already indexed. Re-index? (y/n)", path)
				return m, nil
			}
			return m.startIngest(path)
		}

	case stateConfirmReindex:
		switch msg.String() {
		case "y":
			return m.startIngest(m.pendingPath)
		case "n", "esc":
			return m.backToMenu(), nil
		}
		return m, nil

	case stateQuestionInput:
		switch msg.String() {
		case "esc":
			return m.backToMenu(), nil
		case "enter":
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.state = stateAsking
			m.status = "Thinking ..."
			return m, askCmd(m.pipeline, question)
		}

	case stateAnswer:
		switch msg.String() {
		case "s":
			m.showSources = !m.showSources
			m.viewport.SetContent(m.renderAnswer())
			return m, nil
		case "esc", "enter":
			return m.backToMenu(), nil
		case "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case stateList:
		if msg.String() == "esc" || msg.String() == "enter" {
			return m.backToMenu(), nil
		}

	case stateIngesting, stateAsking:
		// Block input while work is in flight.
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) backToMenu() Model {
	m.state = stateMenu
	m.input.Blur()
	m.status = "Ready."
	return m
}

func (m Model) startIngest(path string) (Model, tea.Cmd) {
	m.state = stateIngesting
	m.status = "Ingesting " + path + " ..."
	return m, ingestCmd(m.pipeline, path)
}

func ingestCmd(p Pipeline, path string) tea.Cmd {
	return func() tea.Msg {
		stats, err := p.Ingest(context.Background(), path)
		return ingestDoneMsg{path: path, stats: stats, err: err}
	}
}

func askCmd(p Pipeline, question string) tea.Cmd {
	return func() tea.Msg {
		res, err := p.Ask(context.Background(), question)
		return answerMsg{result: res, err: err}
	}
}

// View renders the TUI layout for the current state.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Multimodal RAG - PDF Question Answering")
	status := statusStyle.Render(m.status)

	var body string
	switch m.state {
	case stateMenu:
		body = bodyStyle.Render(menuText)
	case statePathInput, stateQuestionInput, stateConfirmReindex:
		body = bodyStyle.Render(m.input.View())
	case stateIngesting, stateAsking:
		body = bodyStyle.Render("Working ...")
	case stateAnswer, stateList:
		body = bodyStyle.Render(m.viewport.View())
	}
	return header + "\n\n" + body + "\n" + status
}

const menuText = `  [1] Upload PDF
  [2] Ask a question
  [3] Show indexed PDFs
  [4] Exit`

func (m Model) renderAnswer() string {
	var b strings.Builder
	b.WriteString(answerTitleStyle.Render("Answer"))
	b.WriteString("\n\n")
	b.WriteString(m.result.Answer)
	if m.result.ImageCount > 0 {
		b.WriteString(fmt.Sprintf("\n\n%d image(s) were used as context.", m.result.ImageCount))
	}
	if m.showSources {
		b.WriteString("\n\n")
		b.WriteString(answerTitleStyle.Render("Sources"))
		for i, src := range m.result.Sources {
			b.WriteString(fmt.Sprintf("\n\n[%d] %s", i+1, truncate(src, 600)))
		}
	}
	return b.String()
}

func (m Model) renderIngested() string {
	docs := m.pipeline.IngestedDocs()
	if len(docs) == 0 {
		return "No PDFs indexed yet."
	}
	var b strings.Builder
	b.WriteString(answerTitleStyle.Render("Indexed PDFs"))
	for _, name := range docs {
		b.WriteString("\n  - " + name)
	}
	return b.String()
}

func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + " ..."
}

var (
	headerStyle      = lipgloss.NewStyle().Bold(true)
	bodyStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	answerTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
