package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mbti/internal/domain"
)

// ClassifierPort is the TUI-facing subset of the MBTI service.
type ClassifierPort interface {
	Classify(ctx context.Context, req domain.PredictRequest) (*domain.Prediction, error)
	ModelID() string
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service  ClassifierPort
	input    textarea.Model
	viewport viewport.Model
	result   *domain.Prediction
	status   string
	ready    bool
}

// New creates a new TUI model instance.
func New(service ClassifierPort) Model {
	ta := textarea.New()
	ta.Placeholder = "Paste a few posts and press Ctrl+S to classify"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(4)
	ta.Focus()
	vp := viewport.New(0, 0)
	return Model{service: service, input: ta, viewport: vp, status: "Model " + service.ModelID() + " loaded."}
}

// Init initializes the model (text area cursor blink).
func (m Model) Init() tea.Cmd { return textarea.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		qw, qh := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + m.input.Height() + qh // header + status + input
		m.input.SetWidth(max(20, msg.Width-qw))
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderResult())
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlS:
			text := strings.TrimSpace(m.input.Value())
			pred, err := m.service.Classify(context.Background(), domain.PredictRequest{Text: text})
			if err != nil {
				m.status = "Error: " + err.Error()
				m.result = nil
			} else {
				m.status = fmt.Sprintf("Classified %d characters", len([]rune(text)))
				m.result = pred
			}
			m.viewport.SetContent(m.renderResult())
			return m, nil
		case tea.KeyCtrlL:
			m.input.Reset()
			m.result = nil
			m.status = "Cleared."
			m.viewport.SetContent(m.renderResult())
			return m, nil
		case tea.KeyPgDown, tea.KeyPgUp:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("MBTI Classifier") +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("  ctrl+s classify · ctrl+l clear · esc quit")
	results := resultBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderResult() string {
	p := m.result
	if p == nil {
		return "No prediction yet."
	}
	var b strings.Builder
	b.WriteString(typeStyle.Render(p.MBTI))
	fmt.Fprintf(&b, "  confidence %.1f%%\n", p.Confidence*100)
	if p.Description != "" {
		b.WriteString(p.Description + "\n")
	}
	if p.CommunicationStyle != "" {
		b.WriteString(dimStyle.Render(p.CommunicationStyle) + "\n")
	}
	b.WriteString("\n")
	for _, ax := range p.Breakdown {
		fmt.Fprintf(&b, "%s %s %s %3.0f%%\n", ax.Left, bar(ax.LeftProb, 20), ax.Right, ax.RightProb*100)
	}
	b.WriteString("\nTop types\n")
	for _, tp := range topTypes(p.Probabilities, 3) {
		fmt.Fprintf(&b, "  %s %5.1f%%\n", tp.label, tp.prob*100)
	}
	if len(p.Indicators) > 0 {
		terms := make([]string, len(p.Indicators))
		for i, ind := range p.Indicators {
			terms[i] = highlightStyle.Render(ind.Term)
		}
		b.WriteString("\nIndicators: " + strings.Join(terms, ", ") + "\n")
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	typeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// bar draws the left share of a two-sided axis as a fixed-width gauge.
func bar(left float64, width int) string {
	n := int(left*float64(width) + 0.5)
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}

type typeProb struct {
	label string
	prob  float64
}

func topTypes(probs map[string]float64, n int) []typeProb {
	out := make([]typeProb, 0, len(probs))
	for l, p := range probs {
		out = append(out, typeProb{l, p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].prob != out[j].prob {
			return out[i].prob > out[j].prob
		}
		return out[i].label < out[j].label
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
