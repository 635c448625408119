package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// ReviewModel is the Bubble Tea model for the rules preview screen.
type ReviewModel struct {
	styles    wizardStyles
	keymap    reviewKeyMap
	width     int
	height    int
	ready     bool
	next      bool
	back      bool
	viewport  viewport.Model
	rules     string
	rulesPath string
}

type reviewKeyMap struct {
	Approve  key.Binding
	Back     key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func defaultReviewKeyMap() reviewKeyMap {
	return reviewKeyMap{
		Approve: key.NewBinding(
			key.WithKeys("enter", "y"),
			key.WithHelp("enter/y", "approve"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("k/up", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("j/down", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "page down"),
		),
	}
}

// NewReviewModel creates the rules preview screen.
func NewReviewModel(rules, rulesPath string) ReviewModel {
	return ReviewModel{
		styles:    defaultWizardStyles(),
		keymap:    defaultReviewKeyMap(),
		rules:     rules,
		rulesPath: rulesPath,
	}
}

// Init implements tea.Model.
func (m ReviewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 8
		footerHeight := 6
		viewportHeight := m.height - headerHeight - footerHeight

		if !m.ready {
			m.viewport = viewport.New(m.width-4, viewportHeight)
			m.viewport.SetContent(m.rules)
			m.ready = true
		} else {
			m.viewport.Width = m.width - 4
			m.viewport.Height = viewportHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Approve):
			m.next = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Back):
			m.back = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Up),
			key.Matches(msg, m.keymap.Down),
			key.Matches(msg, m.keymap.PageUp),
			key.Matches(msg, m.keymap.PageDown):
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m ReviewModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.styles.title.Render("Review Rules"))
	b.WriteString("\n")

	b.WriteString(m.styles.subtitle.Render("Look over the generated rules before they are saved"))
	b.WriteString("\n\n")

	b.WriteString(m.styles.info.Render("📁 " + m.rulesPath))
	b.WriteString("\n")
	b.WriteString(m.styles.subtle.Render("This is where plumb looks for rules by default"))
	b.WriteString("\n\n")

	b.WriteString(m.styles.focused.Render(m.viewport.View()))
	b.WriteString("\n\n")

	scrollInfo := ""
	if m.viewport.TotalLineCount() > m.viewport.Height {
		scrollInfo = m.styles.subtle.Render(fmt.Sprintf("  %.0f%%", m.viewport.ScrollPercent()*100))
	}
	b.WriteString(scrollInfo)
	b.WriteString("\n")

	b.WriteString(renderStepIndicator(StateReview, m.styles))
	b.WriteString("\n\n")

	shortcuts := []string{"j/k: scroll", "enter/y: approve", "esc: back", "q: quit"}
	b.WriteString(renderHelp(shortcuts, m.styles))
	b.WriteString("\n\n")

	b.WriteString(m.styles.statusBar.Render("Save these rules?"))
	b.WriteString("\n")

	return b.String()
}

// ShouldContinue returns true if the user wants to continue.
func (m ReviewModel) ShouldContinue() bool {
	return m.next
}

// ShouldGoBack returns true if the user wants to go back.
func (m ReviewModel) ShouldGoBack() bool {
	return m.back
}
