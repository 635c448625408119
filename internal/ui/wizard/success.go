package wizard

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// SuccessModel is the Bubble Tea model for the success screen.
type SuccessModel struct {
	styles    wizardStyles
	keymap    successKeyMap
	width     int
	height    int
	ready     bool
	rulesPath string
	downloads string
}

type successKeyMap struct {
	Exit key.Binding
}

func defaultSuccessKeyMap() successKeyMap {
	return successKeyMap{
		Exit: key.NewBinding(
			key.WithKeys("enter", " ", "q", "esc", "ctrl+c"),
			key.WithHelp("enter/q", "exit"),
		),
	}
}

// NewSuccessModel creates the success screen.
func NewSuccessModel(rulesPath, downloads string) SuccessModel {
	return SuccessModel{
		styles:    defaultWizardStyles(),
		keymap:    defaultSuccessKeyMap(),
		rulesPath: rulesPath,
		downloads: downloads,
	}
}

// Init implements tea.Model.
func (m SuccessModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SuccessModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.Exit) {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m SuccessModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.styles.title.Render("✓ Rules Saved!"))
	b.WriteString("\n\n")

	b.WriteString(m.styles.subtitle.Render("plumb is ready to sort your files"))
	b.WriteString("\n\n")

	b.WriteString(m.styles.label.Render("Rules saved to:"))
	b.WriteString("\n")
	b.WriteString("  " + m.styles.info.Render(m.rulesPath))
	b.WriteString("\n\n")

	b.WriteString(m.styles.bold.Render("Next Steps:"))
	b.WriteString("\n\n")

	steps := []string{
		"Look over the rules and adjust patterns to taste",
		"Verify them with: plumb check",
		"Dry-run a file:   plumb route --dry-run FILE",
		"Sort continuously: plumb watch " + m.downloads,
	}

	for i, step := range steps {
		b.WriteString("  " + m.styles.value.Render(string(rune('1'+i))+".") + " " + step)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(renderStepIndicator(StateSuccess, m.styles))
	b.WriteString("\n\n")

	shortcuts := []string{"enter/q: exit"}
	b.WriteString(renderHelp(shortcuts, m.styles))
	b.WriteString("\n\n")

	b.WriteString(m.styles.statusBar.Render("Press Enter to exit"))
	b.WriteString("\n")

	return b.String()
}
