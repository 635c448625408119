package wizard

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldDownloads = iota
	fieldDest
	fieldCount
)

// PathsModel is the Bubble Tea model for the directory input screen.
type PathsModel struct {
	styles  wizardStyles
	keymap  pathsKeyMap
	width   int
	height  int
	ready   bool
	next    bool
	back    bool
	inputs  []textinput.Model
	focused int
	errMsg  string
}

type pathsKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func defaultPathsKeyMap() pathsKeyMap {
	return pathsKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "continue"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// NewPathsModel creates the directory input screen with initial values.
func NewPathsModel(downloads, dest string) PathsModel {
	inputs := make([]textinput.Model, fieldCount)

	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = DefaultDownloads()
	in.SetValue(downloads)
	in.CharLimit = 0
	in.Focus()
	inputs[fieldDownloads] = in

	in = textinput.New()
	in.Prompt = ""
	in.Placeholder = DefaultDestination()
	in.SetValue(dest)
	in.CharLimit = 0
	inputs[fieldDest] = in

	return PathsModel{
		styles: defaultWizardStyles(),
		keymap: defaultPathsKeyMap(),
		inputs: inputs,
	}
}

// Init implements tea.Model.
func (m PathsModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m PathsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		for i := range m.inputs {
			m.inputs[i].Width = max(20, min(m.width-12, 60))
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Back):
			m.back = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Next):
			return m.focusField((m.focused + 1) % fieldCount)

		case key.Matches(msg, m.keymap.Prev):
			return m.focusField((m.focused + fieldCount - 1) % fieldCount)

		case key.Matches(msg, m.keymap.Submit):
			if m.focused < fieldCount-1 {
				return m.focusField(m.focused + 1)
			}
			if problem := m.validate(); problem != "" {
				m.errMsg = problem
				return m, nil
			}
			m.next = true
			return m, tea.Quit
		}

		// An ordinary typing key clears the last validation message.
		m.errMsg = ""
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m PathsModel) focusField(idx int) (tea.Model, tea.Cmd) {
	m.inputs[m.focused].Blur()
	m.focused = idx
	return m, m.inputs[m.focused].Focus()
}

// validate checks both fields and returns a message for the first
// problem, or "" when the values are usable.
func (m PathsModel) validate() string {
	for i, label := range []string{"downloads directory", "destination directory"} {
		value := strings.TrimSpace(m.inputs[i].Value())
		if value == "" {
			value = m.inputs[i].Placeholder
		}
		if value == "" {
			return "the " + label + " is required"
		}
		if !filepath.IsAbs(expandHome(value)) {
			return "the " + label + " must be an absolute path (~/... works)"
		}
	}
	return ""
}

// fieldValue returns the cleaned value of one field, falling back to the
// placeholder default when the field was left empty.
func (m PathsModel) fieldValue(idx int) string {
	value := strings.TrimSpace(m.inputs[idx].Value())
	if value == "" {
		value = m.inputs[idx].Placeholder
	}
	return filepath.Clean(expandHome(value))
}

// Downloads returns the chosen downloads directory.
func (m PathsModel) Downloads() string {
	return m.fieldValue(fieldDownloads)
}

// Destination returns the chosen destination base directory.
func (m PathsModel) Destination() string {
	return m.fieldValue(fieldDest)
}

// View implements tea.Model.
func (m PathsModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.styles.title.Render("Where do your files live?"))
	b.WriteString("\n")

	b.WriteString(m.styles.subtitle.Render("Empty fields keep the suggested default"))
	b.WriteString("\n\n")

	labels := []string{"Downloads directory", "Destination directory"}
	hints := []string{
		"New files are picked up here (plumb watch)",
		"Sorted files land in Videos, Music, ... under this directory",
	}

	for i := range m.inputs {
		b.WriteString(m.styles.label.Render(labels[i]))
		b.WriteString("\n")
		box := m.styles.unfocused
		if i == m.focused {
			box = m.styles.focused
		}
		b.WriteString(box.Render(m.inputs[i].View()))
		b.WriteString("\n")
		b.WriteString("  " + m.styles.subtle.Render(hints[i]))
		b.WriteString("\n\n")
	}

	if m.errMsg != "" {
		b.WriteString(m.styles.error.Render("✗ " + m.errMsg))
		b.WriteString("\n\n")
	}

	b.WriteString(renderStepIndicator(StatePaths, m.styles))
	b.WriteString("\n\n")

	shortcuts := []string{"tab: switch field", "enter: continue", "esc: back", "ctrl+c: quit"}
	b.WriteString(renderHelp(shortcuts, m.styles))
	b.WriteString("\n\n")

	b.WriteString(m.styles.statusBar.Render("Enter on the last field continues"))
	b.WriteString("\n")

	return b.String()
}

// ShouldContinue returns true if the user wants to continue.
func (m PathsModel) ShouldContinue() bool {
	return m.next
}

// ShouldGoBack returns true if the user wants to go back.
func (m PathsModel) ShouldGoBack() bool {
	return m.back
}
