// Package wizard provides the terminal user interface for plumb init.
package wizard

import (
	"github.com/charmbracelet/lipgloss"
)

// wizardStyles defines the shared styles for the wizard UI.
type wizardStyles struct {
	title     lipgloss.Style
	subtitle  lipgloss.Style
	success   lipgloss.Style
	error     lipgloss.Style
	warning   lipgloss.Style
	info      lipgloss.Style
	subtle    lipgloss.Style
	bold      lipgloss.Style
	focused   lipgloss.Style
	unfocused lipgloss.Style
	statusBar lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
}

// defaultWizardStyles returns the default wizard styles.
func defaultWizardStyles() wizardStyles {
	return wizardStyles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Padding(0, 1).
			MarginBottom(1),
		subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			MarginBottom(1),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")),
		subtle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		bold: lipgloss.NewStyle().
			Bold(true),
		focused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("42")).
			Padding(0, 1),
		unfocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		statusBar: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1),
		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(24),
		value: lipgloss.NewStyle().
			Bold(true),
	}
}

// WizardState represents the current state of the wizard.
type WizardState int

const (
	// StateWelcome is the welcome screen.
	StateWelcome WizardState = iota
	// StatePaths is the directory input screen.
	StatePaths
	// StateReview is the rules preview screen.
	StateReview
	// StateSuccess is the success screen.
	StateSuccess
	// StateError indicates an error occurred.
	StateError
	// StateQuit indicates the user quit the wizard.
	StateQuit
)

// WizardResult represents the result of the wizard.
type WizardResult struct {
	// State is the final state of the wizard.
	State WizardState
	// Rules is the generated rules file content.
	Rules string
	// Path is where the rules file was written.
	Path string
	// Error is any error that occurred.
	Error error
}

// wizardBanner returns the ASCII art banner for the wizard.
func wizardBanner() string {
	return `
       _                 _
 _ __ | |_   _ _ __ ___ | |__
| '_ \| | | | | '_ ' _ \| '_ \
| |_) | | |_| | | | | | | |_) |
| .__/|_|\__,_|_| |_| |_|_.__/
|_|
`
}

// wizardWelcome returns the welcome message.
func wizardWelcome() string {
	return "Welcome to the plumb setup wizard!\n\n" +
		"This wizard writes a starter rules file in under a minute.\n" +
		"Tell it where your downloads land and where sorted files should go."
}

// renderStepIndicator renders a step indicator showing which step the user is on.
func renderStepIndicator(current WizardState, styles wizardStyles) string {
	steps := []struct {
		state WizardState
		name  string
	}{
		{StateWelcome, "Welcome"},
		{StatePaths, "Directories"},
		{StateReview, "Review"},
		{StateSuccess, "Complete"},
	}

	result := ""
	for i, step := range steps {
		if i > 0 {
			result += styles.subtle.Render(" > ")
		}

		if step.state == current {
			result += styles.success.Render("●") + " " + styles.bold.Render(step.name)
		} else if step.state < current {
			result += styles.success.Render("✓") + " " + styles.subtle.Render(step.name)
		} else {
			result += styles.subtle.Render("○") + " " + styles.subtle.Render(step.name)
		}
	}

	return result
}

// renderHelp renders a help section with keyboard shortcuts.
func renderHelp(shortcuts []string, styles wizardStyles) string {
	result := styles.subtle.Render("Shortcuts: ")
	for i, shortcut := range shortcuts {
		if i > 0 {
			result += styles.subtle.Render(" • ")
		}
		result += styles.info.Render(shortcut)
	}
	return result
}
