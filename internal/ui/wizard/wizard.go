// Package wizard provides the terminal user interface for plumb init.
package wizard

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/plumbfile/plumb/internal/rules"
)

// Wizard orchestrates the multi-step wizard flow.
type Wizard struct {
	state     WizardState
	rulesPath string
	force     bool

	// Shared data across screens
	downloads string
	dest      string
	rules     string

	// Screen models
	welcomeModel WelcomeModel
	pathsModel   PathsModel
	reviewModel  ReviewModel
	successModel SuccessModel

	// Result
	result WizardResult
}

// NewWizard creates a new wizard instance. An empty rulesPath means the
// default rules location.
func NewWizard(rulesPath string, force bool) *Wizard {
	if rulesPath == "" {
		rulesPath = rules.DefaultPath()
	}

	return &Wizard{
		state:     StateWelcome,
		rulesPath: rulesPath,
		force:     force,
		result: WizardResult{
			State: StateWelcome,
		},
	}
}

var newWizard = NewWizard

type programRunner interface {
	Run() (tea.Model, error)
}

var newProgram = func(model tea.Model) programRunner {
	return tea.NewProgram(model)
}

var runWizard = func(w *Wizard) (WizardResult, error) {
	return w.Run()
}

// Run executes the wizard flow and returns the result.
func (w *Wizard) Run() (WizardResult, error) {
	for {
		switch w.state {
		case StateWelcome:
			if err := w.runWelcome(); err != nil {
				return w.handleError(err)
			}

		case StatePaths:
			if err := w.runPaths(); err != nil {
				return w.handleError(err)
			}

		case StateReview:
			if err := w.runReview(); err != nil {
				return w.handleError(err)
			}

		case StateSuccess:
			if err := w.runSuccess(); err != nil {
				return w.handleError(err)
			}
			// Success is the final state
			w.result.State = StateSuccess
			w.result.Rules = w.rules
			w.result.Path = w.rulesPath
			return w.result, nil

		case StateQuit:
			w.result.State = StateQuit
			return w.result, nil

		case StateError:
			w.result.State = StateError
			return w.result, w.result.Error

		default:
			return w.handleError(fmt.Errorf("unknown wizard state: %v", w.state))
		}
	}
}

// runWelcome runs the welcome screen.
func (w *Wizard) runWelcome() error {
	w.welcomeModel = NewWelcomeModel()
	p := newProgram(w.welcomeModel)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("welcome screen error: %w", err)
	}

	model, ok := finalModel.(WelcomeModel)
	if !ok {
		return fmt.Errorf("unexpected model type from welcome screen")
	}

	if model.ShouldContinue() {
		w.state = StatePaths
	} else {
		w.state = StateQuit
	}

	return nil
}

// runPaths runs the directory input screen.
func (w *Wizard) runPaths() error {
	w.pathsModel = NewPathsModel(w.downloads, w.dest)
	p := newProgram(w.pathsModel)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("directory screen error: %w", err)
	}

	model, ok := finalModel.(PathsModel)
	if !ok {
		return fmt.Errorf("unexpected model type from directory screen")
	}

	switch {
	case model.ShouldGoBack():
		w.state = StateWelcome
	case model.ShouldContinue():
		w.downloads = model.Downloads()
		w.dest = model.Destination()
		w.rules = StarterRules(w.downloads, w.dest)
		w.state = StateReview
	default:
		w.state = StateQuit
	}

	return nil
}

// runReview runs the rules preview screen.
func (w *Wizard) runReview() error {
	w.reviewModel = NewReviewModel(w.rules, w.rulesPath)
	p := newProgram(w.reviewModel)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("review screen error: %w", err)
	}

	model, ok := finalModel.(ReviewModel)
	if !ok {
		return fmt.Errorf("unexpected model type from review screen")
	}

	switch {
	case model.ShouldGoBack():
		w.state = StatePaths
	case model.ShouldContinue():
		if err := w.saveRules(); err != nil {
			return err
		}
		w.state = StateSuccess
	default:
		w.state = StateQuit
	}

	return nil
}

// runSuccess runs the success screen.
func (w *Wizard) runSuccess() error {
	w.successModel = NewSuccessModel(w.rulesPath, w.downloads)
	p := newProgram(w.successModel)

	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("success screen error: %w", err)
	}

	return nil
}

// saveRules writes the generated rules file to disk.
func (w *Wizard) saveRules() error {
	if info, err := os.Stat(w.rulesPath); err == nil && w.force {
		log.Warn("overwriting existing rules file",
			"path", w.rulesPath,
			"previous_size", info.Size(),
			"previous_modified", info.ModTime())
	}

	return WriteRules(w.rulesPath, w.rules, w.force)
}

// handleError handles an error and sets the wizard to error state.
func (w *Wizard) handleError(err error) (WizardResult, error) {
	w.state = StateError
	w.result.State = StateError
	w.result.Error = err
	return w.result, err
}

// RunWizard creates and runs the wizard against a rules path.
func RunWizard(rulesPath string, force bool) (WizardResult, error) {
	return runWizard(newWizard(rulesPath, force))
}
