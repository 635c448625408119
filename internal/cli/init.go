package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plumbfile/plumb/internal/rules"
	"github.com/plumbfile/plumb/internal/ui/wizard"
)

var (
	initForce     bool
	initDownloads string
	initDest      string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter rules file",
	Long: `Write a starter rules file that sorts downloads by type.

Without flags this runs an interactive wizard: it asks for the
downloads and destination directories, shows the generated rules, and
saves them where plumb looks by default. Passing --downloads or --dest
skips the wizard and writes the file directly.

Examples:
  # Interactive setup
  plumb init

  # Scripted setup
  plumb init --downloads ~/Downloads --dest /srv/media --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing rules file")
	initCmd.Flags().StringVar(&initDownloads, "downloads", "", "downloads directory for the usage hints (skips the wizard)")
	initCmd.Flags().StringVar(&initDest, "dest", "", "destination directory files sort into (skips the wizard)")
}

// runInit implements the init command.
func runInit(cmd *cobra.Command, args []string) error {
	// Config loading is skipped for init, so only the flag and the
	// default search decide where the rules land.
	rulesPath := rulesFile
	if rulesPath == "" {
		rulesPath = rules.DefaultPath()
	}

	// Non-interactive mode when the directories come from flags.
	if cmd.Flags().Changed("downloads") || cmd.Flags().Changed("dest") {
		downloads := initDownloads
		if downloads == "" {
			downloads = wizard.DefaultDownloads()
		}
		dest := initDest
		if dest == "" {
			dest = wizard.DefaultDestination()
		}

		content := wizard.StarterRules(downloads, dest)
		if err := wizard.WriteRules(rulesPath, content, initForce); err != nil {
			return err
		}

		printSuccess("Rules written to " + rulesPath)
		fmt.Println()
		printTitle("Next Steps")
		fmt.Println()
		fmt.Println("  1. Adjust the patterns in " + rulesPath)
		fmt.Println("  2. Run 'plumb check' to validate")
		fmt.Println("  3. Try 'plumb route --dry-run FILE' on something in " + downloads)
		fmt.Println("  4. Run 'plumb watch " + downloads + "' to sort files as they arrive")
		return nil
	}

	// Interactive wizard mode
	result, err := wizard.RunWizard(rulesPath, initForce)
	if err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}

	switch result.State {
	case wizard.StateSuccess:
		// Wizard completed, rules already saved
		return nil

	case wizard.StateQuit:
		printInfo("Setup canceled")
		return nil

	case wizard.StateError:
		return fmt.Errorf("wizard error: %w", result.Error)

	default:
		return fmt.Errorf("unexpected wizard state: %v", result.State)
	}
}
