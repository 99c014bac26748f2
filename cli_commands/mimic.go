package cli_commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"alabs.org/doorbell-bridge/models"
)

var mimicCmd = &cobra.Command{
	Use:   "mimic",
	Short: "Mimics a doorbell for easier testing",
	Long:  "Mimics what a doorbell would publish and answers LOCK and UNLOCK commands for easier testing",
	RunE:  runMimic,
}

func init() {
	rootCmd.AddCommand(mimicCmd)
}

func runMimic(cmd *cobra.Command, _ []string) error {
	// The TUI owns the terminal while it runs.
	logger := log.Logger
	log.Logger = zerolog.Nop()
	defer func() { log.Logger = logger }()

	final, err := tea.NewProgram(
		models.InitMimicModel(cmd.Context(), brokerOptions("doorbell-mimic")),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	).Run()

	if model, ok := final.(models.MimicModel); ok {
		if connection := model.Connection(); connection != nil {
			disconnect(connection)
		}
	}

	if err != nil {
		return withExitCode(ExitFatal, fmt.Errorf("running TUI: %w", err))
	}
	return nil
}
