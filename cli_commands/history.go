package cli_commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"alabs.org/doorbell-bridge/journal"
)

var errJournalDisabled = errors.New("history requires DB_CONNECTION_URI")

var historyLimit int
var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists recent doorbell messages from the journal",
	Long:  "Lists the most recent status messages and commands recorded in the journal database, newest first",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of events to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print events as JSON")
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func runHistory(cmd *cobra.Command, _ []string) error {
	if !cfg.JournalEnabled() {
		return withExitCode(ExitConfig, errJournalDisabled)
	}
	if historyLimit <= 0 {
		return withExitCode(ExitConfig, fmt.Errorf("limit must be positive, got %d", historyLimit))
	}

	eventJournal, err := openJournal(cmd.Context())
	if err != nil {
		return err
	}
	defer eventJournal.Close()

	events, err := eventJournal.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return withExitCode(ExitDatabase, err)
	}

	if historyJSON {
		return writeEventsJSON(cmd.OutOrStdout(), events)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), renderEvents(events))
	return err
}

func writeEventsJSON(out io.Writer, events []journal.Event) error {
	if events == nil {
		events = []journal.Event{}
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(events)
}

func renderEvents(events []journal.Event) string {
	rows := make([][]string, 0, len(events))
	for _, event := range events {
		rows = append(rows, []string{
			strconv.FormatInt(event.ID, 10),
			event.CreatedAt.Local().Format(time.DateTime),
			string(event.Direction),
			event.Topic,
			event.Payload,
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == 0 {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("ID", "TIME", "DIRECTION", "TOPIC", "PAYLOAD").
		Rows(rows...).
		Render()
}
