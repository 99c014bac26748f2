package cli_commands

import (
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"alabs.org/doorbell-bridge/bridge"
	"alabs.org/doorbell-bridge/broadcast"
	"alabs.org/doorbell-bridge/status"
)

var sendCmd = &cobra.Command{
	Use:     "send <command>",
	Short:   "Publishes a single command to the doorbell",
	Long:    "Publishes a single command, such as LOCK or UNLOCK, verbatim to the doorbell control topic",
	Example: "  doorbell send UNLOCK",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := strings.Join(args, " ")
	if strings.TrimSpace(command) == "" {
		return withExitCode(ExitConfig, bridge.ErrMissingCommand)
	}

	eventJournal, err := openJournal(ctx)
	if err != nil {
		return err
	}
	var recorder bridge.Recorder
	if eventJournal != nil {
		defer eventJournal.Close()
		recorder = eventJournal
	}

	connection, err := dialBroker(ctx, brokerOptions("doorbell-send"))
	if err != nil {
		return err
	}
	defer disconnect(connection)

	relay := bridge.New(status.NewStore(), broadcast.NewBroadcaster(1), connection, recorder)
	defer flushJournal(relay)
	if err := relay.SendCommand(ctx, command); err != nil {
		if errors.Is(err, bridge.ErrMissingCommand) {
			return withExitCode(ExitConfig, err)
		}
		return withExitCode(ExitPublish, err)
	}

	log.Info().
		Str("event", "done").
		Str("command", command).
		Msg("Finished publishing command")
	return nil
}
