package cli_commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"alabs.org/doorbell-bridge/bridge"
	"alabs.org/doorbell-bridge/broadcast"
	"alabs.org/doorbell-bridge/journal"
	"alabs.org/doorbell-bridge/metrics"
	"alabs.org/doorbell-bridge/mqtt"
	"alabs.org/doorbell-bridge/server"
	"alabs.org/doorbell-bridge/status"
)

const disconnectTimeout = time.Second * 5

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the status relay and the web dashboard",
	Long:  "Subscribes to the doorbell status topic, serves the live dashboard and forwards dashboard commands to the control topic",
	RunE:  runServe,
}

var listenAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Address the dashboard listens on (LISTEN_ADDR)")
}

// openJournal returns nil values when no database is configured.
func openJournal(ctx context.Context) (*journal.Journal, error) {
	if !cfg.JournalEnabled() {
		log.Info().
			Str("event", "JournalDisabled").
			Msg("No database configured, journal disabled")
		return nil, nil
	}
	eventJournal, err := journal.Open(ctx, cfg.DBConnectionURI)
	if err != nil {
		log.Error().
			Str("error", err.Error()).
			Str("event", "DatabaseConnection").
			Msg(fmt.Sprintf("Failed to open journal: %v", err))
		return nil, withExitCode(ExitDatabase, err)
	}
	return eventJournal, nil
}

func brokerOptions(clientPrefix string) mqtt.Options {
	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = mqtt.NewClientID(clientPrefix)
	}
	return mqtt.Options{
		URI:      cfg.MQTTURI,
		Username: cfg.MQTTUser,
		Password: cfg.MQTTPassword,
		ClientID: clientID,
		QoS:      mqtt.DefaultQoS,
	}
}

// dialBroker starts a connection and waits for the first connect.
func dialBroker(ctx context.Context, options mqtt.Options) (*mqtt.Connection, error) {
	connection, err := mqtt.Dial(ctx, options)
	if err != nil {
		return nil, withExitCode(ExitConfig, err)
	}
	if err := awaitBroker(ctx, connection); err != nil {
		disconnect(connection)
		return nil, err
	}
	return connection, nil
}

// awaitBroker bounds the first connection attempt. Later drops are
// reconnected by the connection manager.
func awaitBroker(ctx context.Context, connection *mqtt.Connection) error {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.MQTTConnectTimeout)
	defer cancel()
	if err := connection.AwaitConnection(connectCtx); err != nil {
		log.Error().
			Str("error", err.Error()).
			Str("event", "AwaitConnection").
			Str("uri", cfg.MQTTURI).
			Msg(fmt.Sprintf("Could not connect to MQTT broker: %v", err))
		return withExitCode(ExitBrokerConnect, fmt.Errorf("%w: %v", bridge.ErrBrokerConnect, err))
	}
	return nil
}

func disconnect(connection *mqtt.Connection) {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := connection.Disconnect(ctx); err != nil {
		log.Debug().
			Str("error", err.Error()).
			Str("event", "Disconnect").
			Msg("MQTT disconnect returned an error")
	}
	select {
	case <-connection.Done():
	case <-ctx.Done():
		log.Warn().
			Str("event", "Disconnect").
			Msg("Timed out waiting for MQTT connection to close")
	}
}

// flushJournal lets queued journal writes finish before the database closes.
func flushJournal(relay *bridge.Bridge) {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := relay.Close(ctx); err != nil {
		log.Warn().
			Str("error", err.Error()).
			Str("event", "JournalFlush").
			Msg("Gave up waiting for journal writes")
	}
}

func watchConnection(ctx context.Context, statuses <-chan mqtt.Status) {
	for {
		select {
		case <-ctx.Done():
			return
		case connectionStatus := <-statuses:
			if connectionStatus.Connected {
				metrics.BrokerConnected.Set(1)
				continue
			}
			metrics.BrokerConnected.Set(0)
			log.Warn().
				Str("event", "BrokerConnectionLost").
				Uint8("code", connectionStatus.Code).
				Str("reason", connectionStatus.Reason).
				Msg("MQTT connection lost, reconnecting")
		}
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// App will run until cancelled by user (e.g. ctrl-c)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventJournal, err := openJournal(ctx)
	if err != nil {
		return err
	}
	var recorder bridge.Recorder
	var history server.History
	if eventJournal != nil {
		defer eventJournal.Close()
		recorder = eventJournal
		history = eventJournal
	}

	group, groupCtx := errgroup.WithContext(ctx)

	inbound := make(chan mqtt.Message, 64)
	statuses := make(chan mqtt.Status, 8)
	options := brokerOptions("doorbell-bridge")
	options.Subscriptions = []string{mqtt.StatusTopic}
	options.Messages = inbound
	options.Statuses = statuses

	connection, err := dialBroker(groupCtx, options)
	if err != nil {
		return err
	}
	defer disconnect(connection)
	metrics.BrokerConnected.Set(1)

	broadcaster := broadcast.NewBroadcaster(cfg.SessionBuffer)
	defer broadcaster.Close()

	relay := bridge.New(status.NewStore(), broadcaster, connection, recorder)
	dashboard := server.New(relay, connection, history, server.Options{
		ListenAddr:   cfg.ListenAddr,
		CommandRate:  cfg.CommandRate,
		CommandBurst: cfg.CommandBurst,
	})

	group.Go(func() error {
		return relay.Run(groupCtx, inbound)
	})
	group.Go(func() error {
		return dashboard.Run(groupCtx)
	})
	group.Go(func() error {
		watchConnection(groupCtx, statuses)
		return nil
	})

	if err := notifyReady(); err != nil && !errors.Is(err, NotifySocketNotFound) {
		stop()
	}

	err = group.Wait()

	log.Info().
		Str("event", "stopping").
		Msg("Termination signal received")
	notifyStopping()
	flushJournal(relay)

	if err != nil {
		return withExitCode(ExitFatal, err)
	}
	return nil
}
