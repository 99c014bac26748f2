package cli_commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"alabs.org/doorbell-bridge/config"
)

// Exit codes of the doorbell binary.
const (
	ExitFatal         = 1
	ExitConfig        = 2
	ExitBrokerConnect = 3
	ExitPublish       = 4
	ExitDatabase      = 5
)

type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func withExitCode(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

var rootCmd = &cobra.Command{
	Use:               "doorbell",
	Short:             "Relays a doorbell's MQTT status to a live web dashboard",
	Long:              "Relays a doorbell's MQTT status to a live web dashboard and forwards dashboard commands back to the device",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	log.Error().
		Str("error", err.Error()).
		Str("event", "Fatal").
		Msg(fmt.Sprintf("Fatal error occurred: %v", err))

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	os.Exit(ExitFatal)
}

var username string
var password string
var mqttUri string
var dbUri string

// cfg is filled in before any subcommand runs.
var cfg *config.Config

func init() {
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "Username used to authenticate with the MQTT Broker (MQTT_USER)")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "Password used to authenticate with the MQTT Broker (MQTT_PASSWORD)")
	rootCmd.PersistentFlags().StringVarP(&mqttUri, "mqtt_uri", "m", "", "Uri used to connect to the mqtt broker (MQTT_URI)")
	rootCmd.PersistentFlags().StringVarP(&dbUri, "db_uri", "d", "", "Uri used to connect to the journal database (DB_CONNECTION_URI)")
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Read()
	if err != nil {
		return withExitCode(ExitConfig, err)
	}

	applyFlags(cmd, loaded)

	if err := loaded.Validate(); err != nil {
		return withExitCode(ExitConfig, err)
	}
	if err := setupLogger(loaded.LogLevel, loaded.LogFormat); err != nil {
		return withExitCode(ExitConfig, err)
	}

	cfg = loaded
	return nil
}

// applyFlags lets explicitly set flags win over the environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("mqtt_uri") {
		cfg.MQTTURI = mqttUri
	}
	if flags.Changed("username") {
		cfg.MQTTUser = username
	}
	if flags.Changed("password") {
		cfg.MQTTPassword = password
	}
	if flags.Changed("db_uri") {
		cfg.DBConnectionURI = dbUri
	}
	if flags.Changed("listen") {
		cfg.ListenAddr = listenAddr
	}
}
