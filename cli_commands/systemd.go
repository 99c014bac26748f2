package cli_commands

import (
	"errors"
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog/log"
)

var (
	NotifySocketNotFound = errors.New("Notify socket was not found!")
)

func handleNotifyError(state bool, err error, notification string) error {
	if !state && err != nil {
		log.Error().
			Str("error", err.Error()).
			Str("event", "SystemdNotify").
			Str("notification", notification).
			Msg(fmt.Sprintf("Systemd notify supported but failed: %v", err))
		return err
	}
	if !state && err == nil {
		log.Debug().
			Str("event", "SystemdNotify").
			Str("notification", notification).
			Msg("Systemd notify not supported")
		return NotifySocketNotFound
	}
	log.Info().
		Str("event", "SystemdNotify").
		Str("notification", notification).
		Msg(fmt.Sprintf("Systemd %s notification sent", notification))
	return nil
}

func notifyReady() error {
	state, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	return handleNotifyError(state, err, "ready")
}

func notifyStopping() error {
	state, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	return handleNotifyError(state, err, "stopping")
}
