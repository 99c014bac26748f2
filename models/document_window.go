package models

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"alabs.org/doorbell-bridge/messages"
	"alabs.org/doorbell-bridge/mqtt"
)

// DocumentWindow lays the status panel and the log side by side and writes
// every broker event to the log.
type DocumentWindow struct {
	StatusWindow StatusWindow
	LogWindow    LogWindow
	Window
}

func NewDocumentWindow(ctx context.Context, options mqtt.Options, width int, height int) DocumentWindow {
	documentWindow := DocumentWindow{
		StatusWindow: NewStatusWindow(ctx, options, true),
		LogWindow:    NewLogWindow(),
		Window: Window{
			Margin:  Orientation{0, 0, 0, 0},
			Padding: Orientation{0, 1, 0, 1},
			Border:  Border{false, false, false, false},
		},
	}
	return documentWindow.UpdateDimensions(width, height)
}

func (documentWindow DocumentWindow) UpdateDimensions(width int, height int) DocumentWindow {
	documentWindow.SetWidth(width)
	documentWindow.SetHeight(height)
	statusWidth := documentWindow.GetInnerWidth() / 2
	logWidth := documentWindow.GetInnerWidth() - statusWidth
	documentWindow.StatusWindow = documentWindow.StatusWindow.UpdateDimensions(statusWidth, documentWindow.GetInnerHeight())
	documentWindow.LogWindow = documentWindow.LogWindow.UpdateDimensions(logWidth, documentWindow.GetInnerHeight())
	return documentWindow
}

func (documentWindow DocumentWindow) Init() tea.Cmd {
	return documentWindow.StatusWindow.Init()
}

func (documentWindow DocumentWindow) log(msg tea.Msg) DocumentWindow {
	logs := &documentWindow.LogWindow
	switch msg := msg.(type) {
	case messages.MqttServerConnection:
		if msg.Err != nil {
			logs.Error("Failed to start connection manager: %v", msg.Err)
			break
		}
		logs.Info("Connection manager started as %s", msg.Connection.ClientID())
	case messages.MqttStatus:
		switch {
		case msg.Connected:
			logs.Info("Connected to MQTT broker, listening on %s", mqtt.ControlTopic)
		case msg.Err != nil:
			logs.Error("MQTT error (%d): %v", msg.Code, msg.Err)
		default:
			logs.Warn("Disconnected by broker (%d): %s", msg.Code, msg.Reason)
		}
	case messages.CommandReceived:
		if msg.Replied {
			logs.Info("Received command %q, answering %s", msg.Command, msg.Reply)
		} else {
			logs.Info("Received command %q", msg.Command)
		}
	case messages.PublishMessage:
		if msg.Err != nil {
			logs.Error("Failed to publish %q to %s: %v", msg.Payload, msg.Topic, msg.Err)
			break
		}
		logs.Info("Published %q to %s", msg.Payload, msg.Topic)
	}
	return documentWindow
}

func (documentWindow DocumentWindow) Update(msg tea.Msg) (DocumentWindow, tea.Cmd) {
	documentWindow = documentWindow.log(msg)

	var statusCmd, logCmd tea.Cmd
	documentWindow.StatusWindow, statusCmd = documentWindow.StatusWindow.Update(msg)
	documentWindow.LogWindow, logCmd = documentWindow.LogWindow.Update(msg)
	return documentWindow, tea.Batch(statusCmd, logCmd)
}

func (documentWindow *DocumentWindow) Render() string {
	return documentWindow.Window.Render(
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			documentWindow.StatusWindow.Render(),
			documentWindow.LogWindow.Render(),
		),
	)
}
