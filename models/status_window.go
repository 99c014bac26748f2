package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"alabs.org/doorbell-bridge/commands"
	"alabs.org/doorbell-bridge/messages"
	"alabs.org/doorbell-bridge/mqtt"
	"alabs.org/doorbell-bridge/status"
)

var ErrNotConnected = errors.New("not connected to MQTT broker")

type quickKeys struct {
	lock     key.Binding
	unlock   key.Binding
	ring     key.Binding
	burglar  key.Binding
	nextPane key.Binding
}

// StatusWindow drives the simulated doorbell: it owns the broker connection,
// the device state it has reported and the panels used to publish.
type StatusWindow struct {
	ctx                   context.Context
	options               mqtt.Options
	serverConnection      *mqtt.Connection
	mqttMessages          chan mqtt.Message
	mqttConnectionStatus  chan mqtt.Status
	device                *status.Store
	tabIndex              int
	maxTabIndex           int
	keys                  quickKeys
	Err                   error
	Spinner               spinner.Model
	IsConnected           bool
	Initialized           bool
	ResponseOptionsWindow ResponseOptionsWindow
	DoorMessageWindow     DoorMessageWindow
	TextInputWindow       TextInputWindow
	Window
}

func NewStatusWindow(ctx context.Context, options mqtt.Options, focused bool) StatusWindow {
	statusSpinner := spinner.New()
	statusSpinner.Spinner = spinner.Dot
	statusSpinner.Style = spinnerStyle

	mqttMessages := make(chan mqtt.Message)
	mqttConnectionStatus := make(chan mqtt.Status, 8)
	options.Messages = mqttMessages
	options.Statuses = mqttConnectionStatus
	options.Subscriptions = []string{mqtt.ControlTopic}

	return StatusWindow{
		ctx:                  ctx,
		options:              options,
		mqttMessages:         mqttMessages,
		mqttConnectionStatus: mqttConnectionStatus,
		device:               status.NewStore(),
		tabIndex:             0,
		maxTabIndex:          2,
		keys: quickKeys{
			lock:     key.NewBinding(key.WithKeys("l")),
			unlock:   key.NewBinding(key.WithKeys("u")),
			ring:     key.NewBinding(key.WithKeys("r")),
			burglar:  key.NewBinding(key.WithKeys("b")),
			nextPane: key.NewBinding(key.WithKeys("tab")),
		},
		Spinner:               statusSpinner,
		ResponseOptionsWindow: NewResponseOptionsWindow(false, 0),
		DoorMessageWindow:     NewDoorMessageWindow(false, 0),
		TextInputWindow:       NewTextInputWindow(false, 0),
		Window: Window{
			focused: focused,
			Margin:  Orientation{1, 1, 0, 0},
			Padding: Orientation{1, 2, 1, 2},
			Border:  Border{true, true, true, true},
		},
	}
}

func (statusWindow StatusWindow) Init() tea.Cmd {
	return tea.Batch(
		commands.InitConnection(statusWindow.ctx, statusWindow.options),
		statusWindow.Spinner.Tick,
	)
}

func (statusWindow StatusWindow) Connection() *mqtt.Connection {
	return statusWindow.serverConnection
}

// Device is the state the simulator has reported so far.
func (statusWindow StatusWindow) Device() status.Snapshot {
	return statusWindow.device.Snapshot()
}

func (statusWindow StatusWindow) publish(payload string) tea.Cmd {
	if statusWindow.serverConnection == nil {
		return func() tea.Msg {
			return messages.PublishMessage{Topic: mqtt.StatusTopic, Payload: payload, Err: ErrNotConnected}
		}
	}
	return commands.PublishStatus(statusWindow.ctx, statusWindow.serverConnection, payload)
}

func (statusWindow StatusWindow) typing() bool {
	return statusWindow.IsFocused() && statusWindow.tabIndex == 2
}

func (statusWindow StatusWindow) Update(msg tea.Msg) (StatusWindow, tea.Cmd) {
	cmds := make([]tea.Cmd, 0)
	switchedPane := false

	switch msg := msg.(type) {
	case messages.MqttServerConnection:
		if msg.Err != nil {
			statusWindow.Initialized = false
			statusWindow.Err = msg.Err
			break
		}
		statusWindow.Initialized = true
		statusWindow.serverConnection = msg.Connection
		cmds = append(
			cmds,
			commands.WaitForStatus(statusWindow.mqttConnectionStatus),
			commands.WaitForMessage(statusWindow.mqttMessages),
		)
	case messages.MqttStatus:
		statusWindow.IsConnected = msg.Connected
		cmds = append(cmds, commands.WaitForStatus(statusWindow.mqttConnectionStatus))
	case messages.MqttMessage:
		if msg.Topic == mqtt.ControlTopic && statusWindow.serverConnection != nil {
			cmds = append(cmds, commands.HandleCommand(
				statusWindow.ctx,
				statusWindow.serverConnection,
				msg.Payload,
				statusWindow.ResponseOptionsWindow.Enabled(),
			))
		}
		cmds = append(cmds, commands.WaitForMessage(statusWindow.mqttMessages))
	case messages.PublishMessage:
		if msg.Err == nil && msg.Topic == mqtt.StatusTopic {
			statusWindow.device.Apply(msg.Payload)
		}
	case SendStatusMessage:
		cmds = append(cmds, statusWindow.publish(msg.Payload))
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, statusWindow.keys.nextPane):
			if statusWindow.IsFocused() {
				statusWindow.tabIndex = (statusWindow.tabIndex + 1) % (statusWindow.maxTabIndex + 1)
				switchedPane = true
			}
		case statusWindow.typing():
		case key.Matches(msg, statusWindow.keys.lock):
			cmds = append(cmds, statusWindow.publish(status.PayloadDoorLocked))
		case key.Matches(msg, statusWindow.keys.unlock):
			cmds = append(cmds, statusWindow.publish(status.PayloadDoorUnlocked))
		case key.Matches(msg, statusWindow.keys.ring):
			cmds = append(cmds, statusWindow.publish(status.PayloadRinging))
		case key.Matches(msg, statusWindow.keys.burglar):
			cmds = append(cmds, statusWindow.publish(status.PayloadBurglarAlert))
		}
	case spinner.TickMsg:
		var spinnerCmd tea.Cmd
		statusWindow.Spinner, spinnerCmd = statusWindow.Spinner.Update(msg)
		cmds = append(cmds, spinnerCmd)
	}

	statusWindow.ResponseOptionsWindow = statusWindow.ResponseOptionsWindow.Blur()
	statusWindow.DoorMessageWindow = statusWindow.DoorMessageWindow.Blur()
	statusWindow.TextInputWindow = statusWindow.TextInputWindow.Blur()
	if statusWindow.IsFocused() {
		switch statusWindow.tabIndex {
		case 0:
			statusWindow.ResponseOptionsWindow = statusWindow.ResponseOptionsWindow.Focus()
		case 1:
			statusWindow.DoorMessageWindow = statusWindow.DoorMessageWindow.Focus()
		case 2:
			statusWindow.TextInputWindow = statusWindow.TextInputWindow.Focus()
		}
	}

	if !switchedPane {
		statusWindow.ResponseOptionsWindow = statusWindow.ResponseOptionsWindow.Update(msg)
		var doorMessageCmd tea.Cmd
		statusWindow.DoorMessageWindow, doorMessageCmd = statusWindow.DoorMessageWindow.Update(msg)
		var textInputCmd tea.Cmd
		statusWindow.TextInputWindow, textInputCmd = statusWindow.TextInputWindow.Update(msg)
		cmds = append(cmds, doorMessageCmd, textInputCmd)
	}

	return statusWindow, tea.Batch(cmds...)
}

func (statusWindow StatusWindow) UpdateDimensions(width int, height int) StatusWindow {
	statusWindow.SetWidth(width)
	statusWindow.SetHeight(height)
	statusWindow.ResponseOptionsWindow.SetWidth(statusWindow.GetInnerWidth())
	statusWindow.DoorMessageWindow.SetWidth(statusWindow.GetInnerWidth())
	statusWindow.TextInputWindow.SetWidth(statusWindow.GetInnerWidth())
	return statusWindow
}

func renderDoor(door status.Door) string {
	if door == status.Unlocked {
		return unlockedStyle.Render(door.String())
	}
	return lockedStyle.Render(door.String())
}

func renderAlert(alert status.Alert) string {
	switch alert {
	case status.Ringing:
		return ringingStyle.Render(alert.Label())
	case status.Intruder:
		return intruderStyle.Render(alert.Label())
	}
	return noAlertStyle.Render(alert.Label())
}

func (statusWindow *StatusWindow) Render() string {
	var connection string
	if statusWindow.Err != nil && !statusWindow.Initialized {
		connection = fmt.Sprintf("%s Failed to start connection manager: %v", statusWindow.Spinner.View(), statusWindow.Err)
	} else if !statusWindow.Initialized {
		connection = fmt.Sprintf("%s Starting connection manager", statusWindow.Spinner.View())
	} else if !statusWindow.IsConnected {
		connection = fmt.Sprintf("%s Attempting to connect", statusWindow.Spinner.View())
	} else {
		connection = fmt.Sprintf("%s Connected as %s", statusWindow.Spinner.View(), statusWindow.serverConnection.ClientID())
	}

	device := statusWindow.Device()

	return statusWindow.Window.Render(
		header.Render("Connection Status"),
		statusText.Render(connection),
		header.Copy().MarginTop(2).Render("Device"),
		statusText.Render(fmt.Sprintf("Door:  %s\nAlert: %s", renderDoor(device.Door), renderAlert(device.Alert))),
		header.Copy().MarginTop(2).Render("Answer Commands"),
		statusWindow.ResponseOptionsWindow.Render(),
		header.Copy().MarginTop(2).Render("Send Status"),
		statusWindow.DoorMessageWindow.Render(),
		header.Copy().MarginTop(2).Render("Custom Payload"),
		statusWindow.TextInputWindow.Render(),
		helpText.Render("tab: next panel • space: toggle • enter: send • l/u/r/b: quick status • ctrl+c: quit"),
	)
}
