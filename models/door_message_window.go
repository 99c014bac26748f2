package models

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"alabs.org/doorbell-bridge/status"
)

// SendStatusMessage asks the status window to publish Payload.
type SendStatusMessage struct {
	Payload string
}

// DoorMessageWindow picks one of the status payloads a doorbell publishes.
type DoorMessageWindow struct {
	DoorOptions Options
	send        key.Binding
	Window
}

func NewDoorMessageWindow(focused bool, width int) DoorMessageWindow {
	doorOptions := NewOptions(
		true,
		KeyLabelPair{Key: status.PayloadRinging, Label: "Ring the bell"},
		KeyLabelPair{Key: status.PayloadDoorUnlocked, Label: "Report door unlocked"},
		KeyLabelPair{Key: status.PayloadDoorLocked, Label: "Report door locked"},
		KeyLabelPair{Key: status.PayloadBurglarAlert, Label: "Raise burglar alert"},
	)
	doorMessageWindow := DoorMessageWindow{
		DoorOptions: doorOptions,
		send:        key.NewBinding(key.WithKeys("enter")),
		Window: Window{
			focused: focused,
			Margin:  Orientation{1, 0, 0, 0},
			Padding: Orientation{0, 0, 0, 1},
			Border:  Border{false, false, false, true},
		},
	}
	doorMessageWindow.SetWidth(width)
	doorMessageWindow.SetHeight(doorOptions.Len() + 1)
	return doorMessageWindow
}

func (doorMessageWindow DoorMessageWindow) Focus() DoorMessageWindow {
	doorMessageWindow.Window.Focus()
	doorMessageWindow.DoorOptions = doorMessageWindow.DoorOptions.Focus()
	return doorMessageWindow
}

func (doorMessageWindow DoorMessageWindow) Blur() DoorMessageWindow {
	doorMessageWindow.Window.Blur()
	doorMessageWindow.DoorOptions = doorMessageWindow.DoorOptions.Blur()
	return doorMessageWindow
}

func (doorMessageWindow DoorMessageWindow) Update(msg tea.Msg) (DoorMessageWindow, tea.Cmd) {
	doorMessageWindow.DoorOptions = doorMessageWindow.DoorOptions.Update(msg)

	if msg, ok := msg.(tea.KeyMsg); ok && doorMessageWindow.IsFocused() && key.Matches(msg, doorMessageWindow.send) {
		payload := doorMessageWindow.DoorOptions.Current()
		return doorMessageWindow, func() tea.Msg {
			return SendStatusMessage{Payload: payload}
		}
	}
	return doorMessageWindow, nil
}

func (doorMessageWindow DoorMessageWindow) Render() string {
	return doorMessageWindow.Window.Render(
		doorMessageWindow.DoorOptions.Render(),
	)
}
