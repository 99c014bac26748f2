package models

import (
	tea "github.com/charmbracelet/bubbletea"

	"alabs.org/doorbell-bridge/commands"
)

// ResponseOptionsWindow chooses which control commands the simulated device
// answers with a door status.
type ResponseOptionsWindow struct {
	ResponseOptions Options
	Window
}

func NewResponseOptionsWindow(focused bool, width int) ResponseOptionsWindow {
	responseOptions := NewOptions(
		false,
		KeyLabelPair{Key: commands.CommandLock, Label: "Answer LOCK with DOOR_LOCKED", Checked: true},
		KeyLabelPair{Key: commands.CommandUnlock, Label: "Answer UNLOCK with DOOR_UNLOCKED", Checked: true},
	)
	responseOptionsWindow := ResponseOptionsWindow{
		ResponseOptions: responseOptions,
		Window: Window{
			focused: focused,
			Margin:  Orientation{1, 0, 0, 0},
			Padding: Orientation{0, 0, 0, 1},
			Border:  Border{false, false, false, true},
		},
	}
	responseOptionsWindow.SetWidth(width)
	responseOptionsWindow.SetHeight(responseOptions.Len() + 1)
	return responseOptionsWindow
}

func (responseOptionsWindow ResponseOptionsWindow) Enabled() map[string]bool {
	return responseOptionsWindow.ResponseOptions.Selected()
}

func (responseOptionsWindow ResponseOptionsWindow) Focus() ResponseOptionsWindow {
	responseOptionsWindow.Window.Focus()
	responseOptionsWindow.ResponseOptions = responseOptionsWindow.ResponseOptions.Focus()
	return responseOptionsWindow
}

func (responseOptionsWindow ResponseOptionsWindow) Blur() ResponseOptionsWindow {
	responseOptionsWindow.Window.Blur()
	responseOptionsWindow.ResponseOptions = responseOptionsWindow.ResponseOptions.Blur()
	return responseOptionsWindow
}

func (responseOptionsWindow ResponseOptionsWindow) Update(msg tea.Msg) ResponseOptionsWindow {
	responseOptionsWindow.ResponseOptions = responseOptionsWindow.ResponseOptions.Update(msg)
	return responseOptionsWindow
}

func (responseOptionsWindow ResponseOptionsWindow) Render() string {
	return responseOptionsWindow.Window.Render(responseOptionsWindow.ResponseOptions.Render())
}
