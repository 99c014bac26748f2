package models

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// TextInputWindow publishes an arbitrary status payload, which is how
// unrecognized messages are exercised end to end.
type TextInputWindow struct {
	TextInput textinput.Model
	Window
}

func NewTextInputWindow(focused bool, width int) TextInputWindow {
	textInput := textinput.New()
	textInput.Placeholder = "CUSTOM_PAYLOAD"
	textInput.CharLimit = 64
	textInput.Width = 32
	textInput.Validate = func(value string) error {
		if strings.ContainsAny(value, "\r\n") {
			return errors.New("Single line only!")
		}
		return nil
	}

	textInputWindow := TextInputWindow{
		TextInput: textInput,
		Window: Window{
			focused: focused,
			Margin:  Orientation{1, 0, 0, 0},
			Padding: Orientation{0, 0, 0, 1},
			Border:  Border{false, false, false, true},
		},
	}
	textInputWindow.SetWidth(width)
	textInputWindow.SetHeight(2)
	return textInputWindow
}

func (textInputWindow TextInputWindow) Focus() TextInputWindow {
	textInputWindow.Window.Focus()
	textInputWindow.TextInput.Focus()
	return textInputWindow
}

func (textInputWindow TextInputWindow) Blur() TextInputWindow {
	textInputWindow.Window.Blur()
	textInputWindow.TextInput.Blur()
	return textInputWindow
}

func (textInputWindow TextInputWindow) Update(msg tea.Msg) (TextInputWindow, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && textInputWindow.IsFocused() && msg.Type == tea.KeyEnter {
		payload := textInputWindow.TextInput.Value()
		if strings.TrimSpace(payload) == "" || textInputWindow.TextInput.Err != nil {
			return textInputWindow, nil
		}
		textInputWindow.TextInput.Reset()
		return textInputWindow, func() tea.Msg {
			return SendStatusMessage{Payload: payload}
		}
	}

	var textInputCmd tea.Cmd
	textInputWindow.TextInput, textInputCmd = textInputWindow.TextInput.Update(msg)
	return textInputWindow, textInputCmd
}

func (textInputWindow TextInputWindow) Render() string {
	errorMessage := ""
	if textInputWindow.TextInput.Err != nil {
		errorMessage = textInputWindow.TextInput.Err.Error()
	}
	return textInputWindow.Window.Render(
		textInputWindow.TextInput.View(),
		"\n",
		errorMessage,
	)
}
