package models

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alabs.org/doorbell-bridge/messages"
	"alabs.org/doorbell-bridge/mqtt"
	"alabs.org/doorbell-bridge/status"
)

func keyPress(runes string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(runes)}
}

func newTestStatusWindow() StatusWindow {
	statusWindow := NewStatusWindow(context.Background(), mqtt.Options{URI: "mqtt://localhost:1883"}, true)
	return statusWindow.UpdateDimensions(80, 40)
}

func TestOptions_RadioKeepsOneChecked(t *testing.T) {
	options := NewOptions(
		true,
		KeyLabelPair{Key: "a", Label: "A"},
		KeyLabelPair{Key: "b", Label: "B"},
		KeyLabelPair{Key: "c", Label: "C"},
	).Focus()
	assert.Equal(t, "a", options.Current())

	options = options.Update(tea.KeyMsg{Type: tea.KeyDown})
	options = options.Update(tea.KeyMsg{Type: tea.KeyDown})
	options = options.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	assert.Equal(t, "c", options.Current())
	assert.Equal(t, map[string]bool{"a": false, "b": false, "c": true}, options.Selected())
}

func TestOptions_CheckboxesToggleIndependently(t *testing.T) {
	options := NewOptions(
		false,
		KeyLabelPair{Key: "a", Label: "A", Checked: true},
		KeyLabelPair{Key: "b", Label: "B", Checked: true},
	).Focus()

	options = options.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	assert.Equal(t, map[string]bool{"a": false, "b": true}, options.Selected())
}

func TestOptions_IgnoresKeysWhenBlurred(t *testing.T) {
	options := NewOptions(false, KeyLabelPair{Key: "a", Label: "A"})
	options = options.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	assert.False(t, options.Selected()["a"])
}

func TestStatusWindow_PublishedStatusUpdatesDevice(t *testing.T) {
	statusWindow := newTestStatusWindow()
	assert.Equal(t, status.Snapshot{Door: status.Locked, Alert: status.None}, statusWindow.Device())

	statusWindow, _ = statusWindow.Update(messages.PublishMessage{Topic: mqtt.StatusTopic, Payload: status.PayloadDoorUnlocked})
	statusWindow, _ = statusWindow.Update(messages.PublishMessage{Topic: mqtt.StatusTopic, Payload: status.PayloadRinging})
	assert.Equal(t, status.Snapshot{Door: status.Unlocked, Alert: status.Ringing}, statusWindow.Device())

	// Failed publishes do not change what the device claims.
	statusWindow, _ = statusWindow.Update(messages.PublishMessage{Topic: mqtt.StatusTopic, Payload: status.PayloadDoorLocked, Err: errors.New("offline")})
	assert.Equal(t, status.Unlocked, statusWindow.Device().Door)
}

func TestStatusWindow_QuickKeyWithoutConnection(t *testing.T) {
	statusWindow := newTestStatusWindow()

	_, cmd := statusWindow.Update(keyPress("b"))
	require.NotNil(t, cmd)

	var published *messages.PublishMessage
	for _, msg := range collect(cmd) {
		if publish, ok := msg.(messages.PublishMessage); ok {
			published = &publish
		}
	}
	require.NotNil(t, published)
	assert.Equal(t, status.PayloadBurglarAlert, published.Payload)
	assert.ErrorIs(t, published.Err, ErrNotConnected)
}

func TestStatusWindow_TypingDisablesQuickKeys(t *testing.T) {
	statusWindow := newTestStatusWindow()
	statusWindow, _ = statusWindow.Update(tea.KeyMsg{Type: tea.KeyTab})
	statusWindow, _ = statusWindow.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, statusWindow.typing())

	statusWindow, cmd := statusWindow.Update(keyPress("r"))
	for _, msg := range collect(cmd) {
		_, isPublish := msg.(messages.PublishMessage)
		assert.False(t, isPublish)
	}
	assert.Equal(t, "r", statusWindow.TextInputWindow.TextInput.Value())
}

func TestStatusWindow_ConnectionFailure(t *testing.T) {
	statusWindow := newTestStatusWindow()
	statusWindow, _ = statusWindow.Update(messages.MqttServerConnection{Err: mqtt.ErrUnsupportedURI})

	assert.False(t, statusWindow.Initialized)
	assert.ErrorIs(t, statusWindow.Err, mqtt.ErrUnsupportedURI)
	assert.Nil(t, statusWindow.Connection())
	assert.Contains(t, statusWindow.Render(), "Failed to start connection manager")
}

func TestStatusWindow_AnswersEnabledByDefault(t *testing.T) {
	statusWindow := newTestStatusWindow()
	assert.Equal(t, map[string]bool{"LOCK": true, "UNLOCK": true}, statusWindow.ResponseOptionsWindow.Enabled())
}

func TestDocumentWindow_LogsEvents(t *testing.T) {
	documentWindow := NewDocumentWindow(context.Background(), mqtt.Options{URI: "mqtt://localhost:1883"}, 120, 40)

	documentWindow, _ = documentWindow.Update(messages.PublishMessage{Topic: mqtt.StatusTopic, Payload: status.PayloadRinging})
	documentWindow, _ = documentWindow.Update(messages.CommandReceived{Command: "LOCK", Reply: status.PayloadDoorLocked, Replied: true})
	documentWindow, _ = documentWindow.Update(messages.MqttStatus{Connected: false, Code: mqtt.CodeConnectError, Err: errors.New("refused")})

	lines := documentWindow.LogWindow.Lines()
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `Published "RINGING" to alabs/doorbell/status`)
	assert.Contains(t, lines[1], `Received command "LOCK", answering DOOR_LOCKED`)
	assert.Contains(t, lines[2], "ERROR")
}

// collect runs cmd and flattens batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		collected := make([]tea.Msg, 0)
		for _, inner := range batch {
			collected = append(collected, collect(inner)...)
		}
		return collected
	}
	return []tea.Msg{msg}
}

func TestWindow_SizesExcludeFrame(t *testing.T) {
	window := Window{
		Padding: Orientation{Top: 1, Right: 2, Bottom: 1, Left: 2},
		Margin:  Orientation{Left: 1},
		Border:  Border{Top: true, Right: true, Bottom: true, Left: true},
	}
	window.SetWidth(40)
	window.SetHeight(10)

	assert.Equal(t, 37, window.Width)
	assert.Equal(t, 8, window.Height)
	assert.Equal(t, 33, window.GetInnerWidth())
	assert.Equal(t, 6, window.GetInnerHeight())

	window.SetWidth(2)
	assert.Equal(t, 0, window.GetInnerWidth())
}
