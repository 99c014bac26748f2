package models

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"alabs.org/doorbell-bridge/mqtt"
)

const (
	fallbackWidth  = 120
	fallbackHeight = 40
)

// MimicModel pretends to be the doorbell: it publishes status payloads and
// answers control commands the way the device does.
type MimicModel struct {
	DocumentWindow DocumentWindow
}

func InitMimicModel(ctx context.Context, options mqtt.Options) MimicModel {
	physicalWidth, physicalHeight, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		physicalWidth, physicalHeight = fallbackWidth, fallbackHeight
	}

	return MimicModel{
		DocumentWindow: NewDocumentWindow(ctx, options, physicalWidth, physicalHeight),
	}
}

func (model MimicModel) UpdateDimensions(width int, height int) MimicModel {
	model.DocumentWindow = model.DocumentWindow.UpdateDimensions(width, height)
	return model
}

// Connection is nil until the connection manager has started.
func (model MimicModel) Connection() *mqtt.Connection {
	return model.DocumentWindow.StatusWindow.Connection()
}

func (model MimicModel) Init() tea.Cmd {
	return model.DocumentWindow.Init()
}

func (model MimicModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		model = model.UpdateDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return model, tea.Quit
		}
	}

	var documentWindowCmd tea.Cmd
	model.DocumentWindow, documentWindowCmd = model.DocumentWindow.Update(msg)
	cmds = append(cmds, documentWindowCmd)

	return model, tea.Batch(cmds...)
}

func (model MimicModel) View() string {
	return model.DocumentWindow.Render()
}
