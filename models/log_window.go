package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

const maxLogLines = 500

type LogWindow struct {
	logs     []string
	Viewport viewport.Model
	Window
}

func NewLogWindow() LogWindow {
	logViewport := viewport.New(0, 0)
	// Arrow keys and space belong to the option lists.
	logViewport.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	return LogWindow{
		logs:     make([]string, 0),
		Viewport: logViewport,
		Window: Window{
			Width:   0,
			Height:  0,
			Margin:  Orientation{1, 1, 0, 0},
			Padding: Orientation{1, 2, 1, 2},
			Border:  Border{true, true, true, true},
		},
	}
}

func (logsWindow *LogWindow) Log(prefix string, format string, args ...any) {
	logsWindow.logs = append(
		logsWindow.logs,
		fmt.Sprintf(
			"%s %s: "+format,
			append([]any{time.Now().Format("15:04:05"), prefix}, args...)...,
		),
	)
	if len(logsWindow.logs) > maxLogLines {
		logsWindow.logs = logsWindow.logs[len(logsWindow.logs)-maxLogLines:]
	}
	logsWindow.refresh()
}

func (logsWindow *LogWindow) Info(format string, args ...any) {
	logsWindow.Log("INFO", format, args...)
}

func (logsWindow *LogWindow) Warn(format string, args ...any) {
	logsWindow.Log("WARN", format, args...)
}

func (logsWindow *LogWindow) Error(format string, args ...any) {
	logsWindow.Log("ERROR", format, args...)
}

func (logsWindow *LogWindow) Lines() []string {
	return logsWindow.logs
}

// refresh rewraps the log to the current width and follows the tail.
func (logsWindow *LogWindow) refresh() {
	width := logsWindow.GetInnerWidth()
	if width <= 0 {
		return
	}
	var builder strings.Builder
	for index, line := range logsWindow.logs {
		builder.WriteString(wrap.String(wordwrap.String(line, width), width))
		if index < len(logsWindow.logs)-1 {
			builder.WriteString("\n")
		}
	}
	logsWindow.Viewport.SetContent(builder.String())
	logsWindow.Viewport.GotoBottom()
}

func (logsWindow LogWindow) UpdateDimensions(width int, height int) LogWindow {
	logsWindow.SetWidth(width)
	logsWindow.SetHeight(height)
	logsWindow.Viewport.Width = logsWindow.GetInnerWidth()
	logsWindow.Viewport.Height = logsWindow.GetInnerHeight()
	logsWindow.refresh()
	return logsWindow
}

func (logsWindow LogWindow) Update(msg tea.Msg) (LogWindow, tea.Cmd) {
	var cmd tea.Cmd
	logsWindow.Viewport, cmd = logsWindow.Viewport.Update(msg)
	return logsWindow, cmd
}

func (logsWindow *LogWindow) Render() string {
	return logsWindow.Window.Render(logsWindow.Viewport.View())
}
