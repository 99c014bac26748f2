package models

import "github.com/charmbracelet/lipgloss"

type Orientation struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

type Border struct {
	Top    bool
	Right  bool
	Bottom bool
	Left   bool
}

// Window is the box every panel of the simulator is drawn in. Sizes given to
// SetWidth and SetHeight are outer sizes; Width and Height exclude margins
// and borders, the way lipgloss measures them.
type Window struct {
	Height  int
	Width   int
	Padding Orientation
	Margin  Orientation
	Border  Border
	focused bool
}

func (window *Window) IsFocused() bool {
	return window.focused
}

func (window *Window) Focus() {
	window.focused = true
}

func (window *Window) Blur() {
	window.focused = false
}

// frame is the window's style without a size.
func (window *Window) frame() lipgloss.Style {
	style := windowStyle.
		Copy().
		Margin(window.Margin.Top, window.Margin.Right, window.Margin.Bottom, window.Margin.Left).
		Padding(window.Padding.Top, window.Padding.Right, window.Padding.Bottom, window.Padding.Left).
		Border(lipgloss.RoundedBorder(), window.Border.Top, window.Border.Right, window.Border.Bottom, window.Border.Left)
	if window.focused {
		style = style.BorderForeground(focusColor)
	}
	return style
}

func (window *Window) SetHeight(height int) {
	frame := window.frame()
	window.Height = max(height-frame.GetVerticalMargins()-frame.GetVerticalBorderSize(), 0)
}

func (window *Window) SetWidth(width int) {
	frame := window.frame()
	window.Width = max(width-frame.GetHorizontalMargins()-frame.GetHorizontalBorderSize(), 0)
}

func (window *Window) GetInnerWidth() int {
	return max(window.Width-window.frame().GetHorizontalPadding(), 0)
}

func (window *Window) GetInnerHeight() int {
	return max(window.Height-window.frame().GetVerticalPadding(), 0)
}

// Render stacks content top to bottom inside the window.
func (window *Window) Render(content ...string) string {
	return window.frame().
		Width(window.Width).
		Height(window.Height).
		Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}
