package models

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Checkbox struct {
	checked bool
	active  bool
	IsRadio bool
	Label   string
}

func (checkbox Checkbox) Render() string {
	var style lipgloss.Style
	if checkbox.active {
		style = checkboxHighlightStyle
	} else {
		style = checkboxStyle
	}

	check := " "
	if checkbox.checked {
		check = "x"
	}

	if checkbox.IsRadio {
		return style.Render(fmt.Sprintf("(%s) %s", check, checkbox.Label))
	}
	return style.Render(fmt.Sprintf("[%s] %s", check, checkbox.Label))
}

func (checkbox Checkbox) IsChecked() bool {
	return checkbox.checked
}

func (checkbox Checkbox) Toggle() Checkbox {
	checkbox.checked = !checkbox.checked
	return checkbox
}

func (checkbox Checkbox) Focus() Checkbox {
	checkbox.active = true
	return checkbox
}

func (checkbox Checkbox) Blur() Checkbox {
	checkbox.active = false
	return checkbox
}

func (checkbox Checkbox) ToggleFocus() Checkbox {
	checkbox.active = !checkbox.active
	return checkbox
}
