package models

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type KeyLabelPair struct {
	Key     string
	Label   string
	Checked bool
}

// Options is a vertical list of checkboxes. In radio mode exactly one entry
// is checked at a time.
type Options struct {
	focused     bool
	options     map[string]Checkbox
	order       []string
	active      int
	lastToggled int
	isRadio     bool
	keyBindings
}

type keyBindings struct {
	up    key.Binding
	down  key.Binding
	check key.Binding
}

func NewOptions(isRadio bool, pairs ...KeyLabelPair) Options {
	options := make(map[string]Checkbox, len(pairs))
	order := make([]string, 0, len(pairs))
	for index, pair := range pairs {
		checkbox := Checkbox{Label: pair.Label, IsRadio: isRadio}
		if (isRadio && index == 0) || (!isRadio && pair.Checked) {
			checkbox = checkbox.Toggle()
		}
		options[pair.Key] = checkbox
		order = append(order, pair.Key)
	}

	return Options{
		options:     options,
		order:       order,
		active:      0,
		lastToggled: 0,
		focused:     false,
		isRadio:     isRadio,
		keyBindings: keyBindings{
			up:    key.NewBinding(key.WithKeys("k", "up")),
			down:  key.NewBinding(key.WithKeys("j", "down")),
			check: key.NewBinding(key.WithKeys(" ")),
		},
	}
}

func (options Options) Len() int {
	return len(options.order)
}

func (options Options) Render() string {
	text := ""
	for index, key := range options.order {
		text += options.options[key].Render()
		if index < len(options.order)-1 {
			text += "\n"
		}
	}
	return optionsStyle.Render(text)
}

// Selected reports the checked state of every entry by key.
func (options Options) Selected() map[string]bool {
	selected := make(map[string]bool, len(options.options))
	for key, checkbox := range options.options {
		selected[key] = checkbox.IsChecked()
	}
	return selected
}

// Current is the checked key of a radio list.
func (options Options) Current() string {
	for _, key := range options.order {
		if options.options[key].IsChecked() {
			return key
		}
	}
	return ""
}

func (options Options) toggleFocusAt(position int) Options {
	options.options[options.order[position]] = options.options[options.order[position]].ToggleFocus()
	options.active = position
	return options
}

func (options Options) Blur() Options {
	options.focused = false
	if len(options.order) == 0 {
		return options
	}
	options.options[options.order[options.active]] = options.options[options.order[options.active]].Blur()
	return options
}

func (options Options) Focus() Options {
	options.focused = true
	if len(options.order) == 0 {
		return options
	}
	options.options[options.order[options.active]] = options.options[options.order[options.active]].Focus()
	return options
}

func (options Options) Update(msg tea.Msg) Options {
	if !options.focused || len(options.order) == 0 {
		return options
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, options.keyBindings.up):
			if options.active-1 < 0 {
				break
			}
			options = options.toggleFocusAt(options.active).
				toggleFocusAt(options.active - 1)
		case key.Matches(msg, options.keyBindings.down):
			if options.active+1 >= len(options.order) {
				break
			}
			options = options.toggleFocusAt(options.active).
				toggleFocusAt(options.active + 1)
		case key.Matches(msg, options.keyBindings.check):
			if options.isRadio {
				if options.lastToggled == options.active {
					break
				}
				options.options[options.order[options.lastToggled]] = options.options[options.order[options.lastToggled]].Toggle()
				options.lastToggled = options.active
			}
			options.options[options.order[options.active]] = options.options[options.order[options.active]].Toggle()
		}
	}
	return options
}
