package tui

import "charm.land/bubbles/v2/key"

type keyMap struct {
	Quit    key.Binding
	Switch  key.Binding
	Copy    key.Binding
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Open    key.Binding
	Top     key.Binding
	Bottom  key.Binding
	Refresh key.Binding
}

var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Switch:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Copy:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy code")),
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Left:    key.NewBinding(key.WithKeys("left", "h")),
	Right:   key.NewBinding(key.WithKeys("right", "l")),
	Open:    key.NewBinding(key.WithKeys("enter", "space", " ")),
	Top:     key.NewBinding(key.WithKeys("home", "g")),
	Bottom:  key.NewBinding(key.WithKeys("end", "G")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Switch, k.Copy, k.Refresh, k.Quit}
}
