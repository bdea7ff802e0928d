package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	toggle key.Binding
	mute   key.Binding
	repeat key.Binding
	volUp  key.Binding
	volDn  key.Binding
	queue  key.Binding
	enter  key.Binding
	back   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
		toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		mute:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		repeat: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		volUp:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "louder")),
		volDn:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "quieter")),
		queue:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "queue")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.toggle},
		{k.mute, k.repeat, k.queue},
		{k.volUp, k.volDn, k.quit},
	}
}
