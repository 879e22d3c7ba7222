package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	refresh  key.Binding
	install  key.Binding
	remove   key.Binding
	sync     key.Binding
	syncAll  key.Binding
	settings key.Binding
	commit   key.Binding
	discard  key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		install:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "install")),
		remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		sync:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync saves")),
		syncAll:  key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sync all")),
		settings: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "settings")),
		commit:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "save")),
		discard:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "discard")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.refresh, k.install, k.remove},
		{k.sync, k.syncAll, k.settings},
		{k.commit, k.discard, k.quit},
	}
}
