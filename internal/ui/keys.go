package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings for the progress view.
type keyMap struct {
	cancel key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		cancel: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cancel run"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.cancel, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.cancel, k.quit}}
}
