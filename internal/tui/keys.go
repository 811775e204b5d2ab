package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Finer   key.Binding
	Coarser key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Finer: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "finer (double fft)"),
		),
		Coarser: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "coarser (halve fft)"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Finer, k.Coarser, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Finer, k.Coarser},
		{k.Help, k.Quit},
	}
}
