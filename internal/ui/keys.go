package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the demo screen.
type KeyMap struct {
	Load       key.Binding
	Save       key.Binding
	Refresh    key.Binding
	Broken     key.Binding
	Dismiss    key.Binding
	DismissAll key.Binding
	Cancel     key.Binding
	Logs       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Load: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "load notes"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save note"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "silent refresh"),
		),
		Broken: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "failing call"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("enter", "esc"),
			key.WithHelp("enter/esc", "dismiss message"),
		),
		DismissAll: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "dismiss all"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cancel jobs"),
		),
		Logs: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "logs"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Load, k.Save, k.Dismiss, k.Cancel, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Load, k.Save, k.Refresh, k.Broken},
		{k.Dismiss, k.DismissAll, k.Cancel},
		{k.Logs, k.Help, k.Quit},
	}
}
