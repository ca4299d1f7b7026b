package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	submit   key.Binding
	back     key.Binding
	ask      key.Binding
	extract  key.Binding
	search   key.Binding
	remove   key.Binding
	clear    key.Binding
	save     key.Binding
	lists    key.Binding
	drop     key.Binding
	open     key.Binding
	copy     key.Binding
	viewport key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "submit"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		ask: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "ask"),
		),
		extract: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "extract"),
		),
		search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		remove: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		clear: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "remove all"),
		),
		save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save list"),
		),
		lists: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "lists"),
		),
		drop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete list"),
		),
		open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in maps"),
		),
		copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy"),
		),
		viewport: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "viewport"),
		),
		yes: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		no: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ask, k.search, k.remove, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.ask, k.extract, k.search},
		{k.remove, k.clear, k.open, k.copy},
		{k.save, k.lists, k.drop, k.viewport},
		{k.yes, k.no, k.quit},
	}
}
