// Package ui implements the interactive playback status screen.
package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keymap struct {
	playPause,
	stop,
	next, prev,
	volumeUp, volumeDown,
	mute,
	cyclePlayer,
	quit, forceQuit key.Binding
}

func newKeymap() keymap {
	return keymap{
		playPause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		next: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n", "next"),
		),
		prev: key.NewBinding(
			key.WithKeys("p", "left"),
			key.WithHelp("p", "previous"),
		),
		volumeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "volume up"),
		),
		volumeDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "volume down"),
		),
		mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		cyclePlayer: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch player"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

func (k keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.playPause, k.next, k.prev, k.volumeUp, k.volumeDown, k.cyclePlayer, k.quit}
}

func (k keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.playPause, k.stop, k.next, k.prev},
		{k.volumeUp, k.volumeDown, k.mute, k.cyclePlayer, k.quit},
	}
}
