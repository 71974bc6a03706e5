// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the tone status view
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// VolumeChangeMsg carries a volume chosen in the TUI
type VolumeChangeMsg struct {
	Volume int
}

// VolumeControl holds the channel for volume changes made in the TUI
type VolumeControl struct {
	Changes chan VolumeChangeMsg
}

// NewVolumeControl creates a new volume control handler
func NewVolumeControl() *VolumeControl {
	return &VolumeControl{
		Changes: make(chan VolumeChangeMsg, 10),
	}
}

// NewModel creates a new TUI model listing topics as off
func NewModel(volCtrl *VolumeControl, volume int, topics []string) Model {
	m := Model{
		volume:     volume,
		volumeCtrl: volCtrl,
		states:     make(map[string]bool),
	}
	for _, topic := range topics {
		m.applyEntry(EntryMsg{Topic: topic})
	}
	return m
}

// Run creates the TUI program; the caller runs it and sends it status messages
func Run(volCtrl *VolumeControl, volume int, topics []string) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(volCtrl, volume, topics), tea.WithAltScreen())
	return p, nil
}
