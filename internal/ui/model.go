// ABOUTME: Bubbletea model for the tone status TUI
// ABOUTME: Defines display state and update logic
package ui

import (
	"fmt"

	"github.com/Resonate-Protocol/tone-go/internal/sync"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	onStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86"))

	offStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("250"))
)

// Model represents the TUI state
type Model struct {
	// Connection
	connected  bool
	serverAddr string

	// Sync
	syncRTT     int64
	syncQuality sync.Quality

	// Entries in display order
	topics []string
	states map[string]bool

	// Playback
	volume     int
	volumeCtrl *VolumeControl

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case EntryMsg:
		m.applyEntry(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderEntries()
	s += m.renderControls()
	s += m.renderHelp()

	return s
}

// renderHeader renders connection and sync status
func (m Model) renderHeader() string {
	connStatus := "not connected"
	if m.connected {
		connStatus = fmt.Sprintf("connected to %s", m.serverAddr)
	}

	syncIcon := "✗"
	syncText := "Lost"
	switch m.syncQuality {
	case sync.QualityGood:
		syncIcon = "✓"
		syncText = fmt.Sprintf("Synced (rtt: %.1fms)", float64(m.syncRTT)/1000.0)
	case sync.QualityDegraded:
		syncIcon = "⚠"
		syncText = "Degraded"
	}

	return fmt.Sprintf(`┌─ Tone ───────────────────────────────────────────────┐
│ Status: %-45s │
│ Clock:  %s %-42s │
├──────────────────────────────────────────────────────┤
`, truncate(connStatus, 45), syncIcon, syncText)
}

// renderEntries renders one line per watched entry
func (m Model) renderEntries() string {
	if len(m.topics) == 0 {
		return "│ No entries                                           │\n"
	}

	s := ""
	for _, topic := range m.topics {
		state := offStyle.Render(fmt.Sprintf("%-9s", "off"))
		icon := "○"
		if m.states[topic] {
			state = onStyle.Render(fmt.Sprintf("%-9s", "on"))
			icon = "●"
		}
		s += fmt.Sprintf("│ %s %-40s %s │\n", icon, truncate(topic, 40), state)
	}
	return s
}

// renderControls renders volume
func (m Model) renderControls() string {
	volumeBar := renderBar(m.volume, 100, 10)

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %3d%%%-26s │\n", volumeBar, m.volume, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  q:Quit                                   │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up":
		m.setVolume(m.volume + 5)
	case "down":
		m.setVolume(m.volume - 5)
	}

	return m, nil
}

// setVolume clamps the volume and forwards changes to the volume control
func (m *Model) setVolume(volume int) {
	if volume > 100 {
		volume = 100
	}
	if volume < 0 {
		volume = 0
	}
	if volume == m.volume {
		return
	}
	m.volume = volume

	if m.volumeCtrl != nil {
		select {
		case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: volume}:
		default:
		}
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.ServerAddr != "" {
		m.serverAddr = msg.ServerAddr
	}
	if msg.SyncRTT != 0 {
		m.syncRTT = msg.SyncRTT
	}
	m.syncQuality = msg.SyncQuality
}

// applyEntry records an entry state, adding unknown topics in arrival order
func (m *Model) applyEntry(msg EntryMsg) {
	if m.states == nil {
		m.states = make(map[string]bool)
	}
	if _, ok := m.states[msg.Topic]; !ok {
		m.topics = append(m.topics, msg.Topic)
	}
	m.states[msg.Topic] = msg.On
}

// StatusMsg updates connection and clock state
type StatusMsg struct {
	Connected   *bool
	ServerAddr  string
	SyncRTT     int64
	SyncQuality sync.Quality
}

// EntryMsg reports a watched entry changing
type EntryMsg struct {
	Topic string
	On    bool
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
