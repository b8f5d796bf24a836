// ABOUTME: Bubbletea model for the terminal voice changer
// ABOUTME: Speed and pitch sliders, preview and save actions, status line
package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/voicechanger"
)

// Model represents the TUI state
type Model struct {
	// Clip
	filename   string
	codec      string
	sampleRate int
	channels   int
	bitDepth   int
	seconds    float64
	title      string
	artist     string

	// Controls
	request voicechanger.Request
	volume  int
	muted   bool

	// Progress
	processing    bool
	playing       string
	message       string
	errText       string
	hint          string
	outputSeconds float64
	saved         string

	control *Control

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
	s += m.renderClip()
	s += m.renderSliders()
	s += m.renderStatus()
	s += m.renderTips()
	s += m.renderHelp()

	return s
}

func (m Model) renderHeader() string {
	return `┌─ Voice Changer ──────────────────────────────────────┐
`
}

// renderClip renders the loaded clip
func (m Model) renderClip() string {
	if m.filename == "" {
		return fmt.Sprintf("│ %-52s │\n", "Upload an audio file (MP3, WAV, M4A) to start!")
	}

	s := fmt.Sprintf("│ File:   %-44s │\n", truncate(m.filename, 44))
	if m.title != "" {
		s += fmt.Sprintf("│ Title:  %-44s │\n", truncate(strings.TrimSpace(m.artist+" "+m.title), 44))
	}
	s += fmt.Sprintf("│ Format: %-44s │\n", fmt.Sprintf("%s %dHz %s %d-bit",
		m.codec, m.sampleRate, channelName(m.channels), m.bitDepth))
	s += fmt.Sprintf("│ %-52s │\n", fmt.Sprintf("Loaded: %.1f seconds", m.seconds))
	return s
}

// renderSliders renders speed, pitch and volume
func (m Model) renderSliders() string {
	speed := renderBar(steps(m.request.Speed-voicechanger.MinSpeed), steps(voicechanger.MaxSpeed-voicechanger.MinSpeed), 20)
	pitch := renderBar(steps(m.request.Pitch-voicechanger.MinPitch), steps(voicechanger.MaxPitch-voicechanger.MinPitch), 20)

	muteIcon := ""
	if m.muted {
		muteIcon = " muted"
	}

	return "├──────────────────────────────────────────────────────┤\n" +
		fmt.Sprintf("│ Speed:  [%s] %.1fx%-18s │\n", speed, m.request.Speed, "") +
		fmt.Sprintf("│   %-50s │\n", "0.5 = 50% slower, 2.0 = 2x faster") +
		fmt.Sprintf("│ Pitch:  [%s] %.1fx%-18s │\n", pitch, m.request.Pitch, "") +
		fmt.Sprintf("│   %-50s │\n", "0.5 = deeper voice, 1.5 = higher voice") +
		fmt.Sprintf("│ Volume: [%s] %3d%%%-17s │\n", renderBar(m.volume, 100, 20), m.volume, muteIcon)
}

// renderStatus renders the outcome of the last action
func (m Model) renderStatus() string {
	s := "├──────────────────────────────────────────────────────┤\n"
	switch {
	case m.processing:
		s += fmt.Sprintf("│ %-52s │\n", "Processing audio...")
	case m.errText != "":
		s += fmt.Sprintf("│ %-52s │\n", truncate(m.errText, 52))
		if m.hint != "" {
			s += fmt.Sprintf("│ %-52s │\n", truncate(m.hint, 52))
		}
	case m.message != "":
		s += fmt.Sprintf("│ %-52s │\n", truncate(m.message, 52))
	default:
		s += fmt.Sprintf("│ %-52s │\n", "Ready")
	}
	if m.outputSeconds > 0 {
		s += fmt.Sprintf("│ %-52s │\n", fmt.Sprintf("Result: %.1f seconds", m.outputSeconds))
	}
	if m.playing != "" {
		s += fmt.Sprintf("│ %-52s │\n", "Playing "+m.playing)
	}
	if m.saved != "" {
		s += fmt.Sprintf("│ %-52s │\n", truncate("Saved "+m.saved, 52))
	}
	return s
}

func (m Model) renderTips() string {
	return "├──────────────────────────────────────────────────────┤\n" +
		fmt.Sprintf("│ %-52s │\n", "Tips: Clear speech works best.") +
		fmt.Sprintf("│ %-52s │\n", "5-30 second clips recommended.") +
		fmt.Sprintf("│ %-52s │\n", "Phone recordings work great!")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `├──────────────────────────────────────────────────────┤
│ ←/→:Speed ↑/↓:Pitch  p:Modify+Play  o:Original       │
│ s:Save  x:Stop  +/-:Volume  m:Mute  r:Reset  q:Quit  │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.control != nil {
			select {
			case m.control.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "right":
		m.setRequest(m.request.Nudge(1, 0))
	case "left":
		m.setRequest(m.request.Nudge(-1, 0))
	case "up":
		m.setRequest(m.request.Nudge(0, 1))
	case "down":
		m.setRequest(m.request.Nudge(0, -1))
	case "r":
		m.setRequest(voicechanger.DefaultRequest())
	case "p", "enter":
		if m.processing || m.filename == "" {
			break
		}
		m.processing = true
		m.errText, m.hint = "", ""
		m.send(Action{Kind: ActionProcess, Request: m.request})
	case "o":
		if m.filename != "" {
			m.send(Action{Kind: ActionPlayOriginal})
		}
	case "s":
		if m.filename != "" && !m.processing {
			m.send(Action{Kind: ActionSave, Request: m.request})
		}
	case "x":
		m.playing = ""
		m.send(Action{Kind: ActionStop})
	case "+", "=":
		m.setVolume(m.volume + 5)
	case "-":
		m.setVolume(m.volume - 5)
	case "m":
		m.muted = !m.muted
		m.send(Action{Kind: ActionVolume, Volume: m.volume, Muted: m.muted})
	}

	return m, nil
}

func (m *Model) setRequest(req voicechanger.Request) {
	if req == m.request {
		return
	}
	m.request = req
	m.outputSeconds = 0
	m.saved = ""
}

func (m *Model) setVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	m.volume = volume
	m.send(Action{Kind: ActionVolume, Volume: m.volume, Muted: m.muted})
}

// send hands an action to the host without blocking the UI
func (m Model) send(action Action) {
	if m.control == nil {
		return
	}
	select {
	case m.control.Actions <- action:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Filename != "" {
		m.filename = msg.Filename
		m.codec = msg.Codec
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bitDepth = msg.BitDepth
		m.seconds = msg.Seconds
		m.title = msg.Title
		m.artist = msg.Artist
	}
	if msg.Err != "" {
		m.processing = false
		m.errText = msg.Err
		m.hint = msg.Hint
		m.message = ""
	}
	if msg.Done {
		m.processing = false
		m.errText, m.hint = "", ""
		m.outputSeconds = msg.OutputSeconds
	}
	if msg.Message != "" {
		m.message = msg.Message
	}
	if msg.Playing != nil {
		m.playing = *msg.Playing
	}
	if msg.Volume != nil {
		m.volume = *msg.Volume
	}
	if msg.Muted != nil {
		m.muted = *msg.Muted
	}
	if msg.Saved != "" {
		m.saved = msg.Saved
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Filename   string
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
	Seconds    float64
	Title      string
	Artist     string

	Message       string
	Err           string
	Hint          string
	Done          bool
	OutputSeconds float64
	Playing       *string

	// Volume and Muted echo the level the output device settled on
	Volume *int
	Muted  *bool
	Saved         string
}

// Utility functions
func renderBar(value, max, width int) string {
	if max <= 0 {
		max = 1
	}
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

// steps converts a factor offset to slider steps
func steps(v float64) int {
	return int(math.Round(v / voicechanger.Step))
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}
