// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the action channels to the host
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/voicechanger"
)

// ActionKind names what the user asked for
type ActionKind int

const (
	ActionProcess ActionKind = iota
	ActionPlayOriginal
	ActionSave
	ActionStop
	ActionVolume
)

// Action is a user request the host carries out
type Action struct {
	Kind    ActionKind
	Request voicechanger.Request
	Volume  int
	Muted   bool
}

// QuitMsg signals the host to exit
type QuitMsg struct{}

// Control holds channels from the TUI to the host
type Control struct {
	Actions chan Action
	Quit    chan QuitMsg
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Actions: make(chan Action, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(control *Control) Model {
	return Model{
		request: voicechanger.DefaultRequest(),
		volume:  100,
		control: control,
	}
}

// Run creates the TUI program; the caller runs it
func Run(control *Control, initial StatusMsg) (*tea.Program, error) {
	m := NewModel(control)
	m.applyStatus(initial)
	p := tea.NewProgram(m, tea.WithAltScreen())
	return p, nil
}
