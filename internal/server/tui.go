// ABOUTME: Server TUI showing transform counts and recent jobs
// ABOUTME: Real-time server status display using bubbletea
package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Resonate-Protocol/voicechanger-go/internal/version"
)

var (
	tuiTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	tuiLabel  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	tuiValue  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	tuiHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	tuiFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	tuiHelp   = lipgloss.NewStyle().Faint(true)
)

// ServerTUI drives the alt-screen dashboard for a running server
type ServerTUI struct {
	program  *tea.Program
	updates  chan ServerStatus
	quitChan chan struct{}

	mu     sync.Mutex
	closed bool
}

// ServerStatus is one dashboard snapshot
type ServerStatus struct {
	Name      string
	Port      int
	Engine    string
	Processed int
	Failed    int
	Queued    int64
	Recent    []JobInfo
}

type dashboard struct {
	status   ServerStatus
	started  time.Time
	quitting bool
	quit     chan<- struct{}
}

type tickMsg time.Time
type statusMsg ServerStatus

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (d dashboard) Init() tea.Cmd {
	return tick()
}

func (d dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			d.quitting = true
			select {
			case d.quit <- struct{}{}:
			default:
			}
			return d, tea.Quit
		}
	case tickMsg:
		// Redraw so the uptime line advances
		return d, tick()
	case statusMsg:
		d.status = ServerStatus(msg)
	}
	return d, nil
}

func field(b *strings.Builder, label, value string) {
	b.WriteString(tuiLabel.Render(label + ": "))
	b.WriteString(tuiValue.Render(value))
	b.WriteByte('\n')
}

func (d dashboard) View() string {
	if d.quitting {
		return "Shutting down server...\n"
	}

	s := d.status
	var b strings.Builder
	b.WriteString(tuiTitle.Render(version.Product + " Server"))
	b.WriteString("\n\n")

	field(&b, "Server", s.Name)
	field(&b, "Port", fmt.Sprint(s.Port))
	field(&b, "Uptime", time.Since(d.started).Round(time.Second).String())
	field(&b, "Engine", s.Engine)
	field(&b, "Jobs", fmt.Sprintf("%d processed, %d failed, %d queued", s.Processed, s.Failed, s.Queued))

	b.WriteByte('\n')
	b.WriteString(tuiHeader.Render("Recent Jobs"))
	b.WriteString("\n\n")
	if len(s.Recent) == 0 {
		b.WriteString(tuiValue.Render("  Waiting for uploads"))
		b.WriteByte('\n')
	}
	for _, job := range s.Recent {
		b.WriteString("  - " + job.Filename)
		if job.Err != "" {
			b.WriteString(tuiFailed.Render(" " + job.Err))
		} else {
			b.WriteString(tuiValue.Render(fmt.Sprintf(" (%s, %s)", job.Request, job.Elapsed.Round(time.Millisecond))))
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(tuiHelp.Render("Press 'q' or Ctrl+C to quit"))
	return b.String()
}

// NewServerTUI creates a dashboard that has not started yet
func NewServerTUI() *ServerTUI {
	return &ServerTUI{
		updates:  make(chan ServerStatus, 10),
		quitChan: make(chan struct{}, 1),
	}
}

// Start runs the dashboard until it quits
func (t *ServerTUI) Start(serverName string, port int) error {
	program := tea.NewProgram(dashboard{
		status:  ServerStatus{Name: serverName, Port: port},
		started: time.Now(),
		quit:    t.quitChan,
	}, tea.WithAltScreen())

	t.mu.Lock()
	t.program = program
	t.mu.Unlock()

	go func() {
		for status := range t.updates {
			program.Send(statusMsg(status))
		}
	}()

	_, err := program.Run()
	return err
}

// Update queues a snapshot, dropping it when the dashboard is behind
func (t *ServerTUI) Update(status ServerStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.updates <- status:
	default:
	}
}

// Stop quits the dashboard. Safe to call more than once.
func (t *ServerTUI) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	if t.program != nil {
		t.program.Quit()
	}
	close(t.updates)
}

// QuitChan fires when the user asks to quit from the dashboard
func (t *ServerTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
