package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shelfbridge/internal/bridge"
)

const maxEvents = 100

// Model represents the monitor state.
type Model struct {
	updates    <-chan bridge.Update
	done       <-chan error
	state      bridge.State
	subscribed bool
	published  int
	dropped    int
	lastStatus string
	events     list.Model
	spinner    spinner.Model
	width      int
	height     int
	stopped    bool
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a monitor reading updates until done yields the supervisor's result.
func NewModel(updates <-chan bridge.Update, done <-chan error) *Model {
	events := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	events.Title = "Recent Events"
	events.SetShowHelp(false)
	events.SetFilteringEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		updates: updates,
		done:    done,
		state:   bridge.Disconnected,
		events:  events,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the spinner and the update listeners.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForUpdate(), m.waitForStop())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.events.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.clear):
			m.events.SetItems(nil)
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgBridgeUpdate:
			cmd := m.apply(msg.data.(bridge.Update))
			return m, tea.Batch(cmd, m.waitForUpdate())
		case MsgBridgeStopped:
			m.stopped = true
			m.state = bridge.Disconnected
			m.subscribed = false
			m.err, _ = msg.data.(error)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.events, cmd = m.events.Update(msg)
	return m, cmd
}

// apply folds one bridge update into the model.
func (m *Model) apply(u bridge.Update) tea.Cmd {
	switch u.Kind {
	case bridge.StateChanged:
		m.state = u.State
		m.subscribed = false
		m.lastStatus = u.Message
		return nil
	case bridge.Subscribed:
		m.state = bridge.Authenticated
		m.subscribed = true
		m.lastStatus = u.Message
		return nil
	case bridge.Published:
		m.published++
	case bridge.Dropped:
		m.dropped++
	}

	cmd := m.events.InsertItem(0, eventItem{update: u})
	if n := len(m.events.Items()); n > maxEvents {
		m.events.RemoveItem(n - 1)
	}
	return cmd
}

// View renders the status header, the event list and help.
func (m *Model) View() string {
	title := styles.title.Render("shelfbridge")

	status := fmt.Sprintf("State: %s", styles.State(m.state))
	if m.state != bridge.Authenticated && !m.stopped {
		status = fmt.Sprintf("%s %s", m.spinner.View(), status)
	}
	if m.subscribed {
		status += styles.ok.Render("  ● subscribed")
	}

	counters := fmt.Sprintf("Published: %s  Dropped: %s",
		styles.ok.Render(fmt.Sprint(m.published)),
		styles.warn.Render(fmt.Sprint(m.dropped)),
	)

	footer := styles.help.Render(m.lastStatus)
	if m.stopped {
		footer = styles.err.Render("Bridge stopped. Press q to quit")
		if m.err != nil {
			footer = styles.err.Render(fmt.Sprintf("Bridge stopped: %v. Press q to quit", m.err))
		}
	}

	return fmt.Sprintf("%s\n%s\n%s\n\n%s\n%s\n\n%s", title, status, counters, m.events.View(), footer, m.help.View(m.keys))
}

func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.updates
		if !ok {
			return nil
		}
		return bridgeUpdateMsg(u)
	}
}

func (m *Model) waitForStop() tea.Cmd {
	return func() tea.Msg {
		return bridgeStoppedMsg(<-m.done)
	}
}
