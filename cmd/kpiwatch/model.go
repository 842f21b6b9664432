package main

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/kpi"
)

const (
	cardWidth    = 30
	unknownValue = "-"
)

// updateMsg carries one board change into the program.
type updateMsg kpi.Update

// statusMsg replaces the status line.
type statusMsg string

// updatesClosedMsg is sent once the board subscription has ended.
type updatesClosedMsg struct{}

type watchModel struct {
	queueIDs []string
	names    map[string]string
	board    *kpi.Board
	updates  <-chan kpi.Update
	status   string
	width    int
	theme    theme
}

func newWatchModel(queueIDs []string, names map[string]string, board *kpi.Board, updates <-chan kpi.Update) watchModel {
	return watchModel{
		queueIDs: queueIDs,
		names:    names,
		board:    board,
		updates:  updates,
		status:   "Realtime connected",
		theme:    defaultTheme(),
	}
}

func waitForUpdate(updates <-chan kpi.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return updateMsg(u)
	}
}

func (m watchModel) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case updateMsg:
		// The board already holds the merged values; re-arm the wait.
		return m, waitForUpdate(m.updates)
	case statusMsg:
		m.status = string(msg)
		return m, nil
	case updatesClosedMsg:
		return m, nil
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Header.Render("Genesys queue activity"))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if len(m.queueIDs) == 0 {
		b.WriteString(m.theme.Muted.Render("Queues: None"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.cards())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("q: quit"))
	return b.String()
}

func (m watchModel) statusLine() string {
	if strings.HasPrefix(m.status, "Realtime error") {
		return m.theme.Danger.Render(m.status)
	}
	return m.theme.Success.Render(m.status)
}

func (m watchModel) cards() string {
	// Before the first WindowSizeMsg every card goes on one row.
	perRow := len(m.queueIDs)
	if m.width > 0 {
		perRow = max(m.width/(cardWidth+4), 1)
	}

	rendered := make([]string, 0, len(m.queueIDs))
	for _, id := range m.queueIDs {
		rendered = append(rendered, m.card(id))
	}

	rows := make([]string, 0, len(rendered)/perRow+1)
	for start := 0; start < len(rendered); start += perRow {
		end := start + perRow
		if end > len(rendered) {
			end = len(rendered)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered[start:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m watchModel) card(queueID string) string {
	label := queueID
	if name := m.names[queueID]; name != "" {
		label = name + " (" + queueID + ")"
	}

	k, _ := m.board.Get(queueID)
	lines := []string{
		m.theme.Title.Render("Queue " + label),
		m.field("Waiting", k.Waiting),
		m.field("Interacting", k.Interacting),
		m.field("Alerting", k.Alerting),
		m.field("Oldest waiting ms", k.OldestWaitingMs),
	}
	return m.theme.Card.Render(strings.Join(lines, "\n"))
}

func (m watchModel) field(name string, v *float64) string {
	value := unknownValue
	if v != nil {
		value = strconv.FormatFloat(*v, 'f', -1, 64)
	}
	return m.theme.Label.Render(name+":") + " " + m.theme.Value.Render(value)
}
