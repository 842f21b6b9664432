package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/kpi"
)

func newTestModel(t *testing.T, queueIDs []string, names map[string]string) (watchModel, *kpi.Board) {
	t.Helper()
	board := kpi.NewBoard()
	updates, cancel := board.Subscribe()
	t.Cleanup(cancel)
	return newWatchModel(queueIDs, names, board, updates), board
}

func TestWatchModel_Quit(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		t.Run(key.String(), func(t *testing.T) {
			m, _ := newTestModel(t, []string{"q1"}, nil)

			_, cmd := m.Update(key)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestWatchModel_OtherKeysIgnored(t *testing.T) {
	m, _ := newTestModel(t, []string{"q1"}, nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
}

func TestWatchModel_UnknownValues(t *testing.T) {
	m, _ := newTestModel(t, []string{"q1"}, map[string]string{"q1": "Sales"})

	view := m.View()
	assert.Contains(t, view, "Queue Sales (q1)")
	assert.Contains(t, view, "Waiting: -")
	assert.Contains(t, view, "Oldest waiting ms: -")
}

func TestWatchModel_UpdateRendersBoard(t *testing.T) {
	m, board := newTestModel(t, []string{"q1", "q2"}, nil)

	board.Apply("q1", kpi.QueueKpi{Waiting: kpi.Float(4), Interacting: kpi.Float(2)})

	// Init waits on the board subscription.
	msg := m.Init()()
	update, ok := msg.(updateMsg)
	require.True(t, ok)
	assert.Equal(t, "q1", update.QueueID)

	next, cmd := m.Update(msg)
	assert.NotNil(t, cmd)

	view := next.View()
	assert.Contains(t, view, "Queue q1")
	assert.Contains(t, view, "Waiting: 4")
	assert.Contains(t, view, "Interacting: 2")
	assert.Contains(t, view, "Queue q2")
}

func TestWatchModel_Status(t *testing.T) {
	m, _ := newTestModel(t, []string{"q1"}, nil)
	assert.Contains(t, m.View(), "Realtime connected")

	next, _ := m.Update(statusMsg("Realtime error: websocket: close 1006"))
	assert.Contains(t, next.View(), "Realtime error: websocket: close 1006")
}

func TestWatchModel_NoQueues(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)
	assert.Contains(t, m.View(), "Queues: None")
}

func TestWatchModel_ClosedUpdates(t *testing.T) {
	board := kpi.NewBoard()
	updates, cancel := board.Subscribe()
	cancel()

	m := newWatchModel([]string{"q1"}, nil, board, updates)
	assert.Equal(t, updatesClosedMsg{}, m.Init()())
}
