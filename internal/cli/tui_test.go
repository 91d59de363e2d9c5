package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestEncodeModelProgress(t *testing.T) {
	m := newEncodeModel("Encoding out.mp4", nil)

	updated, _ := m.Update(encodeProgressMsg{done: 50, total: 200})
	m = updated.(encodeModel)

	view := m.View()
	if !strings.Contains(view, "25%") {
		t.Errorf("view should show 25%%, got %q", view)
	}
	if !strings.Contains(view, "50/200 frames") {
		t.Errorf("view should show the frame counter, got %q", view)
	}
}

func TestEncodeModelDoneQuits(t *testing.T) {
	m := newEncodeModel("Encoding", nil)

	updated, cmd := m.Update(encodeDoneMsg{})
	m = updated.(encodeModel)

	if cmd == nil {
		t.Fatal("done message should produce a quit command")
	}
	if m.View() != "" {
		t.Error("finished model should render nothing")
	}
}

func TestEncodeModelCancelKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c", "esc"} {
		t.Run(key, func(t *testing.T) {
			cancelled := false
			m := newEncodeModel("Encoding", func() { cancelled = true })

			var msg tea.KeyMsg
			switch key {
			case "ctrl+c":
				msg = tea.KeyMsg{Type: tea.KeyCtrlC}
			case "esc":
				msg = tea.KeyMsg{Type: tea.KeyEsc}
			default:
				msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
			}
			m.Update(msg)

			if !cancelled {
				t.Errorf("key %q should cancel the pipeline", key)
			}
		})
	}
}

func TestEncodeModelBarNeverOverflows(t *testing.T) {
	m := newEncodeModel("Encoding", nil)

	updated, _ := m.Update(encodeProgressMsg{done: 500, total: 200})
	m = updated.(encodeModel)

	view := m.View()
	if strings.Count(view, "█") > encodeBarWidth {
		t.Errorf("bar exceeded its width: %q", view)
	}
}
