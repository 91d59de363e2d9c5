package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// encodeBarWidth is the character width of the progress bar.
const encodeBarWidth = 40

// encodeProgressMsg carries a frame-delivery update from the pipeline
// goroutine into the TUI.
type encodeProgressMsg struct {
	done  int
	total int
}

// encodeDoneMsg signals that the pipeline finished, successfully or not.
type encodeDoneMsg struct {
	err error
}

// encodeModel is the bubbletea model for the render command's progress bar.
type encodeModel struct {
	label    string
	done     int
	total    int
	err      error
	finished bool
	cancel   func()
}

var (
	styleBarFilled = lipgloss.NewStyle().Foreground(colorCyan)
	styleBarEmpty  = lipgloss.NewStyle().Foreground(colorDim)
)

func newEncodeModel(label string, cancel func()) encodeModel {
	return encodeModel{label: label, cancel: cancel}
}

func (m encodeModel) Init() tea.Cmd {
	return nil
}

func (m encodeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}

	case encodeProgressMsg:
		m.done = msg.done
		m.total = msg.total
		return m, nil

	case encodeDoneMsg:
		m.err = msg.err
		m.finished = true
		return m, tea.Quit
	}

	return m, nil
}

func (m encodeModel) View() string {
	if m.finished {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleDim.Render(m.label))
	b.WriteString("\n")

	filled := 0
	if m.total > 0 {
		filled = m.done * encodeBarWidth / m.total
	}
	if filled > encodeBarWidth {
		filled = encodeBarWidth
	}
	b.WriteString(styleBarFilled.Render(strings.Repeat("█", filled)))
	b.WriteString(styleBarEmpty.Render(strings.Repeat("░", encodeBarWidth-filled)))

	if m.total > 0 {
		b.WriteString(fmt.Sprintf(" %3d%%", m.done*100/m.total))
		b.WriteString(StyleDim.Render(fmt.Sprintf("  %d/%d frames", m.done, m.total)))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("press q to cancel"))
	b.WriteString("\n")
	return b.String()
}

// runWithProgressUI runs the pipeline function under a live progress bar.
// The function receives a progress callback to feed the bar; its error is
// returned after the UI shuts down. cancel is invoked when the user quits.
func runWithProgressUI(label string, cancel func(), run func(progress func(done, total int)) error) error {
	p := tea.NewProgram(newEncodeModel(label, cancel), tea.WithOutput(os.Stderr))

	errCh := make(chan error, 1)
	go func() {
		err := run(func(done, total int) {
			p.Send(encodeProgressMsg{done: done, total: total})
		})
		errCh <- err
		p.Send(encodeDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		// The UI failed (no TTY, broken terminal); the pipeline itself still
		// decides the command's outcome.
		return <-errCh
	}
	return <-errCh
}
