package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/expense"
)

const periodLayout = "2006-01"

// PeriodSelectedMsg is emitted when the user has entered a valid month.
type PeriodSelectedMsg struct {
	Period expense.Period
}

// PeriodCancelledMsg is emitted when the user leaves the picker without
// choosing a month.
type PeriodCancelledMsg struct{}

// PeriodPicker reads a calendar month typed as YYYY-MM.
type PeriodPicker struct {
	input textinput.Model
	err   error
}

func NewPeriodPicker() PeriodPicker {
	in := textinput.New()
	in.Placeholder = "YYYY-MM"
	in.CharLimit = 7
	in.Width = 9
	in.Prompt = "Month: "

	return PeriodPicker{input: in}
}

// Open focuses the picker and pre-fills it with current.
func (m PeriodPicker) Open(current expense.Period) (PeriodPicker, tea.Cmd) {
	m.err = nil
	m.input.SetValue(fmt.Sprintf("%04d-%02d", current.Year, int(current.Month)))
	m.input.CursorEnd()
	cmd := m.input.Focus()

	return m, cmd
}

func (m PeriodPicker) Update(msg tea.Msg) (PeriodPicker, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			m.input.Blur()
			return m, func() tea.Msg { return PeriodCancelledMsg{} }
		case tea.KeyEnter:
			t, err := time.ParseInLocation(periodLayout, m.input.Value(), time.Local)
			if err != nil {
				m.err = fmt.Errorf("invalid month (YYYY-MM)")
				return m, nil
			}

			m.err = nil
			m.input.Blur()

			period := expense.CurrentPeriod(t)

			return m, func() tea.Msg { return PeriodSelectedMsg{Period: period} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m PeriodPicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("\n\nError: %v", m.err))
	}

	return fmt.Sprintf("Jump to month:\n\n%s\n\n(Enter to confirm, Esc to cancel)%s", m.input.View(), errStr)
}
