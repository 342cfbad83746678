package view

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/expense"
)

const barWidth = 30

type reportState int

const (
	reportStateView reportState = iota
	reportStatePick
)

// ReportModel shows the monthly summary of the user's expenses and
// recomputes it whenever they change.
type ReportModel struct {
	CommonModel
	feed *recordFeed

	state   reportState
	picker  PeriodPicker
	period  expense.Period
	records []expense.Record
	report  expense.Report

	err    error
	status string
}

func NewReportModel(common CommonModel, stream *expense.Stream) ReportModel {
	period := expense.CurrentPeriod(time.Now())

	return ReportModel{
		CommonModel: common,
		feed:        newRecordFeed(stream, common.OwnerID()),
		picker:      NewPeriodPicker(),
		period:      period,
		report:      expense.Aggregate(nil, period),
	}
}

func (m ReportModel) Title() string { return "Monthly Report" }

func (m ReportModel) ShortHelp() string {
	if m.state == reportStatePick {
		return "Enter: confirm | Esc: cancel"
	}

	return "Esc: back | ←/→: month | t: this month | g: go to month | r: reconnect"
}

func (m ReportModel) Init() tea.Cmd {
	return m.feed.subscribeCmd()
}

// Close releases the subscription, including one still being set up. The
// model must not be used afterwards.
func (m ReportModel) Close() {
	m.feed.Close()
}

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ev, cmd, ok := m.feed.Update(msg); ok {
		switch ev.kind {
		case feedSubscribed:
			m.err = nil
		case feedFailed:
			m.err = ev.err
		case feedSnapshot:
			m.records = ev.snapshot.Records
			m.report = expense.Aggregate(m.records, m.period)
		case feedEnded:
			if ev.err != nil {
				m.status = fmt.Sprintf("Live updates stopped: %v (r to reconnect)", ev.err)
			}
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case PeriodSelectedMsg:
		m.state = reportStateView
		m.setPeriod(msg.Period)

		return m, nil

	case PeriodCancelledMsg:
		m.state = reportStateView
		return m, nil
	}

	if m.state == reportStatePick {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		m.Close()
		return m, Back
	case "left", "h":
		m.setPeriod(m.period.Prev())
	case "right", "l":
		m.setPeriod(m.period.Next())
	case "t":
		m.setPeriod(expense.CurrentPeriod(time.Now()))
	case "g":
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Open(m.period)
		m.state = reportStatePick

		return m, cmd
	case "r":
		cmd := m.feed.Reconnect()
		if cmd != nil {
			m.status = ""
		}

		return m, cmd
	}

	return m, nil
}

func (m *ReportModel) setPeriod(p expense.Period) {
	m.period = p
	m.report = expense.Aggregate(m.records, p)
}

func (m ReportModel) View() string {
	if m.state == reportStatePick {
		return lipgloss.NewStyle().Padding(1).Render(m.picker.View())
	}

	if m.feed.Loading() {
		return lipgloss.NewStyle().Padding(2).Render("Loading report...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v\n\n(r to retry, Esc to go back)", m.err))
	}

	var b strings.Builder

	if m.status != "" {
		fmt.Fprintf(&b, "%s\n\n", faint(m.status))
	}

	fmt.Fprintf(&b, "%s\n\n", lipgloss.NewStyle().Bold(true).Render("‹ "+m.report.Period.String()+" ›"))
	fmt.Fprintf(&b, "Total: %s  (%d expenses)\n\n", activeStyle(FormatAmount(m.report.Total)), len(m.report.Records))

	if len(m.report.Breakdown) == 0 {
		b.WriteString(faint("No expenses this month."))
		return lipgloss.NewStyle().Padding(1).Render(b.String())
	}

	for _, s := range m.report.Breakdown {
		width := 0
		if m.report.Total.IsPositive() {
			width = int(s.Total.Div(m.report.Total).Mul(decimal.NewFromInt(barWidth)).Round(0).IntPart())
		}

		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render(strings.Repeat("█", max(width, 1)))
		fmt.Fprintf(&b, "%-15s %10s  %s\n", s.Category, FormatAmount(s.Total), bar)
	}

	return lipgloss.NewStyle().Padding(1).Render(b.String())
}
