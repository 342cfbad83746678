package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/cart"
)

// CartModel edits the session cart.
type CartModel struct {
	ledger *cart.Ledger
	table  table.Model
	lines  []cart.Line
}

func NewCartModel(ledger *cart.Ledger) CartModel {
	columns := []table.Column{
		{Title: "Product", Width: 25},
		{Title: "Unit", Width: 10},
		{Title: "Qty", Width: 5},
		{Title: "Subtotal", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := CartModel{ledger: ledger, table: t}
	m.refreshTable()

	return m
}

func (m CartModel) Title() string     { return "Cart" }
func (m CartModel) ShortHelp() string { return "Esc: back | +: more | -: less | x: remove" }

func (m CartModel) Init() tea.Cmd {
	return nil
}

func (m CartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "+", "=":
			m.adjustSelected(1)
			return m, nil
		case "-":
			m.adjustSelected(-1)
			return m, nil
		case "x", "delete":
			if line, ok := m.selected(); ok {
				m.ledger.Remove(line.ID)
				m.refreshTable()
			}

			return m, nil
		}
	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *CartModel) adjustSelected(delta int) {
	line, ok := m.selected()
	if !ok {
		return
	}

	m.ledger.Adjust(line.ID, delta)
	m.refreshTable()
}

func (m CartModel) selected() (cart.Line, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.lines) {
		return cart.Line{}, false
	}

	return m.lines[idx], true
}

func (m CartModel) View() string {
	if len(m.lines) == 0 {
		return lipgloss.NewStyle().Padding(2).Render("Your cart is empty.\n\n(Esc to go back)")
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	total := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Total: %s", FormatAmount(m.ledger.Total())))

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, tableView, total))
}

func (m *CartModel) refreshTable() {
	m.lines = m.ledger.Lines()

	rows := make([]table.Row, 0, len(m.lines))
	for _, l := range m.lines {
		rows = append(rows, table.Row{
			l.Name,
			FormatAmount(l.UnitPrice),
			fmt.Sprint(l.Quantity),
			FormatAmount(l.Subtotal()),
		})
	}

	m.table.SetRows(rows)

	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}
