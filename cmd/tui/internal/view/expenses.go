package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/expense"
)

type expensesState int

const (
	expensesStateBrowse expensesState = iota
	expensesStateEdit
	expensesStateDelete
)

type expenseFields struct {
	Amount      string
	Category    expense.Category
	Description string
}

// ExpensesModel lists the user's expenses live. It holds a subscription for
// as long as it is on screen.
type ExpensesModel struct {
	CommonModel
	expenseService *expense.Service
	feed           *recordFeed

	state     expensesState
	table     table.Model
	form      *huh.Form
	fields    *expenseFields
	editing   *expense.Record
	deleting  *expense.Record
	confirmed *bool

	records  []expense.Record
	visible  []expense.Record
	category expense.Category

	err    error
	status string
}

func NewExpensesModel(common CommonModel, svc *expense.Service, stream *expense.Stream) ExpensesModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Category", Width: 15},
		{Title: "Amount", Width: 12},
		{Title: "Description", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
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

	return ExpensesModel{
		CommonModel:    common,
		expenseService: svc,
		feed:           newRecordFeed(stream, common.OwnerID()),
		table:          t,
		category:       expense.AllCategories,
	}
}

func (m ExpensesModel) Title() string { return "Expenses" }

func (m ExpensesModel) ShortHelp() string {
	switch m.state {
	case expensesStateEdit:
		return "Navigate form | Esc: cancel"
	case expensesStateDelete:
		return "←/→: choose | Enter: confirm | Esc: cancel"
	}

	return "Esc: back | n: new | e: edit | x: delete | c: category | r: reconnect"
}

func (m ExpensesModel) Init() tea.Cmd {
	return m.feed.subscribeCmd()
}

// Close releases the subscription, including one still being set up. The
// model must not be used afterwards.
func (m ExpensesModel) Close() {
	m.feed.Close()
}

func (m ExpensesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ev, cmd, ok := m.feed.Update(msg); ok {
		switch ev.kind {
		case feedSubscribed:
			m.err = nil
		case feedFailed:
			m.err = ev.err
		case feedSnapshot:
			m.records = ev.snapshot.Records
			m.refreshTable()
		case feedEnded:
			if ev.err != nil {
				m.status = fmt.Sprintf("Live updates stopped: %v (r to reconnect)", ev.err)
			}
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case expenseSavedMsg:
		m.state = expensesStateBrowse
		m.form = nil
		m.editing = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		} else {
			m.status = msg.done
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case expensesStateBrowse:
		return m.updateBrowse(msg)
	case expensesStateEdit:
		return m.updateEdit(msg)
	case expensesStateDelete:
		return m.updateDelete(msg)
	}

	return m, nil
}

func (m ExpensesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			m.Close()
			return m, Back
		case "r":
			cmd := m.feed.Reconnect()
			if cmd != nil {
				m.status = ""
			}

			return m, cmd
		case "c":
			m.category = nextCategory(m.category)
			m.refreshTable()

			return m, nil
		case "n":
			return m.enterEditMode(nil)
		case "e":
			if rec := m.selected(); rec != nil {
				return m.enterEditMode(rec)
			}

			return m, nil
		case "x":
			if rec := m.selected(); rec != nil {
				return m.enterDeleteMode(rec)
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ExpensesModel) selected() *expense.Record {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.visible) {
		return nil
	}

	rec := m.visible[idx]

	return &rec
}

func (m ExpensesModel) enterEditMode(rec *expense.Record) (tea.Model, tea.Cmd) {
	m.editing = rec
	m.fields = &expenseFields{Category: expense.CategoryFood}

	if rec != nil {
		m.fields.Amount = rec.Amount.String()
		m.fields.Category = rec.Category
		m.fields.Description = rec.Description
	} else if m.category != expense.AllCategories {
		m.fields.Category = m.category
	}

	categories := expense.Categories()
	options := make([]huh.Option[expense.Category], len(categories))

	for i, c := range categories {
		options[i] = huh.NewOption(string(c), c)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title("Amount").
				Placeholder("0.00").
				Value(&m.fields.Amount).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil || !d.IsPositive() {
						return fmt.Errorf("enter a positive amount")
					}
					return nil
				}),

			huh.NewSelect[expense.Category]().
				Key("category").
				Title("Category").
				Options(options...).
				Value(&m.fields.Category),

			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&m.fields.Description).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("description cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = expensesStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ExpensesModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = expensesStateBrowse
			m.form = nil
			m.editing = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m ExpensesModel) enterDeleteMode(rec *expense.Record) (tea.Model, tea.Cmd) {
	m.deleting = rec
	m.confirmed = new(bool)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Are you sure you want to delete this expense?").
				Description(FormatAmount(rec.Amount)+"  "+rec.Description).
				Affirmative("Delete").
				Negative("Cancel").
				Value(m.confirmed),
		),
	).WithWidth(52).WithShowHelp(false)

	m.state = expensesStateDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m ExpensesModel) updateDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.leaveDeleteMode(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	rec, confirmed := m.deleting, *m.confirmed
	m = m.leaveDeleteMode()

	if !confirmed {
		return m, nil
	}

	return m, m.deleteCmd(rec.ID)
}

func (m ExpensesModel) leaveDeleteMode() ExpensesModel {
	m.state = expensesStateBrowse
	m.form = nil
	m.deleting = nil
	m.confirmed = nil
	m.table.Focus()

	return m
}

func (m ExpensesModel) View() string {
	if m.feed.Loading() {
		return lipgloss.NewStyle().Padding(2).Render("Loading expenses...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v\n\n(r to retry, Esc to go back)", m.err))
	}

	total := decimal.Zero
	for _, r := range m.visible {
		total = total.Add(r.Amount)
	}

	header := fmt.Sprintf(
		"Filter: [c] Category: %s | Total: %s",
		activeStyle(string(m.category)),
		FormatAmount(total),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == expensesStateEdit && m.form != nil {
		title := "New Expense"
		if m.editing != nil {
			title = "Edit Expense"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(title + "\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.state == expensesStateDelete && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Width(60).
			Render("Delete Expense\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = faint(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func nextCategory(c expense.Category) expense.Category {
	cycle := append([]expense.Category{expense.AllCategories}, expense.Categories()...)

	for i, v := range cycle {
		if v == c {
			return cycle[(i+1)%len(cycle)]
		}
	}

	return expense.AllCategories
}

func (m *ExpensesModel) refreshTable() {
	m.visible = expense.FilterByCategory(m.records, m.category)

	rows := make([]table.Row, 0, len(m.visible))
	for _, r := range m.visible {
		rows = append(rows, table.Row{
			FormatDate(r.Date),
			string(r.Category),
			FormatAmount(r.Amount),
			r.Description,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type expenseSavedMsg struct {
	done string
	err  error
}

func (m ExpensesModel) saveCmd() tea.Cmd {
	fields := *m.fields
	editing := m.editing
	svc := m.expenseService
	owner := m.OwnerID()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		amount, err := decimal.NewFromString(strings.TrimSpace(fields.Amount))
		if err != nil {
			return expenseSavedMsg{err: err}
		}

		if editing == nil {
			_, err := svc.Create(ctx, owner, expense.CreateParams{
				Amount:      amount,
				Category:    fields.Category,
				Description: fields.Description,
			})

			return expenseSavedMsg{done: "Expense added.", err: err}
		}

		err = svc.Update(ctx, owner, editing.ID, expense.UpdateParams{
			Amount:      &amount,
			Category:    &fields.Category,
			Description: &fields.Description,
		})

		return expenseSavedMsg{done: "Expense updated.", err: err}
	}
}

func (m ExpensesModel) deleteCmd(id string) tea.Cmd {
	svc := m.expenseService
	owner := m.OwnerID()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return expenseSavedMsg{done: "Expense deleted.", err: svc.Delete(ctx, owner, id)}
	}
}
