package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tally/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/tally/internal/auth"
	"github.com/MrJamesThe3rd/tally/internal/backend"
	"github.com/MrJamesThe3rd/tally/internal/cart"
	"github.com/MrJamesThe3rd/tally/internal/catalog"
	"github.com/MrJamesThe3rd/tally/internal/config"
	"github.com/MrJamesThe3rd/tally/internal/expense"
)

type model struct {
	appName        string
	authService    *auth.Service
	expenseService *expense.Service
	expenseStream  *expense.Stream
	catalogService *catalog.Service

	session *auth.Session
	ledger  *cart.Ledger

	currentView View
	size        tea.WindowSizeMsg

	loginView    view.LoginModel
	expensesView view.ExpensesModel
	reportView   view.ReportModel
	shopView     view.ShopModel
	cartView     view.CartModel
}

type View int

const (
	ViewLogin    View = 0
	ViewMenu     View = 1
	ViewExpenses View = 2
	ViewReport   View = 3
	ViewShop     View = 4
	ViewCart     View = 5
)

func initialModel(cfg *config.Config, b *backend.Backend) model {
	// The store logs would draw over the screen.
	quiet := slog.New(slog.DiscardHandler)

	authSvc := auth.NewService(b.Users, b.Denylist, auth.Config{
		Secret:   []byte(cfg.Auth.Secret),
		TokenTTL: cfg.Auth.TokenTTL,
	})

	return model{
		appName:        cfg.App.Name,
		authService:    authSvc,
		expenseService: expense.NewService(b.Store, expense.WithLogger(quiet)),
		expenseStream:  expense.NewStream(b.Store, quiet),
		catalogService: catalog.NewService(b.Store, quiet),
		ledger:         cart.NewLedger(),
		currentView:    ViewLogin,
		loginView:      view.NewLoginModel(authSvc),
	}
}

func (m model) common() view.CommonModel {
	return view.CommonModel{Session: m.session}
}

func (m model) Init() tea.Cmd {
	return m.loginView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.expensesView.Close()
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewExpenses
				m.expensesView = view.NewExpensesModel(m.common(), m.expenseService, m.expenseStream)

				return m, tea.Batch(m.expensesView.Init(), m.resize())
			case "2":
				m.currentView = ViewReport
				m.reportView = view.NewReportModel(m.common(), m.expenseStream)

				return m, tea.Batch(m.reportView.Init(), m.resize())
			case "3":
				m.currentView = ViewShop
				m.shopView = view.NewShopModel(m.catalogService, m.ledger)

				return m, tea.Batch(m.shopView.Init(), m.resize())
			case "4":
				m.currentView = ViewCart
				m.cartView = view.NewCartModel(m.ledger)

				return m, tea.Batch(m.cartView.Init(), m.resize())
			case "o":
				return m.signOut()
			}
		}
	case view.SignedInMsg:
		m.session = msg.Session
		m.currentView = ViewMenu

		return m, nil
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	case tea.WindowSizeMsg:
		m.size = msg
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewExpenses:
		var newModel tea.Model
		newModel, cmd = m.expensesView.Update(msg)
		m.expensesView = newModel.(view.ExpensesModel)
	case ViewReport:
		var newModel tea.Model
		newModel, cmd = m.reportView.Update(msg)
		m.reportView = newModel.(view.ReportModel)
	case ViewShop:
		var newModel tea.Model
		newModel, cmd = m.shopView.Update(msg)
		m.shopView = newModel.(view.ShopModel)
	case ViewCart:
		var newModel tea.Model
		newModel, cmd = m.cartView.Update(msg)
		m.cartView = newModel.(view.CartModel)
	}

	return m, cmd
}

// resize replays the last window size to a view created after it arrived.
func (m model) resize() tea.Cmd {
	if m.size.Width == 0 {
		return nil
	}

	size := m.size

	return func() tea.Msg { return size }
}

func (m model) signOut() (tea.Model, tea.Cmd) {
	if m.session != nil {
		ctx, cancel := view.DbCtx()
		defer cancel()

		if err := m.authService.SignOut(ctx, m.session.Token); err != nil {
			slog.Debug("failed to revoke session", "error", err)
		}
	}

	m.session = nil
	m.ledger = cart.NewLedger()
	m.currentView = ViewLogin
	m.loginView = view.NewLoginModel(m.authService)

	return m, m.loginView.Init()
}

func (m model) View() string {
	var current view.View

	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMenu:
		userID := ""
		if m.session != nil {
			userID = m.session.UserID
		}

		return lipgloss.NewStyle().Padding(2).Render(
			m.appName + "\n\n" +
				"1. Expenses\n" +
				"2. Monthly Report\n" +
				"3. Shop\n" +
				"4. Cart\n\n" +
				"o. Sign Out\n" +
				"q. Quit\n\n" +
				lipgloss.NewStyle().Faint(true).Render("Signed in as user "+userID),
		)
	case ViewExpenses:
		current = m.expensesView
	case ViewReport:
		current = m.reportView
	case ViewShop:
		current = m.shopView
	case ViewCart:
		current = m.cartView
	default:
		return "Unknown View"
	}

	title := lipgloss.NewStyle().Bold(true).Padding(1, 1, 0).Render(current.Title())
	help := lipgloss.NewStyle().Faint(true).Padding(0, 1).Render(current.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, title, current.View(), help)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	b, err := backend.Open(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open backend", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer b.Close()

	p := tea.NewProgram(initialModel(cfg, b), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
