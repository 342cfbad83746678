package view

import (
	"context"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/expense"
)

const dbTimeout = 5 * time.Second

// FormatAmount formats an amount with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return expense.FormatAmount(d)
}

// FormatDate formats a time.Time into YYYY-MM-DD in local time.
func FormatDate(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// DbCtx returns a context with a standard timeout for store operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func errorStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(s)
}

func faint(s string) string {
	return lipgloss.NewStyle().Faint(true).Render(s)
}
