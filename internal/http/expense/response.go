package expense

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/expense"
)

type expenseResponse struct {
	ID          string           `json:"id"`
	Amount      decimal.Decimal  `json:"amount"`
	Category    expense.Category `json:"category"`
	Description string           `json:"description"`
	Date        time.Time        `json:"date"`
}

func toResponse(r expense.Record) expenseResponse {
	return expenseResponse{
		ID:          r.ID,
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
		Date:        r.Date,
	}
}

func toResponseList(records []expense.Record) []expenseResponse {
	resp := make([]expenseResponse, len(records))
	for i, r := range records {
		resp[i] = toResponse(r)
	}

	return resp
}
