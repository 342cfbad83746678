package expense

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the fixed set of expense categories.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryRent          Category = "Rent"
	CategoryTransport     Category = "Transport"
	CategoryEntertainment Category = "Entertainment"
	CategoryUtilities     Category = "Utilities"
)

// AllCategories selects every record in FilterByCategory.
const AllCategories Category = "All"

var categories = []Category{
	CategoryFood,
	CategoryRent,
	CategoryTransport,
	CategoryEntertainment,
	CategoryUtilities,
}

// Categories returns the known categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)

	return out
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}

	return false
}

// Record is a single expense owned by one user.
type Record struct {
	ID          string
	Amount      decimal.Decimal
	Category    Category
	Description string
	Date        time.Time
}

// document is the stored form of a Record. The ID lives in the key.
type document struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

func decodeRecord(id string, raw json.RawMessage) (Record, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Record{}, fmt.Errorf("decoding record %s: %w", id, err)
	}

	return Record{
		ID:          id,
		Amount:      doc.Amount,
		Category:    doc.Category,
		Description: doc.Description,
		Date:        doc.Date,
	}, nil
}
