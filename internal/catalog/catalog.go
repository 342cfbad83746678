// Package catalog reads the grocery catalog: categories, featured banners
// and products. The catalog is read-only for shoppers and seeded with the
// importer.
package catalog

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/cart"
)

// Store collections.
const (
	CategoryCollection = "Category"
	FeaturedCollection = "Featured"
	ProductCollection  = "Product"
)

type Category struct {
	ID    string `json:"-"`
	Name  string `json:"Name"`
	Image string `json:"Image,omitempty"`
}

type Featured struct {
	ID    string `json:"-"`
	Image string `json:"Image"`
}

type Product struct {
	ID          string `json:"-"`
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Price       Price  `json:"Price"`
	Image       string `json:"Image,omitempty"`
	Category    string `json:"Category"`
}

// CartProduct is the product as the cart sees it.
func (p Product) CartProduct() cart.Product {
	return cart.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.Decimal,
	}
}

// Price is stored either as a string or as a number. Anything that does not
// parse reads as zero.
type Price struct {
	decimal.Decimal
}

func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

func (p *Price) UnmarshalJSON(data []byte) error {
	p.Decimal = parsePrice(data)
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Decimal.String())
}

func parsePrice(data []byte) decimal.Decimal {
	data = bytes.TrimSpace(data)

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}

	return d
}
