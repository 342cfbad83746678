package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/encoding"
	"github.com/MrJamesThe3rd/tally/internal/remote"
)

const (
	colName        = "name"
	colDescription = "description"
	colPrice       = "price"
	colImage       = "image"
	colCategory    = "category"

	// Optional. Without it, new categories are created without an image.
	colCategoryImage = "category image"
)

var ErrMissingColumns = errors.New("missing required columns")

// ImportResult reports what an import wrote.
type ImportResult struct {
	Charset    encoding.Charset
	Products   int
	Categories int
}

// Importer seeds the catalog from a CSV file with the columns Name,
// Description, Price, Image and Category, plus an optional Category Image.
// Header names are matched case insensitively and the delimiter may be a
// comma or a semicolon.
type Importer struct {
	store  remote.Store
	logger *slog.Logger
}

func NewImporter(store remote.Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Importer{store: store, logger: logger}
}

// Parse decodes r into products without writing anything.
func (i *Importer) Parse(r io.Reader) ([]Product, encoding.Charset, error) {
	products, _, charset, err := i.parse(r)
	return products, charset, err
}

// parse also returns the category images found in the optional
// "Category Image" column, keyed by category name.
func (i *Importer) parse(r io.Reader) ([]Product, map[string]string, encoding.Charset, error) {
	utf8Reader, charset, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, nil, "", fmt.Errorf("detecting encoding: %w", err)
	}

	data, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, nil, "", fmt.Errorf("reading csv: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, "", fmt.Errorf("reading csv: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil, charset, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}

	idx := map[string]int{}
	for n, col := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(col))] = n
	}

	for _, required := range []string{colName, colPrice, colCategory} {
		if _, ok := idx[required]; !ok {
			return nil, nil, charset, fmt.Errorf("%w: %s", ErrMissingColumns, required)
		}
	}

	field := func(row []string, col string) string {
		n, ok := idx[col]
		if !ok || n >= len(row) {
			return ""
		}

		return strings.TrimSpace(row[n])
	}

	var products []Product

	categoryImages := map[string]string{}

	for line, row := range rows[1:] {
		name := field(row, colName)
		if name == "" {
			continue
		}

		price, err := parseImportPrice(field(row, colPrice))
		if err != nil {
			return nil, nil, charset, fmt.Errorf("line %d: %w", line+2, err)
		}

		category := field(row, colCategory)
		if img := field(row, colCategoryImage); img != "" && categoryImages[category] == "" {
			categoryImages[category] = img
		}

		products = append(products, Product{
			Name:        name,
			Description: field(row, colDescription),
			Price:       NewPrice(price),
			Image:       field(row, colImage),
			Category:    category,
		})
	}

	return products, categoryImages, charset, nil
}

// Import parses r and writes its products, creating any category that does
// not exist yet.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	products, categoryImages, charset, err := i.parse(r)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{Charset: charset}

	existing, err := i.store.Query(ctx, CategoryCollection, nil)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	known := make(map[string]bool, len(existing))

	for _, d := range existing {
		var c Category
		if err := json.Unmarshal(d.Data, &c); err == nil {
			known[c.Name] = true
		}
	}

	for _, p := range products {
		if p.Category != "" && !known[p.Category] {
			category := Category{Name: p.Category, Image: categoryImages[p.Category]}
			if _, err := i.store.Push(ctx, CategoryCollection, category); err != nil {
				return nil, fmt.Errorf("creating category %s: %w", p.Category, err)
			}

			known[p.Category] = true
			res.Categories++
		}

		if _, err := i.store.Push(ctx, ProductCollection, p); err != nil {
			return nil, fmt.Errorf("creating product %s: %w", p.Name, err)
		}

		res.Products++
	}

	i.logger.Info("catalog imported",
		"charset", charset,
		"products", res.Products,
		"categories", res.Categories,
	)

	return res, nil
}

func sniffDelimiter(data []byte) rune {
	header, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}

	return ','
}

// parseImportPrice accepts "2.50", "2,50" and an optional currency sign.
func parseImportPrice(raw string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(strings.TrimLeft(raw, "$€£ "))
	if clean == "" {
		return decimal.Zero, nil
	}

	if !strings.Contains(clean, ".") {
		clean = strings.Replace(clean, ",", ".", 1)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", raw)
	}

	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %q", raw)
	}

	return d, nil
}
