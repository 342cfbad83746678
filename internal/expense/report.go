package expense

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FallbackColor is used for any category without an entry in the color table.
const FallbackColor = "#d3d3d3"

var colors = map[Category]string{
	CategoryFood:          "#ff6347",
	CategoryRent:          "#4682b4",
	CategoryTransport:     "#32cd32",
	CategoryEntertainment: "#ffa500",
	CategoryUtilities:     "#8a2be2",
}

// ColorFor returns the chart color of c.
func ColorFor(c Category) string {
	if color, ok := colors[c]; ok {
		return color
	}

	return FallbackColor
}

// Period is a calendar month as seen from Location.
type Period struct {
	Year     int
	Month    time.Month
	Location *time.Location
}

// CurrentPeriod returns the month containing now in now's location.
func CurrentPeriod(now time.Time) Period {
	return Period{Year: now.Year(), Month: now.Month(), Location: now.Location()}
}

func (p Period) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}

	return p.Location
}

// Contains reports whether t falls inside p on the local calendar of p.
func (p Period) Contains(t time.Time) bool {
	local := t.In(p.location())
	return local.Year() == p.Year && local.Month() == p.Month
}

func (p Period) Next() Period {
	return p.shift(1)
}

func (p Period) Prev() Period {
	return p.shift(-1)
}

func (p Period) shift(months int) Period {
	first := time.Date(p.Year, p.Month+time.Month(months), 1, 0, 0, 0, 0, p.location())
	return Period{Year: first.Year(), Month: first.Month(), Location: p.Location}
}

func (p Period) String() string {
	return fmt.Sprintf("%s %d", p.Month, p.Year)
}

// CategorySummary is the total spent in one category.
type CategorySummary struct {
	Category Category
	Total    decimal.Decimal
	Color    string
}

// Report summarizes the records of one period.
type Report struct {
	Period    Period
	Records   []Record
	Total     decimal.Decimal
	Breakdown []CategorySummary
}

// Aggregate sums the records that fall in period. Breakdown lists categories
// in the order they first appear and is empty, not nil, when nothing matches.
func Aggregate(records []Record, period Period) Report {
	rep := Report{
		Period:    period,
		Records:   []Record{},
		Total:     decimal.Zero,
		Breakdown: []CategorySummary{},
	}

	index := make(map[Category]int)

	for _, r := range records {
		if !period.Contains(r.Date) {
			continue
		}

		rep.Records = append(rep.Records, r)
		rep.Total = rep.Total.Add(r.Amount)

		i, ok := index[r.Category]
		if !ok {
			i = len(rep.Breakdown)
			index[r.Category] = i
			rep.Breakdown = append(rep.Breakdown, CategorySummary{
				Category: r.Category,
				Total:    decimal.Zero,
				Color:    ColorFor(r.Category),
			})
		}

		rep.Breakdown[i].Total = rep.Breakdown[i].Total.Add(r.Amount)
	}

	return rep
}

// FormatAmount renders d with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
