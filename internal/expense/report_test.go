package expense_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/expense"
)

func rec(id string, amount int64, c expense.Category, date time.Time) expense.Record {
	return expense.Record{
		ID:          id,
		Amount:      decimal.NewFromInt(amount),
		Category:    c,
		Description: id,
		Date:        date,
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func january2024() expense.Period {
	return expense.Period{Year: 2024, Month: time.January, Location: time.UTC}
}

func TestAggregate(t *testing.T) {
	records := []expense.Record{
		rec("a", 100, expense.CategoryFood, day(2024, time.January, 5)),
		rec("b", 50, expense.CategoryRent, day(2024, time.January, 20)),
		rec("c", 30, expense.CategoryFood, day(2024, time.February, 1)),
	}

	type testCase struct {
		name          string
		records       []expense.Record
		period        expense.Period
		wantTotal     string
		wantBreakdown []expense.CategorySummary
	}

	tests := []testCase{
		{
			name:      "January",
			records:   records,
			period:    january2024(),
			wantTotal: "150",
			wantBreakdown: []expense.CategorySummary{
				{Category: expense.CategoryFood, Total: decimal.NewFromInt(100), Color: "#ff6347"},
				{Category: expense.CategoryRent, Total: decimal.NewFromInt(50), Color: "#4682b4"},
			},
		},
		{
			name:      "February",
			records:   records,
			period:    expense.Period{Year: 2024, Month: time.February, Location: time.UTC},
			wantTotal: "30",
			wantBreakdown: []expense.CategorySummary{
				{Category: expense.CategoryFood, Total: decimal.NewFromInt(30), Color: "#ff6347"},
			},
		},
		{
			name:          "NoRecords",
			records:       nil,
			period:        january2024(),
			wantTotal:     "0",
			wantBreakdown: []expense.CategorySummary{},
		},
		{
			name:          "NothingInPeriod",
			records:       records,
			period:        expense.Period{Year: 2023, Month: time.January, Location: time.UTC},
			wantTotal:     "0",
			wantBreakdown: []expense.CategorySummary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expense.Aggregate(tt.records, tt.period)

			assert.Equal(t, tt.wantTotal, got.Total.String())
			require.NotNil(t, got.Breakdown)
			require.Len(t, got.Breakdown, len(tt.wantBreakdown))

			for i, want := range tt.wantBreakdown {
				assert.Equal(t, want.Category, got.Breakdown[i].Category)
				assert.True(t, want.Total.Equal(got.Breakdown[i].Total), "total of %s", want.Category)
				assert.Equal(t, want.Color, got.Breakdown[i].Color)
			}
		})
	}
}

func TestAggregate_ExactDecimalSum(t *testing.T) {
	records := make([]expense.Record, 10)
	for i := range records {
		records[i] = expense.Record{
			Amount:   decimal.RequireFromString("0.1"),
			Category: expense.CategoryTransport,
			Date:     day(2024, time.January, 2),
		}
	}

	got := expense.Aggregate(records, january2024())

	assert.True(t, decimal.NewFromInt(1).Equal(got.Total), "got %s", got.Total)
	assert.Equal(t, "1.00", expense.FormatAmount(got.Total))
}

func TestAggregate_Idempotent(t *testing.T) {
	records := []expense.Record{
		rec("a", 12, expense.CategoryUtilities, day(2024, time.January, 3)),
		rec("b", 7, expense.CategoryEntertainment, day(2024, time.January, 9)),
		rec("c", 5, expense.CategoryUtilities, day(2024, time.January, 30)),
	}

	first := expense.Aggregate(records, january2024())
	second := expense.Aggregate(records, january2024())

	assert.Equal(t, first, second)
}

func TestAggregate_UsesLocalCalendar(t *testing.T) {
	eastern := time.FixedZone("UTC-5", -5*60*60)

	// 23:30 on 31 January locally is already February in UTC.
	lateNight := time.Date(2024, time.January, 31, 23, 30, 0, 0, eastern)
	records := []expense.Record{rec("a", 40, expense.CategoryFood, lateNight.UTC())}

	local := expense.Aggregate(records, expense.Period{Year: 2024, Month: time.January, Location: eastern})
	assert.Equal(t, "40", local.Total.String())
	assert.Len(t, local.Records, 1)

	utc := expense.Aggregate(records, january2024())
	assert.True(t, utc.Total.IsZero())
}

func TestAggregate_UnknownCategoryUsesFallbackColor(t *testing.T) {
	records := []expense.Record{rec("a", 9, expense.Category("Gifts"), day(2024, time.January, 14))}

	got := expense.Aggregate(records, january2024())

	require.Len(t, got.Breakdown, 1)
	assert.Equal(t, expense.FallbackColor, got.Breakdown[0].Color)
	assert.Equal(t, "#d3d3d3", expense.ColorFor("Gifts"))
}

func TestCurrentPeriod(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	now := time.Date(2024, time.March, 1, 0, 30, 0, 0, loc)

	p := expense.CurrentPeriod(now)

	assert.Equal(t, 2024, p.Year)
	assert.Equal(t, time.March, p.Month)
	assert.Equal(t, loc, p.Location)
}

func TestPeriod_Navigation(t *testing.T) {
	dec := expense.Period{Year: 2023, Month: time.December, Location: time.UTC}

	assert.Equal(t, expense.Period{Year: 2024, Month: time.January, Location: time.UTC}, dec.Next())
	assert.Equal(t, dec, dec.Next().Prev())
	assert.Equal(t, "November 2023", dec.Prev().String())
	assert.Equal(t, "January 2024", january2024().String())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "12.35", expense.FormatAmount(decimal.RequireFromString("12.345")))
	assert.Equal(t, "0.00", expense.FormatAmount(decimal.Zero))
}
