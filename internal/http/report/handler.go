package report

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tally/internal/expense"
	httpauth "github.com/MrJamesThe3rd/tally/internal/http/auth"
	"github.com/MrJamesThe3rd/tally/internal/remote"
)

type Handler struct {
	svc *expense.Service
	now func() time.Time
}

func NewHandler(svc *expense.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/monthly", h.monthly)
}

type summaryResponse struct {
	Category expense.Category `json:"category"`
	Total    string           `json:"total"`
	Color    string           `json:"color"`
}

type recordResponse struct {
	ID          string           `json:"id"`
	Amount      string           `json:"amount"`
	Category    expense.Category `json:"category"`
	Description string           `json:"description"`
	Date        time.Time        `json:"date"`
}

type monthlyResponse struct {
	Period    string            `json:"period"`
	Year      int               `json:"year"`
	Month     int               `json:"month"`
	Timezone  string            `json:"timezone"`
	Total     string            `json:"total"`
	Breakdown []summaryResponse `json:"breakdown"`
	Records   []recordResponse  `json:"records"`
}

// monthly reports one calendar month. year and month default to the current
// month, and tz selects the calendar the month is read in.
func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.svc.List(r.Context(), httpauth.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, remote.ErrPermissionDenied) {
			http.Error(w, "permission denied", http.StatusForbidden)
			return
		}

		slog.Error("failed to list expenses", "error", err)
		http.Error(w, "remote store unavailable", http.StatusBadGateway)

		return
	}

	rep := expense.Aggregate(records, period)

	resp := monthlyResponse{
		Period:    rep.Period.String(),
		Year:      rep.Period.Year,
		Month:     int(rep.Period.Month),
		Timezone:  period.Location.String(),
		Total:     expense.FormatAmount(rep.Total),
		Breakdown: make([]summaryResponse, len(rep.Breakdown)),
		Records:   make([]recordResponse, len(rep.Records)),
	}

	for i, s := range rep.Breakdown {
		resp.Breakdown[i] = summaryResponse{
			Category: s.Category,
			Total:    expense.FormatAmount(s.Total),
			Color:    s.Color,
		}
	}

	for i, rec := range rep.Records {
		resp.Records[i] = recordResponse{
			ID:          rec.ID,
			Amount:      expense.FormatAmount(rec.Amount),
			Category:    rec.Category,
			Description: rec.Description,
			Date:        rec.Date,
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) period(r *http.Request) (expense.Period, error) {
	q := r.URL.Query()

	loc := time.Local

	if tz := q.Get("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return expense.Period{}, errors.New("invalid tz")
		}

		loc = l
	}

	period := expense.CurrentPeriod(h.now().In(loc))

	if s := q.Get("year"); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil || year < 1 {
			return expense.Period{}, errors.New("invalid year")
		}

		period.Year = year
	}

	if s := q.Get("month"); s != "" {
		month, err := strconv.Atoi(s)
		if err != nil || month < 1 || month > 12 {
			return expense.Period{}, errors.New("invalid month: use 1-12")
		}

		period.Month = time.Month(month)
	}

	return period, nil
}
