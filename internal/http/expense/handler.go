package expense

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/expense"
	httpauth "github.com/MrJamesThe3rd/tally/internal/http/auth"
	"github.com/MrJamesThe3rd/tally/internal/remote"
)

type Handler struct {
	svc    *expense.Service
	stream *expense.Stream
}

func NewHandler(svc *expense.Service, stream *expense.Stream) *Handler {
	return &Handler{svc: svc, stream: stream}
}

// Routes registers the request/response endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

// StreamRoutes registers the long-lived endpoints. They must not sit behind
// a request timeout.
func (h *Handler) StreamRoutes(r chi.Router) {
	r.Get("/stream", h.streamSnapshots)
}

type createExpenseRequest struct {
	Amount      decimal.Decimal  `json:"amount"`
	Category    expense.Category `json:"category"`
	Description string           `json:"description"`
}

type createExpenseResponse struct {
	ID string `json:"id"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.svc.Create(r.Context(), httpauth.UserID(r.Context()), expense.CreateParams{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(createExpenseResponse{ID: id}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.List(r.Context(), httpauth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	records = expense.FilterByCategory(records, selectedCategory(r))

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(records)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), httpauth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(*rec)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateExpenseRequest struct {
	Amount      *decimal.Decimal  `json:"amount,omitempty"`
	Category    *expense.Category `json:"category,omitempty"`
	Description *string           `json:"description,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.svc.Update(r.Context(), httpauth.UserID(r.Context()), chi.URLParam(r, "id"), expense.UpdateParams{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), httpauth.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func selectedCategory(r *http.Request) expense.Category {
	if c := r.URL.Query().Get("category"); c != "" {
		return expense.Category(c)
	}

	return expense.AllCategories
}

func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *expense.ValidationError
		remoteErr     *expense.RemoteError
	)

	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &remoteErr) && errors.Is(err, remote.ErrNotFound):
		http.Error(w, "expense not found", http.StatusNotFound)
	case errors.As(err, &remoteErr) && errors.Is(err, remote.ErrPermissionDenied):
		http.Error(w, "permission denied", http.StatusForbidden)
	case errors.As(err, &remoteErr):
		slog.Error("remote store failed", "op", remoteErr.Op, "error", remoteErr.Err)
		http.Error(w, "remote store unavailable", http.StatusBadGateway)
	default:
		slog.Error("expense request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
