package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tally/internal/cart"
	"github.com/MrJamesThe3rd/tally/internal/catalog"
	httpauth "github.com/MrJamesThe3rd/tally/internal/http/auth"
)

type Handler struct {
	carts    *cart.Registry
	products *catalog.Service
}

func NewHandler(carts *cart.Registry, products *catalog.Service) *Handler {
	return &Handler{carts: carts, products: products}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Delete("/", h.clear)
	r.Post("/items", h.addItem)
	r.Patch("/items/{id}", h.adjustItem)
	r.Delete("/items/{id}", h.removeItem)
}

type lineResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

type cartResponse struct {
	Lines []lineResponse `json:"lines"`
	Total string         `json:"total"`
}

func toResponse(v cart.View) cartResponse {
	resp := cartResponse{
		Lines: make([]lineResponse, len(v.Lines)),
		Total: v.Total.StringFixed(2),
	}

	for i, l := range v.Lines {
		resp.Lines[i] = lineResponse{
			ID:          l.ID,
			Name:        l.Name,
			Description: l.Description,
			UnitPrice:   l.UnitPrice.StringFixed(2),
			Quantity:    l.Quantity,
			Subtotal:    l.Subtotal().StringFixed(2),
		}
	}

	return resp
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	writeCart(w, http.StatusOK, h.carts.View(httpauth.UserID(r.Context())))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	h.carts.Drop(httpauth.UserID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.ProductID == "" {
		http.Error(w, "product_id is required", http.StatusBadRequest)
		return
	}

	p, err := h.products.Product(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}

		slog.Error("failed to load product", "error", err)
		http.Error(w, "catalog unavailable", http.StatusBadGateway)

		return
	}

	view := h.carts.Do(httpauth.UserID(r.Context()), func(l *cart.Ledger) {
		l.Add(p.CartProduct())
	})

	writeCart(w, http.StatusOK, view)
}

type adjustItemRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) adjustItem(w http.ResponseWriter, r *http.Request) {
	var req adjustItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")

	view := h.carts.Do(httpauth.UserID(r.Context()), func(l *cart.Ledger) {
		l.Adjust(id, req.Delta)
	})

	writeCart(w, http.StatusOK, view)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view := h.carts.Do(httpauth.UserID(r.Context()), func(l *cart.Ledger) {
		l.Remove(id)
	})

	writeCart(w, http.StatusOK, view)
}

func writeCart(w http.ResponseWriter, status int, v cart.View) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(toResponse(v)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
