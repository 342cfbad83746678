package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tally/internal/catalog"
)

type Handler struct {
	svc *catalog.Service
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/categories", h.categories)
	r.Get("/featured", h.featured)
	r.Get("/products", h.products)
}

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type featuredResponse struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

type productResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image,omitempty"`
	Category    string `json:"category"`
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = categoryResponse{ID: c.ID, Name: c.Name, Image: c.Image}
	}

	writeJSON(w, resp)
}

func (h *Handler) featured(w http.ResponseWriter, r *http.Request) {
	featured, err := h.svc.Featured(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]featuredResponse, len(featured))
	for i, f := range featured {
		resp[i] = featuredResponse{ID: f.ID, Image: f.Image}
	}

	writeJSON(w, resp)
}

func (h *Handler) products(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Products(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = productResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price.StringFixed(2),
			Image:       p.Image,
			Category:    p.Category,
		}
	}

	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	slog.Error("catalog read failed", "error", err)
	http.Error(w, "catalog unavailable", http.StatusBadGateway)
}
