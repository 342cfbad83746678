package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authsvc "github.com/MrJamesThe3rd/tally/internal/auth"
	"github.com/MrJamesThe3rd/tally/internal/http/auth"
	"github.com/MrJamesThe3rd/tally/internal/http/cart"
	"github.com/MrJamesThe3rd/tally/internal/http/catalog"
	"github.com/MrJamesThe3rd/tally/internal/http/expense"
	"github.com/MrJamesThe3rd/tally/internal/http/report"
)

type Options struct {
	CORSOrigins []string
	// Timeout bounds every request except the event streams.
	Timeout time.Duration
}

func New(
	opts Options,
	authService *authsvc.Service,
	authV1 *auth.Handler,
	expensesV1 *expense.Handler,
	reportsV1 *report.Handler,
	catalogV1 *catalog.Handler,
	cartV1 *cart.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	timeout := middleware.Timeout(opts.Timeout)
	if opts.Timeout <= 0 {
		timeout = func(next http.Handler) http.Handler { return next }
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(timeout)
			r.Use(middleware.AllowContentType("application/json"))
			authV1.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser(authService))

			r.Route("/expenses", func(r chi.Router) {
				expensesV1.StreamRoutes(r)

				r.Group(func(r chi.Router) {
					r.Use(timeout)
					r.Use(middleware.AllowContentType("application/json"))
					expensesV1.Routes(r)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(timeout)

				r.Route("/reports", reportsV1.Routes)
				r.Route("/catalog", catalogV1.Routes)

				r.Route("/cart", func(r chi.Router) {
					r.Use(middleware.AllowContentType("application/json"))
					cartV1.Routes(r)
				})
			})
		})
	})

	return router
}
