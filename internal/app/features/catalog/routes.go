// internal/app/features/catalog/routes.go
package catalog

import (
	"github.com/go-chi/chi/v5"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/guard"
)

// HousingRoutes mounts the housing catalog (at "/housing-catalog").
func HousingRoutes(h *Handler, g *guard.Guard) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(g.RequireSignedIn)
		pr.Get("/", h.ServeHousing)
	})
	return r
}

// CreditRoutes mounts the credit simulator (at "/credit-simulator").
func CreditRoutes(h *Handler, g *guard.Guard) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(g.RequireSignedIn)
		pr.Get("/", h.ServeCredit)
		pr.Post("/", h.HandleSimulate)
	})
	return r
}
