// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/go-chi/chi/v5"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/guard"
)

// Routes wires the signed-in dashboard (mounted at "/dashboard").
func Routes(h *Handler, g *guard.Guard) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(g.RequireSignedIn)
		pr.Get("/", h.ServeDashboard)
	})
	return r
}

// AdminRoutes wires the admin dashboard (mounted at "/admin-dashboard").
func AdminRoutes(h *Handler, g *guard.Guard) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(g.RequireAdmin)
		pr.Get("/", h.ServeAdmin)
	})
	return r
}
