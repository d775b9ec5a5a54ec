// internal/app/features/adminusers/routes.go
package adminusers

import (
	"github.com/go-chi/chi/v5"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/guard"
)

// Routes mounts the admin user-management routes (typically at
// "/admin-users"). Every route requires a positively resolved admin role.
func Routes(h *Handler, g *guard.Guard) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(g.RequireAdmin)

		pr.Get("/", h.ServeList)

		pr.Get("/invitations", h.ServeInvitations)
		pr.Post("/invitations", h.HandleGenerate)

		pr.Patch("/{id}", h.HandleEdit)
	})

	return r
}
