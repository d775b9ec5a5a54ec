// internal/app/features/profile/routes.go
package profile

import (
	"github.com/go-chi/chi/v5"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/guard"
)

// Routes mounts the signed-in user's own profile (typically at "/profile").
func Routes(h *Handler, g *guard.Guard) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(g.RequireSignedIn)
		pr.Get("/", h.ServeProfile)
		pr.Patch("/", h.HandleUpdate)
		pr.Post("/avatar", h.HandleAvatar)
		pr.Post("/preferences", h.HandlePreferences)
	})
	return r
}
