// internal/app/features/authgoogle/routes.go
package authgoogle

import "github.com/go-chi/chi/v5"

// Routes returns the router for the Google OAuth callback. The flow
// entry points (ServeLogin, ServeRegister) are attached to the login and
// register routers. These routes are public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// GET /auth/google/callback - Handle Google OAuth callback
	r.Get("/callback", h.ServeCallback)

	return r
}
