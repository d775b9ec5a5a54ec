package firstadmin

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeStatus)
	r.Post("/", h.HandleClaim)
	return r
}
