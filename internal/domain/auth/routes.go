package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns auth router. throttle guards every route against floods.
func (h *Handler) Routes(throttle func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	if throttle != nil {
		r.Use(throttle)
	}

	r.Get("/login", h.Login)
	r.Get("/callback", h.Callback)
	r.Post("/logout", h.Logout)
	r.Post("/refresh", h.Refresh)

	return r
}
