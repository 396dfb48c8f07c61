package handlers

import "github.com/go-chi/chi/v5"

// Routes mounts the user routes on r.
func (h *Users) Routes(r chi.Router) {
	r.Get("/users/check/{id}", h.CheckRegistration())
	r.Get("/users/{id}", h.GetUser())
	r.Post("/users", h.CreateUser())
	r.Put("/users/{id}", h.UpdateUser())
	r.Delete("/users/{id}", h.DeleteUser())
}
