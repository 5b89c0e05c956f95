package fakeapi

import "github.com/go-chi/chi/v5"

func registerRoutes(r chi.Router, s *Server) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/jwt/create/", s.createSession)
		r.Post("/jwt/refresh/", s.refreshSession)
		r.Post("/jwt/verify/", s.verifyToken)

		r.Post("/users/", s.registerUser)
		r.Post("/users/activation/", s.activateUser)
		r.Post("/users/reset_password/", s.resetPassword)
		r.Post("/users/reset_password_confirm/", s.resetPasswordConfirm)

		r.With(s.authenticate).Get("/users/me/", s.me)
	})
}
