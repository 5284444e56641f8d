package handler

import (
	"github.com/arkhipov/post-service/internal/middleware"
	"github.com/arkhipov/post-service/internal/token"
	"github.com/gorilla/mux"
)

// NewRouter wires all routes. Public routes are registered before the
// authenticated subrouter so they bypass the auth gate.
func NewRouter(h *Handler, tokens *token.Manager) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods("GET")

	// Public routes
	r.HandleFunc("/users/register", h.Register).Methods("POST")
	r.HandleFunc("/users/login", h.Login).Methods("POST")

	// Protected routes
	authRouter := r.PathPrefix("/users").Subrouter()
	authRouter.Use(middleware.Auth(tokens))
	authRouter.HandleFunc("/me", h.GetMe).Methods("GET")
	authRouter.HandleFunc("/me", h.UpdateMe).Methods("PATCH")
	authRouter.HandleFunc("/posts", h.ListPosts).Methods("GET")
	authRouter.HandleFunc("/posts", h.CreatePost).Methods("POST")
	authRouter.HandleFunc("/posts/feed", h.PostsFeed).Methods("GET")
	authRouter.HandleFunc("/posts/{id}", h.UpdatePost).Methods("PATCH")
	authRouter.HandleFunc("/posts/{id}", h.DeletePost).Methods("DELETE")

	return r
}
