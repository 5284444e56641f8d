package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/arkhipov/post-service/internal/apperr"
	"github.com/arkhipov/post-service/internal/middleware"
	"github.com/arkhipov/post-service/internal/service"
	"github.com/gorilla/mux"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.BadRequest("Invalid request body"))
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		apperr.Write(w, apperr.BadRequest("Name, email and password are required"))
		return
	}

	token, err := h.svc.Register(req.Name, req.Email, req.Password)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Registered successfully",
		"token":   token,
	})
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.BadRequest("Invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		apperr.Write(w, apperr.BadRequest("Email and password are required"))
		return
	}

	token, user, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// GetMe returns the authenticated user's own record
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apperr.Write(w, apperr.Unauthorized("Token not provided"))
		return
	}

	user, err := h.svc.GetMe(identity.UserID)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":         user.ID,
		"email":      user.Email,
		"created_at": user.CreatedAt,
		"name":       user.Name,
	})
}

// UpdateMe applies a partial update to the authenticated user
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apperr.Write(w, apperr.Unauthorized("Token not provided"))
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.BadRequest("Invalid request body"))
		return
	}

	if err := h.svc.UpdateMe(identity.UserID, req.Name, req.Email, req.Password); err != nil {
		apperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreatePost creates a post owned by the authenticated user
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apperr.Write(w, apperr.Unauthorized("Token not provided"))
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.BadRequest("Invalid request body"))
		return
	}
	if req.Title == "" || req.Content == "" {
		apperr.Write(w, apperr.BadRequest("Title and content are required"))
		return
	}

	post, authorName, err := h.svc.CreatePost(identity.UserID, req.Title, req.Content)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Post created successfully",
		"post": map[string]any{
			"userId":  post.UserID,
			"name":    authorName,
			"title":   post.Title,
			"content": post.Content,
		},
	})
}

// ListPosts returns the authenticated user's posts, newest first
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apperr.Write(w, apperr.Unauthorized("Token not provided"))
		return
	}

	posts, err := h.svc.ListPosts(identity.UserID)
	if err != nil {
		apperr.Write(w, err)
		return
	}

	list := make([]map[string]any, 0, len(posts))
	for _, post := range posts {
		list = append(list, map[string]any{
			"id":         post.ID,
			"title":      post.Title,
			"content":    post.Content,
			"created_at": post.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"posts": list})
}

// UpdatePost applies a partial update to a post the authenticated user owns
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apperr.Write(w, apperr.Unauthorized("Token not provided"))
		return
	}

	postID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		apperr.Write(w, apperr.NotFound("Post not found"))
		return
	}

	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.BadRequest("Invalid request body"))
		return
	}

	if err := h.svc.UpdatePost(identity.UserID, postID, req.Title, req.Content); err != nil {
		apperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeletePost removes a post the authenticated user owns
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apperr.Write(w, apperr.Unauthorized("Token not provided"))
		return
	}

	postID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		apperr.Write(w, apperr.NotFound("Post not found"))
		return
	}

	if err := h.svc.DeletePost(identity.UserID, postID); err != nil {
		apperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health reports process liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
