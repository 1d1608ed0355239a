package post

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/postboard/service/internal/middleware"
	"github.com/postboard/service/internal/response"
)

// Handler holds HTTP handlers for post endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new post Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createPostRequest struct {
	Content   string  `json:"content"   example:"Check out this amazing feature!"`
	ImagePath *string `json:"imagePath" example:"1702986000000-a1b2c3d.jpg"`
}

// Create godoc
//
//	@Summary		Create post
//	@Description	Creates a post for the current user. imagePath must come from POST /upload or POST /upload/presign.
//	@Tags			posts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		createPostRequest	true	"Post"
//	@Success		201		{object}	response.Envelope{data=Post}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/api/v1/posts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	p, err := h.svc.Create(r.Context(), userID, req.Content, req.ImagePath)
	if err != nil {
		if h.svc.IsValidation(err) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, p)
}

// List godoc
//
//	@Summary		List posts
//	@Tags			posts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]Post}
//	@Failure		401	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/api/v1/posts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.List(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	if posts == nil {
		posts = []Post{}
	}
	response.OK(w, posts)
}

// Get godoc
//
//	@Summary		Get post
//	@Tags			posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{object}	response.Envelope{data=Post}
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/api/v1/posts/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "post not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.OK(w, p)
}
