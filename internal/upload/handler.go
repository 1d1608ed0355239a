package upload

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/postboard/service/internal/middleware"
	"github.com/postboard/service/internal/naming"
	"github.com/postboard/service/internal/response"
	"github.com/postboard/service/internal/storage"
)

const (
	imageField = "image"

	// multipartSlack covers boundaries, part headers and small text fields
	// around the image part.
	multipartSlack = 1 << 20

	maxPresignBody = 64 << 10
)

// Handler holds HTTP handlers for upload endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new upload Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type uploadData struct {
	ImagePath *string `json:"imagePath" example:"1702986000000-a1b2c3d.JPG"`
}

type presignRequest struct {
	FileExtension string `json:"fileExtension" example:"png"`
	ContentType   string `json:"contentType"   example:"image/png"`
	Size          *int64 `json:"size,omitempty" example:"2048"`
}

// Upload godoc
//
//	@Summary		Upload a post image
//	@Description	Stores the multipart field "image" on local disk. Without the field the call succeeds with a null imagePath.
//	@Tags			uploads
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			image	formData	file	false	"jpeg, png, gif or webp, at most 5 MiB"
//	@Success		201		{object}	uploadData
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := naming.MaxImageSize + multipartSlack
	if r.ContentLength > limit {
		response.PayloadTooLarge(w, naming.ErrPayloadTooLarge.Error())
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mr, err := r.MultipartReader()
	if err != nil {
		response.BadRequest(w, "expected a multipart/form-data body")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				response.PayloadTooLarge(w, naming.ErrPayloadTooLarge.Error())
				return
			}
			response.BadRequest(w, "malformed multipart body")
			return
		}
		if part.FormName() != imageField {
			continue
		}

		id, err := h.svc.StoreImage(r.Context(), part.FileName(), part.Header.Get("Content-Type"), part)
		_ = part.Close()
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		slog.InfoContext(r.Context(), "image stored",
			"image_path", id,
			"user_id", middleware.UserID(r.Context()),
			"username", middleware.Username(r.Context()),
		)
		response.JSON(w, http.StatusCreated, uploadData{ImagePath: &id})
		return
	}

	response.JSON(w, http.StatusCreated, uploadData{ImagePath: nil})
}

// Presign godoc
//
//	@Summary		Issue a presigned upload URL
//	@Description	Validates the declared file and returns a URL the client PUTs the image to directly. The URL expires after one hour.
//	@Tags			uploads
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		presignRequest	true	"Declared file"
//	@Success		201		{object}	Grant
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/upload/presign [post]
func (h *Handler) Presign(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPresignBody))
	dec.DisallowUnknownFields()

	var req presignRequest
	if err := dec.Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	size := int64(-1)
	if req.Size != nil {
		if *req.Size < 0 {
			response.BadRequest(w, "size must not be negative")
			return
		}
		size = *req.Size
	}

	grant, err := h.svc.IssueGrant(r.Context(), req.FileExtension, req.ContentType, size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "presigned upload issued",
		"image_path", grant.ImagePath,
		"user_id", middleware.UserID(r.Context()),
		"username", middleware.Username(r.Context()),
	)
	response.JSON(w, http.StatusCreated, grant)
}

// Serve streams a stored image for GET and HEAD /uploads/{name}.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	f, err := h.svc.OpenImage(name)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "open stored image", "name", name, "error", err)
		response.InternalError(w)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		slog.ErrorContext(r.Context(), "stat stored image", "name", name, "error", err)
		response.InternalError(w)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// writeError maps upload failures onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, naming.ErrPayloadTooLarge):
		response.PayloadTooLarge(w, naming.ErrPayloadTooLarge.Error())
	case errors.Is(err, naming.ErrUnsupportedMediaType):
		response.BadRequest(w, naming.ErrUnsupportedMediaType.Error())
	case errors.Is(err, naming.ErrInvalidExtension):
		response.BadRequest(w, naming.ErrInvalidExtension.Error())
	case errors.Is(err, storage.ErrSigningFailure):
		slog.ErrorContext(r.Context(), "presign failed", "error", err)
		response.BadGateway(w, storage.ErrSigningFailure.Error())
	case errors.Is(err, storage.ErrWriteFailure):
		slog.ErrorContext(r.Context(), "upload write failed", "error", err)
		response.InternalError(w)
	case errors.Is(err, io.ErrUnexpectedEOF):
		response.BadRequest(w, "malformed multipart body")
	default:
		slog.ErrorContext(r.Context(), "upload failed", "error", err)
		response.InternalError(w)
	}
}
