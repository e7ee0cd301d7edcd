// internal/app/features/uploads/handler.go
package uploads

import (
	"context"
	"errors"
	"net/http"

	uploadsvc "github.com/dalemusser/mentorhub/internal/app/services/uploads"
	"github.com/dalemusser/mentorhub/internal/app/system/apperr"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/respond"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MsgBadFolder is returned for folder names outside [a-z0-9_-].
const MsgBadFolder = "Carpeta inválida"

// memLimit is how much of a multipart body is buffered before spilling to
// temporary files.
const memLimit = 1 << 20

type Handler struct {
	Uploads *uploadsvc.Service
	Log     *zap.Logger
}

func NewHandler(up *uploadsvc.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Uploads: up,
		Log:     logger,
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// HandleUpload handles POST /uploads/{folder}. The multipart file field is
// "file"; the object is stored under the caller's uid.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folder")
	if !validFolder(folder) {
		respond.Message(w, http.StatusBadRequest, MsgBadFolder)
		return
	}
	u, _ := auth.CurrentUser(r)

	r.Body = http.MaxBytesReader(w, r.Body, 2*uploadsvc.MaxSize)
	if err := r.ParseMultipartForm(memLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, r, h.Log, apperr.Validation(uploadsvc.MsgTooLarge))
			return
		}
		respond.Error(w, r, h.Log, apperr.Validation(uploadsvc.MsgNoFile))
		return
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Validation(uploadsvc.MsgNoFile))
		return
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	url, err := h.Uploads.Upload(ctx, &uploadsvc.File{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Body:        f,
	}, u.ID, folder)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, uploadResponse{URL: url})
}

func validFolder(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
