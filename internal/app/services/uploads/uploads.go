// Package uploads validates user files and writes them to blob storage.
package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/apperr"
	"github.com/dalemusser/mentorhub/internal/app/system/blob"
	"go.uber.org/zap"
)

// MaxSize is the largest accepted upload in bytes.
const MaxSize = 5 * 1024 * 1024

// FolderCurriculums holds mentor CVs.
const FolderCurriculums = "curriculums"

// AllowedTypes lists the accepted MIME types.
var AllowedTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// User-facing messages.
const (
	MsgNoFile      = "No se seleccionó ningún archivo"
	MsgBadType     = "Solo se permiten archivos PDF o Word"
	MsgTooLarge    = "El archivo no debe superar los 5MB"
	MsgUploadError = "Error al subir el archivo. Intenta nuevamente."
)

// File is an upload as declared by the client.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service uploads files to blob storage.
type Service struct {
	files *blob.Files
	log    *zap.Logger
	now    func() time.Time
}

// New creates a Service writing to files.
func New(files *blob.Files, log *zap.Logger) *Service {
	return &Service{files: files, log: log, now: time.Now}
}

// SetClock replaces the time source used for object name prefixes.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Validate checks f against the type allow-list and size cap. It never
// touches storage.
func Validate(f *File) error {
	if f == nil || f.Body == nil {
		return apperr.Validation(MsgNoFile)
	}
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if !AllowedTypes[ct] {
		return apperr.Validation(MsgBadType)
	}
	if f.Size > MaxSize {
		return apperr.Validation(MsgTooLarge)
	}
	return nil
}

// ObjectPath builds {folder}/{userID}/{unixMillis}_{name}.
func ObjectPath(folder, userID string, at time.Time, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = "archivo"
	}
	return fmt.Sprintf("%s/%s/%d_%s", strings.Trim(folder, "/"), userID, at.UnixMilli(), base)
}

// Upload validates f, stores it under folder and userID and returns a
// download URL.
func (s *Service) Upload(ctx context.Context, f *File, userID, folder string) (string, error) {
	if err := Validate(f); err != nil {
		return "", err
	}
	if strings.Trim(folder, "/") == "" || userID == "" {
		return "", apperr.Validation("Carpeta o usuario inválido")
	}

	// Read one byte past the cap so an understated Size cannot slip through.
	data, err := io.ReadAll(io.LimitReader(f.Body, MaxSize+1))
	if err != nil {
		return "", apperr.Upload(MsgUploadError, err)
	}
	if len(data) > MaxSize {
		return "", apperr.Validation(MsgTooLarge)
	}

	p := ObjectPath(folder, userID, s.now(), f.Name)
	if err := s.files.Put(ctx, p, bytes.NewReader(data), s.files.PutOptions(f.ContentType)); err != nil {
		s.log.Error("upload failed", zap.String("path", p), zap.Error(err))
		return "", apperr.Upload(MsgUploadError, err)
	}
	url, err := s.files.DownloadURL(ctx, p)
	if err != nil {
		s.log.Error("download url failed", zap.String("path", p), zap.Error(err))
		return "", apperr.Upload(MsgUploadError, err)
	}

	s.log.Info("file uploaded", zap.String("path", p), zap.Int("bytes", len(data)))
	return url, nil
}

// UploadCV stores a mentor curriculum under curriculums/.
func (s *Service) UploadCV(ctx context.Context, f *File, userID string) (string, error) {
	return s.Upload(ctx, f, userID, FolderCurriculums)
}
