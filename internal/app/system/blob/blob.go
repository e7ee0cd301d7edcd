// Package blob opens the configured waffle storage backend and resolves
// download URLs for stored objects.
//
// Three backends are available:
//   - local: a directory served by this process under a URL prefix
//   - gcs:   a Google Cloud Storage bucket with token download URLs
//   - s3:    an S3 bucket behind a public base URL
package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// downloadTokenKey is the object metadata key holding the download token.
const downloadTokenKey = "firebaseStorageDownloadTokens"

// presignExpiry is used when a backend has no public URL for an object.
const presignExpiry = 7 * 24 * time.Hour

// Config selects and configures a backend.
type Config struct {
	Type string // local | gcs | s3

	LocalPath string
	LocalURL  string

	GCSBucket      string
	GCSCredentials string // service account JSON path; blank uses ADC

	S3Region    string
	S3Bucket    string
	S3Prefix    string
	S3PublicURL string
}

// Files is a storage.Store plus the download URL scheme of its backend.
type Files struct {
	storage.Store

	// tokenBucket is set for GCS: objects get a download token and URLs
	// point at the token endpoint for that bucket.
	tokenBucket string
}

// Wrap serves URLs straight from s.URL. Tests wrap storage.NewMemory.
func Wrap(s storage.Store) *Files {
	return &Files{Store: s}
}

// Open builds the configured backend.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Files, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "local":
		log.Info("blob storage: local", zap.String("path", cfg.LocalPath), zap.String("url", cfg.LocalURL))
		s, err := storage.NewLocal(storage.LocalConfig{BasePath: cfg.LocalPath, BaseURL: cfg.LocalURL})
		if err != nil {
			return nil, err
		}
		return Wrap(s), nil
	case "gcs":
		log.Info("blob storage: gcs", zap.String("bucket", cfg.GCSBucket))
		s, err := storage.NewGCS(ctx, storage.GCSConfig{Bucket: cfg.GCSBucket, CredentialsFile: cfg.GCSCredentials})
		if err != nil {
			return nil, err
		}
		return &Files{Store: s, tokenBucket: cfg.GCSBucket}, nil
	case "s3":
		log.Info("blob storage: s3", zap.String("bucket", cfg.S3Bucket), zap.String("region", cfg.S3Region))
		s, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:  cfg.S3Bucket,
			Region:  cfg.S3Region,
			Prefix:  cfg.S3Prefix,
			BaseURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return Wrap(s), nil
	default:
		return nil, fmt.Errorf("blob: unknown storage type %q", cfg.Type)
	}
}

// PutOptions returns the options for storing an object of contentType.
// Token backends get a fresh download token in the object metadata.
func (f *Files) PutOptions(contentType string) *storage.PutOptions {
	opts := &storage.PutOptions{ContentType: contentType}
	if f.tokenBucket != "" {
		opts.Metadata = map[string]string{downloadTokenKey: uuid.NewString()}
	}
	return opts
}

// DownloadURL returns a URL that reads p.
func (f *Files) DownloadURL(ctx context.Context, p string) (string, error) {
	p = storage.NormalizePath(p)
	if err := storage.ValidatePath(p); err != nil {
		return "", err
	}

	if f.tokenBucket != "" {
		info, err := f.Head(ctx, p)
		if err != nil {
			return "", err
		}
		return tokenURL(f.tokenBucket, p, info.Metadata[downloadTokenKey]), nil
	}

	if u := f.URL(p); u != "" {
		// URL joins the raw path; escape each segment so names with
		// spaces or '#' survive.
		if base, ok := strings.CutSuffix(u, p); ok {
			return base + escapeSegments(p), nil
		}
		return u, nil
	}
	return f.PresignedURL(ctx, p, &storage.PresignOptions{Expires: presignExpiry})
}

// Close releases the backend client when it holds one.
func (f *Files) Close() error {
	if c, ok := f.Store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func tokenURL(bucket, p, token string) string {
	u := fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media",
		bucket, url.PathEscape(p))
	if token != "" {
		u += "&token=" + url.QueryEscape(token)
	}
	return u
}

func escapeSegments(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
