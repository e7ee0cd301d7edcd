package uploads_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/services/uploads"
	"github.com/dalemusser/mentorhub/internal/app/system/apperr"
	"github.com/dalemusser/mentorhub/internal/app/system/blob"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

// failingStore rejects every write.
type failingStore struct {
	storage.Store
	err error
}

func (f failingStore) Put(context.Context, string, io.Reader, *storage.PutOptions) error {
	return f.err
}

func newFiles() *blob.Files {
	return blob.Wrap(storage.NewMemory(storage.MemoryConfig{BaseURL: "https://files.test"}))
}

func stored(t *testing.T, f *blob.Files) []string {
	t.Helper()
	res, err := f.List(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var paths []string
	for _, o := range res.Objects {
		paths = append(paths, o.Path)
	}
	return paths
}

func pdf(name string, body string) *uploads.File {
	return &uploads.File{Name: name, ContentType: "application/pdf", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestUpload_RejectsBeforeAnyIO(t *testing.T) {
	tests := []struct {
		name string
		file *uploads.File
		msg  string
	}{
		{"nil file", nil, uploads.MsgNoFile},
		{"image", &uploads.File{Name: "a.png", ContentType: "image/png", Size: 10, Body: strings.NewReader("x")}, uploads.MsgBadType},
		{"text", &uploads.File{Name: "a.txt", ContentType: "text/plain", Size: 10, Body: strings.NewReader("x")}, uploads.MsgBadType},
		{"too large", &uploads.File{Name: "a.pdf", ContentType: "application/pdf", Size: uploads.MaxSize + 1, Body: strings.NewReader("x")}, uploads.MsgTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFiles()
			svc := uploads.New(b, zap.NewNop())
			_, err := svc.Upload(context.Background(), tt.file, "u1", "docs")
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := apperr.MessageOf(err, ""); got != tt.msg {
				t.Errorf("message = %q, want %q", got, tt.msg)
			}
			if got := stored(t, b); len(got) != 0 {
				t.Errorf("stored = %v, want nothing", got)
			}
		})
	}
}

func TestUpload_AcceptsWordTypes(t *testing.T) {
	for _, ct := range []string{
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/pdf; charset=binary",
	} {
		if err := uploads.Validate(&uploads.File{Name: "cv", ContentType: ct, Size: 1, Body: strings.NewReader("x")}); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", ct, err)
		}
	}
}

func TestUpload_UnderstatedSizeIsCaught(t *testing.T) {
	b := newFiles()
	svc := uploads.New(b, zap.NewNop())
	f := &uploads.File{Name: "big.pdf", ContentType: "application/pdf", Size: 10, Body: strings.NewReader(strings.Repeat("x", uploads.MaxSize+1))}

	_, err := svc.Upload(context.Background(), f, "u1", "docs")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := stored(t, b); len(got) != 0 {
		t.Errorf("stored = %v, want nothing", got)
	}
}

func TestUpload_PathAndURL(t *testing.T) {
	b := newFiles()
	svc := uploads.New(b, zap.NewNop())
	svc.SetClock(func() time.Time { return time.UnixMilli(1730000000000) })

	url, err := svc.UploadCV(context.Background(), pdf("cv.pdf", "%PDF"), "mentor-1")
	if err != nil {
		t.Fatalf("UploadCV failed: %v", err)
	}
	want := "curriculums/mentor-1/1730000000000_cv.pdf"
	if got := stored(t, b); len(got) != 1 || got[0] != want {
		t.Errorf("stored = %v, want [%s]", got, want)
	}
	info, err := b.Head(context.Background(), want)
	if err != nil || info.ContentType != "application/pdf" {
		t.Errorf("Head = %+v, %v", info, err)
	}
	if url != "https://files.test/"+want {
		t.Errorf("url = %q", url)
	}
}

func TestUpload_BackendFailureIsUploadError(t *testing.T) {
	b := blob.Wrap(failingStore{Store: storage.NewMemory(storage.MemoryConfig{}), err: errors.New("503")})
	svc := uploads.New(b, zap.NewNop())

	_, err := svc.Upload(context.Background(), pdf("cv.pdf", "%PDF"), "u1", "docs")
	if !apperr.IsKind(err, apperr.KindUpload) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if apperr.MessageOf(err, "") != uploads.MsgUploadError {
		t.Errorf("message = %q", apperr.MessageOf(err, ""))
	}
}

func TestObjectPath_StripsDirectories(t *testing.T) {
	at := time.UnixMilli(5)
	if got := uploads.ObjectPath("docs", "u", at, "../../etc/passwd"); got != "docs/u/5_passwd" {
		t.Errorf("ObjectPath = %q", got)
	}
	if got := uploads.ObjectPath("/docs/", "u", at, `C:\files\cv.pdf`); got != "docs/u/5_cv.pdf" {
		t.Errorf("ObjectPath = %q", got)
	}
}
