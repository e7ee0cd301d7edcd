package blob

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

func TestDownloadURL_EscapesSegments(t *testing.T) {
	f := Wrap(storage.NewMemory(storage.MemoryConfig{BaseURL: "/files"}))
	ctx := context.Background()
	p := "curriculums/u1/1700000000000_mi cv.pdf"

	if err := f.Put(ctx, p, strings.NewReader("%PDF"), f.PutOptions("application/pdf")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	u, err := f.DownloadURL(ctx, p)
	if err != nil {
		t.Fatalf("DownloadURL failed: %v", err)
	}
	if want := "/files/curriculums/u1/1700000000000_mi%20cv.pdf"; u != want {
		t.Errorf("DownloadURL = %q, want %q", u, want)
	}

	data, err := f.GetBytes(ctx, p)
	if err != nil || string(data) != "%PDF" {
		t.Errorf("stored content = %q, err %v", data, err)
	}
}

func TestDownloadURL_RejectsTraversal(t *testing.T) {
	f := Wrap(storage.NewMemory(storage.MemoryConfig{BaseURL: "/files"}))
	if _, err := f.DownloadURL(context.Background(), "../etc/passwd"); !errors.Is(err, storage.ErrInvalidPath) {
		t.Errorf("err = %v, want ErrInvalidPath", err)
	}
}

func TestDownloadURL_NoBaseURLNeedsPresign(t *testing.T) {
	f := Wrap(storage.NewMemory(storage.MemoryConfig{}))
	if _, err := f.DownloadURL(context.Background(), "docs/a.pdf"); !errors.Is(err, storage.ErrPresignNotSupported) {
		t.Errorf("err = %v, want ErrPresignNotSupported", err)
	}
}

func TestPutOptions_TokenOnlyForTokenBackends(t *testing.T) {
	plain := Wrap(storage.NewMemory(storage.MemoryConfig{}))
	if opts := plain.PutOptions("application/pdf"); opts.ContentType != "application/pdf" || len(opts.Metadata) != 0 {
		t.Errorf("plain options = %+v", opts)
	}

	tok := &Files{Store: storage.NewMemory(storage.MemoryConfig{}), tokenBucket: "mentorhub.appspot.com"}
	a, b := tok.PutOptions("application/pdf"), tok.PutOptions("application/pdf")
	if a.Metadata[downloadTokenKey] == "" || a.Metadata[downloadTokenKey] == b.Metadata[downloadTokenKey] {
		t.Errorf("tokens = %q, %q; want distinct non-empty", a.Metadata[downloadTokenKey], b.Metadata[downloadTokenKey])
	}
}

func TestDownloadURL_TokenBackend(t *testing.T) {
	f := &Files{Store: storage.NewMemory(storage.MemoryConfig{}), tokenBucket: "mentorhub.appspot.com"}
	ctx := context.Background()
	p := "curriculums/u1/1_cv.pdf"
	opts := f.PutOptions("application/pdf")
	if err := f.Put(ctx, p, strings.NewReader("%PDF"), opts); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	u, err := f.DownloadURL(ctx, p)
	if err != nil {
		t.Fatalf("DownloadURL failed: %v", err)
	}
	want := "https://firebasestorage.googleapis.com/v0/b/mentorhub.appspot.com/o/curriculums%2Fu1%2F1_cv.pdf?alt=media&token=" + opts.Metadata[downloadTokenKey]
	if u != want {
		t.Errorf("DownloadURL = %q, want %q", u, want)
	}

	if _, err := f.DownloadURL(ctx, "curriculums/u1/missing.pdf"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing object err = %v, want ErrNotFound", err)
	}
}

func TestOpen_Local(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(context.Background(), Config{Type: "local", LocalPath: dir, LocalURL: "/files"}, zap.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := f.Store.(*storage.Local); !ok {
		t.Errorf("backend = %T, want *storage.Local", f.Store)
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}

func TestOpen_UnknownType(t *testing.T) {
	if _, err := Open(context.Background(), Config{Type: "ftp"}, zap.NewNop()); err == nil {
		t.Error("expected error for unknown type")
	}
}
