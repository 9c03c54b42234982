package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	if _, err := s.Download(ctx, "cache/vectors.bin"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Download(missing) error = %v, want ErrObjectNotFound", err)
	}

	payload := []byte("vectors")
	if err := s.Upload(ctx, "cache/vectors.bin", bytes.NewReader(payload), int64(len(payload)), "application/octet-stream"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	ok, err := s.Exists(ctx, "cache/vectors.bin")
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v", ok, err)
	}

	rc, err := s.Download(ctx, "cache/vectors.bin")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, payload) {
		t.Errorf("Download() = %q, want %q", got, payload)
	}

	if err := s.Delete(ctx, "cache/vectors.bin"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := s.Exists(ctx, "cache/vectors.bin"); ok {
		t.Error("object still exists after Delete")
	}
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"../outside", "/etc/passwd", ""} {
		if _, err := s.Download(context.Background(), key); err == nil || errors.Is(err, ErrObjectNotFound) {
			t.Errorf("Download(%q) error = %v, want invalid key", key, err)
		}
	}
}

func TestDetectStorageType(t *testing.T) {
	tests := []struct {
		endpoint string
		want     StorageType
	}{
		{"https://abc.r2.cloudflarestorage.com", StorageTypeR2},
		{"s3.us-west-2.amazonaws.com", StorageTypeS3},
		{"", StorageTypeS3},
		{"localhost:9000", StorageTypeS3Compatible},
	}
	for _, tt := range tests {
		if got := detectStorageType(tt.endpoint); got != tt.want {
			t.Errorf("detectStorageType(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	if got := normalizeEndpoint("https://minio.local:9000/bucket/"); got != "minio.local:9000" {
		t.Errorf("normalizeEndpoint() = %q", got)
	}
}

func TestNewBackend(t *testing.T) {
	if _, err := NewBackend(BackendS3, "", nil); err == nil {
		t.Error("s3 backend without remote storage must fail")
	}
	if _, err := NewBackend("ftp", "", nil); err == nil {
		t.Error("unknown backend must fail")
	}
	s, err := NewBackend(BackendLocal, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewBackend(local) error = %v", err)
	}
	if _, ok := s.(*LocalStorage); !ok {
		t.Errorf("NewBackend(local) = %T", s)
	}
}
