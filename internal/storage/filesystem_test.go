package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreUploadAndURL(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	url, err := s.Upload(context.Background(), "prompts/p1/01-abc.png", []byte("png"), "image/png")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "http://localhost:8080/static/prompts/p1/01-abc.png" {
		t.Fatalf("url = %q", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "prompts", "p1", "01-abc.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "png" {
		t.Fatalf("stored bytes = %q", data)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), "http://localhost/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	for _, key := range []string{"", "   ", "../escape.png", "a/../../escape.png"} {
		if _, err := s.Upload(context.Background(), key, []byte("x"), "image/png"); err == nil {
			t.Fatalf("key %q must be rejected", key)
		}
	}
}

func TestSanitizeKeyNormalizes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/leading/slash.png", "leading/slash.png"},
		{"./dotted/key.png", "dotted/key.png"},
		{"back\\slash.png", "back/slash.png"},
		{"a/b/../c.png", "a/c.png"},
	}
	for _, tc := range tests {
		got, err := sanitizeKey(tc.in)
		if err != nil {
			t.Fatalf("sanitizeKey(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
