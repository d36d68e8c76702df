package storage

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalUploader(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "http://localhost:8080/uploads")
	if err != nil {
		t.Fatal(err)
	}

	key := "hackathons/spring/logo-1.png"
	res, err := u.Upload(ctx, key, "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Location != "http://localhost:8080/uploads/hackathons/spring/logo-1.png" {
		t.Errorf("unexpected location %s", res.Location)
	}
	data, err := os.ReadFile(filepath.Join(dir, "hackathons", "spring", "logo-1.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("unexpected content %q", data)
	}

	if err := u.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if err := u.Delete(ctx, key); err != nil {
		t.Errorf("deleting a missing object should succeed, got %v", err)
	}

	for _, bad := range []string{"", "../escape.png", "a/../../b.png"} {
		if _, err := u.Upload(ctx, bad, "image/png", strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("key %q: expected ErrInvalidKey, got %v", bad, err)
		}
	}
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		base, key, want string
	}{
		{"https://cdn.example.com", "a/b.png", "https://cdn.example.com/a/b.png"},
		{"https://cdn.example.com/", "/a/b.png", "https://cdn.example.com/a/b.png"},
		{"https://cdn.example.com/assets", "logo.png", "https://cdn.example.com/assets/logo.png"},
		{"https://cdn.example.com", "", ""},
	}
	for _, tt := range tests {
		base, err := url.Parse(tt.base)
		if err != nil {
			t.Fatal(err)
		}
		if got := publicURL(base, tt.key); got != tt.want {
			t.Errorf("publicURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}

func TestLogoKey(t *testing.T) {
	a := LogoKey("spring", ".png")
	b := LogoKey("spring", ".png")
	if a == b {
		t.Error("expected a fresh key per upload")
	}
	if !strings.HasPrefix(a, "hackathons/spring/logo-") || !strings.HasSuffix(a, ".png") {
		t.Errorf("unexpected key %s", a)
	}
}
