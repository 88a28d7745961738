package utils

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "uploads"), "/uploads/")
	if err != nil {
		t.Fatal(err)
	}

	url, err := store.Put(context.Background(), "avatars/u1/pic.png", "image/png", strings.NewReader("data"), 4)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "/uploads/avatars/u1/pic.png" {
		t.Errorf("url = %s", url)
	}
	got, err := os.ReadFile(filepath.Join(dir, "uploads", "avatars", "u1", "pic.png"))
	if err != nil || string(got) != "data" {
		t.Errorf("file = %q, %v", got, err)
	}
}
