package services

import (
	"context"
	"io"
	"sync"

	"github.com/Dosada05/hackathon-portal/storage"
)

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: make(map[string][]byte)}
}

func (u *memoryUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	u.objects[key] = data
	u.mu.Unlock()
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	delete(u.objects, key)
	u.mu.Unlock()
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}
