package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// UploadResult describes a stored hackathon logo. Location is empty when the
// backend has no direct URL for the object; callers then use GetPublicURL.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores hackathon logos. The local directory and the
// S3-compatible bucket both implement it; keys are slash-separated paths
// produced by LogoKey.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// Delete removes a replaced logo. A missing key is not an error.
	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// LogoKey returns a fresh object key under the hackathon's prefix. Every
// upload gets its own key so browsers never show a cached previous logo.
func LogoKey(event, ext string) string {
	return fmt.Sprintf("hackathons/%s/logo-%s%s", event, uuid.NewString(), ext)
}
