package services

import (
	"fmt"
	"strings"
)

// GetExtensionFromContentType maps an image MIME type to a file extension.
func GetExtensionFromContentType(contentType string) (string, error) {
	contentType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	case "image/svg+xml":
		return ".svg", nil
	}
	return "", fmt.Errorf("unsupported image content type: '%s'", contentType)
}
