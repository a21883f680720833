// Package blob stores document and photo evidence and hands back public URLs.
// Upload failures never abort the visit operation that carried the file; the
// Uploader substitutes Placeholder instead.
package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Placeholder is stored in place of a URL when an upload fails.
const Placeholder = "Upload Failed"

// ErrNotDataURL is returned by DecodeDataURL for input without a base64 data URL header.
var ErrNotDataURL = errors.New("not a base64 data URL")

// Store persists bytes under key and returns the public URL.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// DecodeDataURL splits "data:<type>;base64,<payload>" into content type and bytes.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	contentType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("blob.DecodeDataURL: %w", err)
	}
	return contentType, data, nil
}

// Uploader turns data URLs submitted by clients into stored objects.
type Uploader struct {
	store  Store
	logger *slog.Logger
}

// NewUploader returns an Uploader writing to store. A nil store makes every
// upload degrade to Placeholder, which suits deployments without blob storage.
func NewUploader(store Store, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{store: store, logger: logger}
}

// Upload stores one file under folder and returns its URL. Input that is
// already an http(s) URL is returned unchanged; empty input returns "".
func (u *Uploader) Upload(ctx context.Context, folder, input string) string {
	if input == "" {
		return ""
	}
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return input
	}

	contentType, data, err := DecodeDataURL(input)
	if err != nil {
		u.logger.WarnContext(ctx, "blob upload skipped: unreadable payload", "folder", folder, "error", err)
		return Placeholder
	}
	if u.store == nil {
		u.logger.WarnContext(ctx, "blob upload skipped: no store configured", "folder", folder)
		return Placeholder
	}

	key := fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.NewString(), extension(contentType))
	url, err := u.store.Put(ctx, key, contentType, data)
	if err != nil {
		u.logger.WarnContext(ctx, "blob upload failed", "key", key, "error", err)
		return Placeholder
	}
	return url
}

// UploadAll uploads every input, keeping order. Empty inputs are dropped.
func (u *Uploader) UploadAll(ctx context.Context, folder string, inputs []string) []string {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if url := u.Upload(ctx, folder, in); url != "" {
			out = append(out, url)
		}
	}
	return out
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	}
	return ""
}
