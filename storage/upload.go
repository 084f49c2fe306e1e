package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"portfolio/common"
)

var ErrTooLarge = errors.New("file too large")

// Uploader turns base64 image payloads into stored files.
type Uploader struct {
	storage  Storage
	maxBytes int64
	maxWidth int
}

func NewUploader(storage Storage, maxBytes int64, maxWidth int) *Uploader {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Uploader{storage: storage, maxBytes: maxBytes, maxWidth: maxWidth}
}

// Upload stores the image in base64Data (raw base64 or a data URI) under a
// fresh UUID name and returns the reference to put in image fields.
func (u *Uploader) Upload(ctx context.Context, base64Data, filename string) (string, error) {
	data, err := DecodeBase64(base64Data, u.maxBytes)
	switch {
	case errors.Is(err, ErrTooLarge):
		return "", common.ValidationError(common.FieldError{
			Field:   "base64Data",
			Message: "file too large: maximum size is " + formatSize(u.maxBytes),
		})
	case err != nil:
		return "", common.ValidationError(common.FieldError{Field: "base64Data", Message: err.Error()})
	}

	img, err := ProcessImage(data, u.maxWidth)
	if err != nil {
		return "", common.ValidationError(common.FieldError{Field: "base64Data", Message: "file must be a JPEG, PNG, GIF or WebP image"})
	}

	name := uuid.NewString() + img.Ext
	if err := u.storage.Save(ctx, name, bytes.NewReader(img.Data), img.MimeType); err != nil {
		return "", common.Internal("could not store file", fmt.Errorf("saving upload %s: %w", name, err))
	}

	slog.Info("stored upload", "name", name, "original", filename, "mime", img.MimeType, "bytes", len(img.Data))
	return u.storage.URL(name), nil
}

// Release deletes stored files that are no longer referenced. refs that
// were not produced by this storage, such as external URLs, are skipped.
// Failures are logged and otherwise ignored.
func (u *Uploader) Release(ctx context.Context, refs []string) {
	base := u.storage.URL("")
	for _, ref := range refs {
		name, ok := strings.CutPrefix(ref, base)
		if !ok || name == "" || strings.Contains(name, "/") {
			continue
		}
		if err := u.storage.Delete(ctx, name); err != nil {
			slog.Warn("deleting upload failed", "name", name, "error", err)
			continue
		}
		slog.Info("deleted upload", "name", name)
	}
}

// DecodeBase64 decodes raw base64 or a data URI payload, refusing anything
// that would decode to more than maxBytes.
func DecodeBase64(s string, maxBytes int64) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, errors.New("malformed data URI")
		}
		s = payload
	}
	if s == "" {
		return nil, errors.New("file is empty")
	}

	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)

	if int64(base64.StdEncoding.DecodedLen(len(s))) > maxBytes+2 {
		return nil, ErrTooLarge
	}

	enc := base64.StdEncoding
	if !strings.HasSuffix(s, "=") && len(s)%4 != 0 {
		enc = base64.RawStdEncoding
	}
	data, err := enc.DecodeString(s)
	if err != nil {
		return nil, errors.New("file is not valid base64")
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func formatSize(n int64) string {
	if n >= 1<<20 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
