// internal/app/system/filestore/filestore.go

// Package filestore stores uploaded room files in a storage.Store (the
// waffle local backend or an S3-compatible bucket through MinIO) and hands
// back the public URL of each object.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
)

// ErrEmptyFile is returned when an upload carries no bytes.
var ErrEmptyFile = errors.New("empty file")

// UploadInfo describes a stored upload.
type UploadInfo struct {
	Key         string
	URL         string
	FileName    string
	Size        int64
	ContentType string
}

// Upload stores r under rooms/<roomID>/YYYY/MM/<id>-<filename>.
func Upload(ctx context.Context, store storage.Store, roomID, filename string, r io.Reader, size int64, contentType string) (UploadInfo, error) {
	if size == 0 {
		return UploadInfo{}, ErrEmptyFile
	}
	now := time.Now().UTC()
	key := path.Join("rooms", roomID,
		fmt.Sprintf("%04d/%02d", now.Year(), now.Month()),
		fmt.Sprintf("%s-%s", uuid.New().String()[:8], SanitizeFilename(filename)))

	if err := store.Put(ctx, key, r, &storage.PutOptions{ContentType: contentType}); err != nil {
		return UploadInfo{}, fmt.Errorf("failed to upload file: %w", err)
	}
	return UploadInfo{
		Key:         key,
		URL:         store.URL(key),
		FileName:    filename,
		Size:        size,
		ContentType: contentType,
	}, nil
}

// SanitizeFilename keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with '_'. Names are capped at 100 bytes, keeping a short
// extension.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if filename == "." || filename == "/" {
		filename = ""
	}

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}
	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
