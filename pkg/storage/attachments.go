package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	appErrors "github.com/sgms/grievance-api/pkg/errors"
)

// AttachmentStore persists grievance attachments under a base directory.
// Files are renamed to opaque identifiers on save; callers keep the returned
// relative path as the only reference.
type AttachmentStore struct {
	baseDir     string
	maxSize     int64
	allowedExts map[string]struct{}
}

// NewAttachmentStore ensures the base directory exists and returns a handle.
func NewAttachmentStore(baseDir string, maxSize int64, allowedExts []string) (*AttachmentStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	exts := make(map[string]struct{}, len(allowedExts))
	for _, ext := range allowedExts {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &AttachmentStore{baseDir: baseDir, maxSize: maxSize, allowedExts: exts}, nil
}

// Save validates and writes an uploaded file, returning its relative path.
// Rejections are validation errors so the enclosing request fails whole.
func (s *AttachmentStore) Save(originalName string, size int64, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if len(s.allowedExts) > 0 {
		if _, ok := s.allowedExts[ext]; !ok {
			return "", appErrors.Clone(appErrors.ErrValidation, "only images, PDFs, and documents are allowed")
		}
	}
	if s.maxSize > 0 && size > s.maxSize {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("attachment exceeds %d bytes", s.maxSize))
	}

	relPath := fmt.Sprintf("grievance-%s%s", uuid.NewString(), ext)
	file, err := os.Create(s.resolve(relPath))
	if err != nil {
		return "", fmt.Errorf("create attachment file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	limit := io.Reader(r)
	if s.maxSize > 0 {
		limit = io.LimitReader(r, s.maxSize+1)
	}
	written, err := io.Copy(file, limit)
	if err != nil {
		_ = os.Remove(s.resolve(relPath))
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if s.maxSize > 0 && written > s.maxSize {
		_ = os.Remove(s.resolve(relPath))
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("attachment exceeds %d bytes", s.maxSize))
	}
	return relPath, nil
}

// Open returns a read-only handle for a stored attachment.
func (s *AttachmentStore) Open(relPath string) (*os.File, error) {
	file, err := os.Open(s.resolve(relPath))
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	return file, nil
}

// Delete removes a stored attachment if present.
func (s *AttachmentStore) Delete(relPath string) error {
	if relPath == "" {
		return nil
	}
	if err := os.Remove(s.resolve(relPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}

// Path exposes the absolute path for a stored attachment.
func (s *AttachmentStore) Path(relPath string) string {
	return s.resolve(relPath)
}

func (s *AttachmentStore) resolve(relPath string) string {
	if filepath.IsAbs(relPath) {
		return relPath
	}
	return filepath.Join(s.baseDir, relPath)
}
