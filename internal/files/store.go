package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"andse-chat/internal/domain"
)

var (
	ErrEmptyFile      = errors.New("no file selected")
	ErrTypeNotAllowed = errors.New("file type not allowed")
)

// DiskStore guarda archivos subidos bajo un directorio por categoría, con
// nombres únicos para evitar colisiones y path traversal.
type DiskStore struct {
	baseDir string
}

func NewDiskStore(baseDir string) *DiskStore {
	return &DiskStore{baseDir: baseDir}
}

// Save valida la extensión contra la whitelist y persiste el contenido en
// <base>/<categoría>/<uuid>.<ext>. Devuelve la referencia para el composer.
func (s *DiskStore) Save(originalName string, content []byte) (domain.Attachment, error) {
	originalName = strings.TrimSpace(originalName)
	if originalName == "" || len(content) == 0 {
		return domain.Attachment{}, ErrEmptyFile
	}

	mediaType, allowed := domain.DetectMediaType(originalName)
	if !allowed {
		return domain.Attachment{}, ErrTypeNotAllowed
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	unique := uuid.New().String()
	unique = strings.ReplaceAll(unique, "-", "") + ext

	targetDir := filepath.Join(s.baseDir, string(mediaType))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return domain.Attachment{}, fmt.Errorf("create upload dir: %w", err)
	}

	fullPath := filepath.Join(targetDir, unique)
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return domain.Attachment{}, fmt.Errorf("write upload: %w", err)
	}

	return domain.Attachment{
		Filepath:  fullPath,
		Filename:  unique,
		MediaType: mediaType,
	}, nil
}
