// pkg/filestorage/local_filestorage.go

package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidPath = errors.New("недопустимый путь к файлу")

// FileStorageInterface определяет контракт для сервиса хранения файлов.
// Возвращаемый путь относительный, его и нужно хранить в БД.
type FileStorageInterface interface {
	Save(ctx context.Context, file io.Reader, originalFileName string, prefix string) (filePath string, err error)
	Open(ctx context.Context, filePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, filePath string) error
}

type LocalFileStorage struct {
	basePath string
	now      func() time.Time
}

func NewLocalFileStorage(basePath string) (FileStorageInterface, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}
	return &LocalFileStorage{basePath: abs, now: time.Now}, nil
}

func (s *LocalFileStorage) Save(_ context.Context, file io.Reader, originalFileName string, prefix string) (string, error) {
	uniqueFileName := uniqueName(s.now(), originalFileName)

	relDir := filepath.Join(prefix, s.now().Format("2006/01"))
	fullDirPath := filepath.Join(s.basePath, relDir)
	if err := os.MkdirAll(fullDirPath, 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(filepath.Join(fullDirPath, uniqueFileName))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		return "", err
	}

	return filepath.ToSlash(filepath.Join(relDir, uniqueFileName)), nil
}

func (s *LocalFileStorage) Open(_ context.Context, filePath string) (io.ReadCloser, error) {
	full, err := s.resolve(filePath)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (s *LocalFileStorage) Delete(_ context.Context, filePath string) error {
	full, err := s.resolve(filePath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resolve не выпускает относительный путь за пределы basePath.
func (s *LocalFileStorage) resolve(filePath string) (string, error) {
	full := filepath.Join(s.basePath, filepath.FromSlash(filePath))
	if full != s.basePath && !strings.HasPrefix(full, s.basePath+string(os.PathSeparator)) {
		return "", ErrInvalidPath
	}
	return full, nil
}

func uniqueName(now time.Time, originalFileName string) string {
	ext := strings.ToLower(filepath.Ext(originalFileName))
	return fmt.Sprintf("%s-%s%s", now.Format("2006-01-02"), uuid.New().String(), ext)
}
