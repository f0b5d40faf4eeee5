package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Storage persists uploaded image files under a flat name.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, contentType string) error
	// Delete removes name. A missing file is not an error.
	Delete(ctx context.Context, name string) error
	// URL returns where browsers can fetch the stored image path.
	URL(imagePath string) string
	Name() string
}

// LocalStorage keeps files in a directory served under /static/uploads.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates basePath if needed.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (l *LocalStorage) Dir() string {
	return l.basePath
}

func (l *LocalStorage) Save(_ context.Context, name string, r io.Reader, _ string) error {
	fullPath, err := l.fullPath(name)
	if err != nil {
		return err
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(fullPath)
		return fmt.Errorf("write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

func (l *LocalStorage) Delete(_ context.Context, name string) error {
	fullPath, err := l.fullPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) URL(imagePath string) string {
	return l.baseURL + "/" + strings.TrimPrefix(imagePath, "/")
}

func (l *LocalStorage) Name() string {
	return "local"
}

// fullPath keeps every name inside basePath.
func (l *LocalStorage) fullPath(name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(l.basePath, base), nil
}
