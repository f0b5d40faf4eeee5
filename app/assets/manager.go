package assets

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// uploadPrefix is prepended to stored names to form the image path kept on
// product records.
const uploadPrefix = "uploads/"

// ErrRejected is returned for uploads whose extension is not allowed.
var ErrRejected = errors.New("file type not allowed")

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

// AllowedFile reports whether filename has an allowed image extension.
func AllowedFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return allowedExtensions[ext]
}

// Manager ties uploaded images to product records.
type Manager struct {
	storage Storage
	log     *zap.Logger
	now     func() time.Time
}

func NewManager(storage Storage, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{storage: storage, log: log, now: time.Now}
}

// URL returns the browser URL of an image path.
func (m *Manager) URL(imagePath string) string {
	if imagePath == "" {
		return ""
	}
	return m.storage.URL(imagePath)
}

// StoredName builds a collision resistant file name: a timestamp with
// microseconds, then the slugified original name and its extension.
func (m *Manager) StoredName(filename string) string {
	filename = strings.ReplaceAll(filename, `\`, "/")
	base := path.Base(filename)
	ext := strings.ToLower(path.Ext(base))
	stem := slug.Make(strings.TrimSuffix(base, path.Ext(base)))
	if stem == "" {
		stem = "image"
	}

	now := m.now()
	return fmt.Sprintf("%s%06d_%s%s", now.Format("20060102150405"), now.Nanosecond()/1000, stem, ext)
}

// Save writes an upload and returns its image path.
func (m *Manager) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if !AllowedFile(fh.Filename) {
		return "", ErrRejected
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := m.StoredName(fh.Filename)
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(name))
	}

	if err := m.storage.Save(ctx, name, src, contentType); err != nil {
		return "", err
	}
	return uploadPrefix + name, nil
}

// Attach associates an optional upload with a record whose current image is
// previous. commit persists the record with the resulting path.
//
// Without an acceptable upload, commit receives previous unchanged. With
// one, the new file is written first, then committed, and only then is the
// previous file removed. A failed commit removes the new file and keeps
// previous.
func (m *Manager) Attach(ctx context.Context, previous string, upload *multipart.FileHeader, commit func(imagePath string) error) (string, error) {
	imagePath := previous
	stored := ""

	if upload != nil {
		p, err := m.Save(ctx, upload)
		switch {
		case errors.Is(err, ErrRejected):
			m.log.Info("upload ignored", zap.String("filename", upload.Filename))
		case err != nil:
			return previous, err
		default:
			imagePath = p
			stored = p
		}
	}

	if err := commit(imagePath); err != nil {
		if stored != "" {
			m.remove(ctx, stored)
		}
		return previous, err
	}

	if stored != "" && previous != "" {
		m.remove(ctx, previous)
	}
	return imagePath, nil
}

// Remove deletes the file behind imagePath. Missing files are fine.
func (m *Manager) Remove(ctx context.Context, imagePath string) error {
	if imagePath == "" {
		return nil
	}
	return m.storage.Delete(ctx, path.Base(imagePath))
}

// remove is Remove for cleanup paths: failures are logged, not returned.
func (m *Manager) remove(ctx context.Context, imagePath string) {
	if err := m.Remove(ctx, imagePath); err != nil {
		m.log.Warn("image cleanup failed", zap.String("image_path", imagePath), zap.Error(err))
	}
}
