// Package storage keeps uploaded media on local disk and tracks artifacts written
// during a request so they can be compensated when the database write fails.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidReference is returned for URLs that do not point inside the store.
var ErrInvalidReference = errors.New("invalid media reference")

// Artifact is a file written to the store.
type Artifact struct {
	Name string
	URL  string
	Size int64
}

// MediaStore is the subset of DiskStore the services depend on.
type MediaStore interface {
	Save(ctx context.Context, field, ext string, data []byte) (Artifact, error)
	Remove(ctx context.Context, url string) error
}

// DiskStore writes artifacts under dir and exposes them under urlPrefix.
type DiskStore struct {
	dir       string
	urlPrefix string
	now       func() time.Time
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &DiskStore{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		now:       time.Now,
	}, nil
}

// Dir returns the directory artifacts are written to.
func (s *DiskStore) Dir() string { return s.dir }

// URLFor maps a stored file name to its public reference.
func (s *DiskStore) URLFor(name string) string {
	return s.urlPrefix + "/" + name
}

// Save writes data under a unique name of the form <unix-ms>-<field>-<rand><ext>.
func (s *DiskStore) Save(ctx context.Context, field, ext string, data []byte) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	name := fmt.Sprintf("%d-%s-%s%s", s.now().UnixMilli(), sanitizeField(field), uuid.New().String()[:8], strings.ToLower(ext))
	if err := writeBytesToFile(filepath.Join(s.dir, name), data); err != nil {
		return Artifact{}, fmt.Errorf("write %s: %w", name, err)
	}
	return Artifact{Name: name, URL: s.URLFor(name), Size: int64(len(data))}, nil
}

// Remove deletes the artifact behind url. A missing file yields an error wrapping os.ErrNotExist.
func (s *DiskStore) Remove(_ context.Context, url string) error {
	p, err := s.pathFor(url)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

func (s *DiskStore) pathFor(url string) (string, error) {
	name := strings.TrimPrefix(url, s.urlPrefix+"/")
	if name == url || name == "" || name != path.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidReference, url)
	}
	return filepath.Join(s.dir, name), nil
}

func sanitizeField(field string) string {
	var b strings.Builder
	for _, r := range field {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o640)
}
