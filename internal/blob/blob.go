// Package blob stores uploaded launch images on the local filesystem and
// addresses them by public URL.
package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/zulandar/launchpad/internal/apperr"
)

// MediaPrefix is the URL path the dashboard serves stored objects under.
const MediaPrefix = "/media"

// Store puts objects by key and resolves their public URL.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) error
	URL(key string) string
}

// DirStore writes objects into a single directory.
type DirStore struct {
	dir     string
	baseURL string
}

// NewDirStore creates dir if needed. baseURL is the externally reachable
// server origin, e.g. http://localhost:8080.
func NewDirStore(dir, baseURL string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create %s: %w", dir, err)
	}
	return &DirStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the backing directory.
func (s *DirStore) Dir() string { return s.dir }

func validKey(key string) bool {
	return key != "" && key == filepath.Base(key) && key != "." && key != ".."
}

// Put writes r to key, replacing any existing object. The write goes to a
// temporary file first so readers never see a partial image.
func (s *DirStore) Put(ctx context.Context, key string, r io.Reader) error {
	if !validKey(key) {
		return apperr.New(apperr.InvalidInput, "invalid object key %q", key)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("blob: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("blob: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("blob: close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, key)); err != nil {
		return fmt.Errorf("blob: store %s: %w", key, err)
	}
	return nil
}

// URL returns the public address of key.
func (s *DirStore) URL(key string) string {
	return s.baseURL + MediaPrefix + "/" + url.PathEscape(key)
}
