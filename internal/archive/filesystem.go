package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-epaper/internal/assets"
	"github.com/alnah/go-epaper/internal/fileutil"
)

// FilesystemStore keeps objects as files in one directory.
type FilesystemStore struct {
	root      string
	publicURL string
}

// Compile-time interface check.
var _ ObjectStore = (*FilesystemStore)(nil)

// NewFilesystemStore creates the directory if needed. References returned by
// Put are publicURL + "/" + key, or the bare key when publicURL is empty.
func NewFilesystemStore(root, publicURL string) (*FilesystemStore, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty path", assets.ErrInvalidBasePath)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	abs, err := assets.ResolveDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", assets.ErrInvalidBasePath, err)
	}
	return &FilesystemStore{root: abs, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Root returns the resolved storage directory.
func (s *FilesystemStore) Root() string { return s.root }

func (s *FilesystemStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "/\\\x00") || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	p := filepath.Join(s.root, key)
	if err := assets.VerifyContainment(s.root, p); err != nil {
		return "", err
	}
	return p, nil
}

// Put writes the object atomically.
func (s *FilesystemStore) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	// #nosec G306 -- archived editions are meant to be served
	if err := fileutil.WriteFileAtomic(p, data, 0o644); err != nil {
		return "", err
	}
	return s.Ref(key), nil
}

// Exists reports whether an object is stored under key.
func (s *FilesystemStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	return fileutil.FileExists(p), nil
}

// Get reads an object.
func (s *FilesystemStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p) // #nosec G304 -- key validated above
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return data, err
}

// Ref returns the public reference for key.
func (s *FilesystemStore) Ref(key string) string {
	if s.publicURL == "" {
		return key
	}
	return s.publicURL + "/" + key
}
