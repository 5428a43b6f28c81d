// Package filestorage provides directory-backed storage with atomic writes.
package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

var (
	// ErrNotFound is returned when a reference does not resolve to stored data.
	ErrNotFound = errors.New("artifact not found")

	// ErrInvalidKey is returned for names that escape the storage root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Storage stores artifacts as files under a root directory.
// References are slash-separated names relative to the root. Absolute paths
// are accepted by Read and Exists so that inputs outside the root can be consumed.
type Storage struct {
	root string
	fs   ports.FileSystem
}

// New creates a Storage rooted at root.
func New(root string, fsys ports.FileSystem) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &Storage{root: abs, fs: fsys}, nil
}

// Path returns the filesystem path behind ref.
func (s *Storage) Path(ref string) (string, error) {
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref), nil
	}
	return s.fullPath(ref)
}

// Write stores data under name. The data is written to a uniquely named
// temporary file beside the target and renamed into place, so a cancelled or
// failed write never leaves a partial artifact under name.
func (s *Storage) Write(ctx context.Context, name string, data []byte) (string, error) {
	if err := pipeline.Cancelled(ctx, "write "+name); err != nil {
		return "", err
	}

	target, err := s.fullPath(name)
	if err != nil {
		return "", err
	}

	tmp := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+"."+uuid.NewString()+".tmp")
	if err := s.fs.WriteFile(tmp, data); err != nil {
		s.fs.Remove(tmp)
		return "", pipeline.NewError(pipeline.KindResourceExhausted, "write "+name, fmt.Errorf("write temp file: %w", err))
	}

	if err := pipeline.Cancelled(ctx, "write "+name); err != nil {
		s.fs.Remove(tmp)
		return "", err
	}

	if err := s.fs.Rename(tmp, target); err != nil {
		s.fs.Remove(tmp)
		return "", pipeline.NewError(pipeline.KindResourceExhausted, "write "+name, fmt.Errorf("rename temp file: %w", err))
	}

	return cleanKey(name), nil
}

// Read returns the data behind ref.
func (s *Storage) Read(ctx context.Context, ref string) ([]byte, error) {
	if err := pipeline.Cancelled(ctx, "read "+ref); err != nil {
		return nil, err
	}
	p, err := s.Path(ref)
	if err != nil {
		return nil, err
	}

	data, err := s.fs.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pipeline.NewError(pipeline.KindUnreachableReference, "read "+ref, ErrNotFound)
		}
		return nil, pipeline.NewError(pipeline.KindUnreachableReference, "read "+ref, err)
	}
	return data, nil
}

// Exists reports whether ref resolves to stored data.
func (s *Storage) Exists(ctx context.Context, ref string) (bool, error) {
	p, err := s.Path(ref)
	if err != nil {
		return false, err
	}
	return s.fs.Exists(p)
}

// Remove deletes the data behind ref. Removing a missing artifact is not an error.
func (s *Storage) Remove(ctx context.Context, ref string) error {
	p, err := s.fullPath(ref)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", ref, err)
	}
	return nil
}

// fullPath maps a key to a path under the root, rejecting keys that escape it.
func (s *Storage) fullPath(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasPrefix(key, "\\") || filepath.IsAbs(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	clean := cleanKey(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func cleanKey(key string) string {
	return path.Clean(strings.ReplaceAll(key, "\\", "/"))
}

var _ ports.Storage = (*Storage)(nil)
