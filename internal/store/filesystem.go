package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// FilesystemBackend is the reference Backend implementation: keys map to
// paths under a base directory, and writes land via a temp-file-then-
// rename so a crash mid-write never leaves a torn block on disk.
type FilesystemBackend struct {
	basePath string
}

// NewFilesystemBackend creates basePath if needed and returns a backend
// rooted there.
func NewFilesystemBackend(basePath string) (*FilesystemBackend, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to create base path", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to resolve base path", err)
	}
	return &FilesystemBackend{basePath: abs}, nil
}

// Type reports "filesystem".
func (f *FilesystemBackend) Type() string { return "filesystem" }

func (f *FilesystemBackend) keyToPath(key string) string {
	key = strings.ReplaceAll(key, "..", "")
	key = strings.TrimPrefix(key, "/")
	parts := strings.Split(key, "/")
	return filepath.Join(append([]string{f.basePath}, parts...)...)
}

// Get reads the bytes at key.
func (f *FilesystemBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.keyToPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.New(apperrors.CodeNotFound, "key not found: "+key)
		}
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to read "+key, err)
	}
	return data, nil
}

// Put writes data at key atomically: write to a sibling temp file, then
// rename over the destination.
func (f *FilesystemBackend) Put(ctx context.Context, key string, data []byte) error {
	path := f.keyToPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrap(apperrors.CodeIOFailure, "failed to create directory for "+key, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.CodeIOFailure, "failed to write "+key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.Wrap(apperrors.CodeIOFailure, "failed to finalize "+key, err)
	}
	return nil
}

// Exists reports whether key has backing bytes.
func (f *FilesystemBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(f.keyToPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.CodeIOFailure, "failed to stat "+key, err)
	}
	return true, nil
}

// List returns every key under prefix, sorted.
func (f *FilesystemBackend) List(ctx context.Context, prefix string) ([]string, error) {
	root := f.keyToPath(prefix)
	var keys []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if info.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(f.basePath, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to list "+prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}
