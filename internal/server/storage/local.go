package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gophdrop/internal/filex"
	"github.com/dmitrijs2005/gophdrop/internal/pathx"
)

// LocalStorage maps logical folders onto a directory tree under root.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fmt.Errorf("storage root: %w", err)
	}
	return &LocalStorage{root: abs}, nil
}

func (s *LocalStorage) Store(ctx context.Context, folder, filename string, r io.Reader, overwrite bool) (bool, error) {
	name, err := cleanFilename(filename)
	if err != nil {
		return false, err
	}

	dir := filepath.Join(s.root, filepath.FromSlash(pathx.Clean(folder)))
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return false, fmt.Errorf("mkdir %s: %w", folder, err)
	}

	target := filepath.Join(dir, name)

	if !overwrite {
		if _, err := os.Lstat(target); err == nil {
			return false, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, err
		}
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return false, fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("rename %s: %w", name, err)
	}

	return true, nil
}
