package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/filex"
)

const tmpPrefix = ".tmp-"

// FSStore keeps every blob as one file in a single directory. Blob names
// are path-escaped so client supplied file names cannot leave the directory.
type FSStore struct {
	dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("chunk store dir: %w", err)
	}
	return &FSStore{dir: abs}, nil
}

func (s *FSStore) path(name string) (string, error) {
	escaped := url.PathEscape(name)
	if escaped == "" || escaped == "." || escaped == ".." || strings.HasPrefix(escaped, tmpPrefix) {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return filepath.Join(s.dir, escaped), nil
}

func (s *FSStore) Exists(ctx context.Context, name string) (bool, error) {
	p, err := s.path(name)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *FSStore) Write(ctx context.Context, name string, r io.Reader, appendMode bool) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}

	if appendMode {
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		if _, err := io.Copy(f, r); err != nil {
			_ = f.Close()
			return fmt.Errorf("append %s: %w", name, err)
		}
		return f.Close()
	}

	tmp, err := os.CreateTemp(s.dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

func (s *FSStore) FindAll(ctx context.Context, prefix string) ([]BlobInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list chunk store: %w", err)
	}

	escapedPrefix := url.PathEscape(prefix)

	var blobs []BlobInfo
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), tmpPrefix) || !strings.HasPrefix(e.Name(), escapedPrefix) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			// removed by a concurrent cleanup
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}

		name, err := url.PathUnescape(e.Name())
		if err != nil {
			continue
		}

		blobs = append(blobs, BlobInfo{Name: name, Size: info.Size(), ModTime: info.ModTime()})
	}

	sort.Slice(blobs, func(i, j int) bool { return blobs[i].Name < blobs[j].Name })
	return blobs, nil
}

func (s *FSStore) ReadStream(ctx context.Context, name string) (io.ReadCloser, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, common.ErrorNotFound)
		}
		return nil, err
	}
	return f, nil
}

func (s *FSStore) Remove(ctx context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, common.ErrorNotFound)
		}
		return err
	}
	return nil
}
