// Package storage persists finished uploads. Destinations are logical,
// slash-separated absolute folders as produced by pathx.Normalize.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Storage durably stores a finished file. The returned bool is false when
// the file was not stored because it already exists and overwrite is off.
type Storage interface {
	Store(ctx context.Context, folder, filename string, r io.Reader, overwrite bool) (bool, error)
}

// cleanFilename rejects names that would address anything but a direct
// child of the destination folder.
func cleanFilename(filename string) (string, error) {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", fmt.Errorf("invalid file name %q", filename)
	}
	return name, nil
}
