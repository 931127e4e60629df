// Package chunkstore implements the staging area that holds upload chunks
// until they are assembled. Blobs are flat, named byte streams.
package chunkstore

import (
	"context"
	"io"
	"time"
)

// BlobInfo describes a staged blob.
type BlobInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// ChunkStore is a named-blob store with streaming reads and writes.
//
// Write replaces the blob unless appendMode is set, in which case the
// bytes are added to the end of an existing blob (or a new one is created).
// FindAll returns blobs ordered by name. ReadStream and Remove return
// common.ErrorNotFound for unknown names.
type ChunkStore interface {
	Exists(ctx context.Context, name string) (bool, error)
	Write(ctx context.Context, name string, r io.Reader, appendMode bool) error
	FindAll(ctx context.Context, prefix string) ([]BlobInfo, error)
	ReadStream(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}

// TotalSize sums the sizes of blobs.
func TotalSize(blobs []BlobInfo) int64 {
	var total int64
	for _, b := range blobs {
		total += b.Size
	}
	return total
}
