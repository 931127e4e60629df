// Package models defines the data types shared by the CLI transports,
// repositories and services.
package models

import "time"

// ChunkRef addresses one chunk of a resumable upload.
type ChunkRef struct {
	Identifier   string
	Filename     string
	RelativePath string
	Index        int
	TotalChunks  int
	TotalSize    int64
}

// ChunkStatus is the server's answer to an accepted chunk.
type ChunkStatus string

const (
	ChunkUploaded ChunkStatus = "Uploaded"
	ChunkStored   ChunkStatus = "Stored"
)

// Session records an upload in progress so an interrupted transfer
// resumes under the same identifier.
type Session struct {
	Identifier  string
	Path        string
	Destination string
	Filename    string
	TotalSize   int64
	TotalChunks int
	ChunksDone  int
	Attempt     int
	UpdatedAt   time.Time
}

// PendingEntry is one folder waiting for notification, as listed by the
// admin API. Timestamps are Unix seconds.
type PendingEntry struct {
	Folder      string
	Files       []string
	FirstUpload int64
	LastUpload  int64
}
