package models

// ChunkIdentifier names one chunk of a resumable upload. Index is 1-based.
type ChunkIdentifier struct {
	Identifier  string
	Filename    string
	Index       int
	TotalChunks int
	TotalSize   int64
}
