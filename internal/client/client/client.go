package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/client/models"
)

// UploadAPI is the HTTP side used by the uploader and login.
type UploadAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
	SetAccessToken(token string)
	Probe(ctx context.Context, ref models.ChunkRef) (bool, error)
	SendChunk(ctx context.Context, ref models.ChunkRef, data []byte) (models.ChunkStatus, error)
}

// AdminAPI is the gRPC admin side.
type AdminAPI interface {
	DispatchFolder(ctx context.Context, folder string) (string, error)
	ListPending(ctx context.Context) ([]models.PendingEntry, error)
	SweepChunks(ctx context.Context, olderThan time.Duration) (int64, error)
	Close() error
}
