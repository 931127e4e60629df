// Package sessions persists resumable upload sessions in the CLI's local
// database.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/gophdrop/internal/client/models"
)

type Repository interface {
	// Find returns the session for a local file and destination, or
	// common.ErrorNotFound.
	Find(ctx context.Context, path, destination string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	SetProgress(ctx context.Context, identifier string, chunksDone int) error
	Delete(ctx context.Context, identifier string) error
	List(ctx context.Context) ([]models.Session, error)
}
