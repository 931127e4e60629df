// Package recipients decides who hears about files landing in a folder.
package recipients

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/dmitrijs2005/gophdrop/internal/pathx"
	"github.com/dmitrijs2005/gophdrop/internal/server/models"
)

// Match returns the users whose home directory scope covers destination,
// in input order. Users with an empty scope never match.
func Match(destination string, all []models.Recipient) []models.Recipient {
	dest := pathx.Clean(destination)

	var out []models.Recipient
	for _, r := range all {
		if r.HomeDir == "" {
			continue
		}
		if pathx.IsWithin(dest, pathx.Clean(r.HomeDir)) {
			out = append(out, r)
		}
	}
	return out
}

// Directory enumerates every known user.
type Directory interface {
	All(ctx context.Context) ([]models.Recipient, error)
}

type Resolver struct {
	dir    Directory
	logger logging.Logger
}

func NewResolver(dir Directory, l logging.Logger) *Resolver {
	return &Resolver{dir: dir, logger: l.With("module", "recipients")}
}

// Resolve returns the reachable recipients for destination: matched users
// that have an email address.
func (r *Resolver) Resolve(ctx context.Context, destination string) ([]models.Recipient, error) {
	all, err := r.dir.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	matched := Match(destination, all)
	out := matched[:0:0]
	for _, m := range matched {
		if m.Email == "" {
			r.logger.Debug(ctx, "recipient has no email", "username", m.Username)
			continue
		}
		out = append(out, m)
	}

	r.logger.Debug(ctx, "recipients resolved", "folder", destination, "matched", len(matched), "reachable", len(out))
	return out, nil
}
