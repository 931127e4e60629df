// Package sweeper removes staged chunks of abandoned uploads. Error traps
// are left alone: an aborted identifier stays aborted.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/dmitrijs2005/gophdrop/internal/server/chunkstore"
	"github.com/dmitrijs2005/gophdrop/internal/server/upload"
)

var sweptPrefixes = []string{upload.ChunkPrefixAll, upload.AssembledPrefixAll}

type Sweeper struct {
	store  chunkstore.ChunkStore
	logger logging.Logger
	now    func() time.Time
}

func New(cs chunkstore.ChunkStore, l logging.Logger) *Sweeper {
	return &Sweeper{store: cs, logger: l.With("module", "sweeper"), now: time.Now}
}

// SweepOlderThan removes staged blobs last written more than ttl ago and
// returns how many were removed.
func (s *Sweeper) SweepOlderThan(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	cutoff := s.now().Add(-ttl)

	var removed int64
	for _, prefix := range sweptPrefixes {
		blobs, err := s.store.FindAll(ctx, prefix)
		if err != nil {
			return removed, fmt.Errorf("list %s: %w", prefix, err)
		}

		for _, b := range blobs {
			if !b.ModTime.Before(cutoff) {
				continue
			}
			err := s.store.Remove(ctx, b.Name)
			if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return removed, fmt.Errorf("remove %s: %w", b.Name, err)
			}
			if err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		s.logger.Info(ctx, "expired chunks removed", "count", removed, "ttl", ttl.String())
	}
	return removed, nil
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.SweepOlderThan(ctx, ttl); err != nil {
				s.logger.Error(ctx, "sweep failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
