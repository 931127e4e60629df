package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/dmitrijs2005/gophdrop/internal/pathx"
	"github.com/dmitrijs2005/gophdrop/internal/server/models"
)

type Outcome int

const (
	NoPending Outcome = iota
	NotSent
	Sent
)

func (o Outcome) String() string {
	switch o {
	case NoPending:
		return "NoPending"
	case NotSent:
		return "NotSent"
	case Sent:
		return "Sent"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

type RecipientResolver interface {
	Resolve(ctx context.Context, destination string) ([]models.Recipient, error)
}

type Backlog interface {
	TryExtractFolder(ctx context.Context, folder string) (models.QueueEntry, bool, error)
	ExtractDue(ctx context.Context, quiet time.Duration) ([]models.QueueEntry, error)
	Requeue(ctx context.Context, entry models.QueueEntry) error
}

// Notifier drains queued batches towards their recipients.
type Notifier struct {
	resolver   RecipientResolver
	backlog    Backlog
	dispatcher *Dispatcher
	logger     logging.Logger
}

func NewNotifier(r RecipientResolver, b Backlog, d *Dispatcher, l logging.Logger) *Notifier {
	return &Notifier{resolver: r, backlog: b, dispatcher: d, logger: l.With("module", "notifier")}
}

// DispatchFolder sends the pending batch of one folder. Recipients are
// resolved before the batch is taken, so a folder nobody follows keeps
// its entry. A batch none of whose sends succeeded is put back.
func (n *Notifier) DispatchFolder(ctx context.Context, folder string) (Outcome, error) {
	folder = pathx.Clean(folder)

	recipients, err := n.resolver.Resolve(ctx, folder)
	if err != nil {
		return NotSent, fmt.Errorf("resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		n.logger.Info(ctx, "no recipients for folder", "folder", folder)
		return NotSent, nil
	}

	entry, found, err := n.backlog.TryExtractFolder(ctx, folder)
	if err != nil {
		return NotSent, err
	}
	if !found {
		return NoPending, nil
	}

	return n.deliver(ctx, entry, recipients)
}

func (n *Notifier) deliver(ctx context.Context, entry models.QueueEntry, recipients []models.Recipient) (Outcome, error) {
	sent, err := n.dispatcher.Dispatch(ctx, recipients, entry.Folder, entry.Files)
	if sent > 0 {
		if err != nil {
			n.logger.Warn(ctx, "some notifications failed", "folder", entry.Folder, "sent", sent, "recipients", len(recipients))
		}
		return Sent, nil
	}

	if rqErr := n.backlog.Requeue(ctx, entry); rqErr != nil {
		n.logger.Error(ctx, "requeue failed, batch lost", "folder", entry.Folder, "files", len(entry.Files), "error", rqErr)
		err = errors.Join(err, rqErr)
	}
	return NotSent, err
}

// FlushDue dispatches every batch that has been quiet for window and
// returns how many batches were sent.
func (n *Notifier) FlushDue(ctx context.Context, window time.Duration) (int, error) {
	due, err := n.backlog.ExtractDue(ctx, window)
	if err != nil {
		return 0, err
	}

	var (
		sent int
		errs []error
	)
	for _, entry := range due {
		recipients, err := n.resolver.Resolve(ctx, entry.Folder)
		if err != nil {
			errs = append(errs, err)
			if rqErr := n.backlog.Requeue(ctx, entry); rqErr != nil {
				errs = append(errs, rqErr)
			}
			continue
		}
		if len(recipients) == 0 {
			n.logger.Warn(ctx, "dropping batch without recipients", "folder", entry.Folder, "files", len(entry.Files))
			continue
		}

		out, err := n.deliver(ctx, entry, recipients)
		if err != nil && !errors.Is(err, common.ErrDispatchFailure) {
			errs = append(errs, err)
		}
		if out == Sent {
			sent++
		}
	}

	return sent, errors.Join(errs...)
}

// Run flushes due batches every interval until ctx is done.
func (n *Notifier) Run(ctx context.Context, window, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sent, err := n.FlushDue(ctx, window)
			if err != nil {
				n.logger.Error(ctx, "flush failed", "error", err)
			}
			if sent > 0 {
				n.logger.Info(ctx, "batches flushed", "count", sent)
			}
		case <-ctx.Done():
			return
		}
	}
}
