package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/dmitrijs2005/gophdrop/internal/server/models"
)

type Dispatcher struct {
	sender Sender
	logger logging.Logger
}

func NewDispatcher(s Sender, l logging.Logger) *Dispatcher {
	return &Dispatcher{sender: s, logger: l.With("module", "dispatcher")}
}

// Compose renders the notification for one recipient.
func Compose(r models.Recipient, folder string, files []string) (Message, error) {
	name := r.Name
	if name == "" {
		name = r.Username
	}
	data := templateData{Name: name, Folder: folder, Files: files}

	var text, html bytes.Buffer
	if err := textBody.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlBody.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}

	return Message{
		ToName:  r.Name,
		ToEmail: r.Email,
		Subject: Subject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// Dispatch sends one message per recipient and keeps going past failures.
// It returns how many sends succeeded; the error joins every failure and
// matches common.ErrDispatchFailure.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []models.Recipient, folder string, files []string) (int, error) {
	var (
		sent int
		errs []error
	)

	for _, r := range recipients {
		m, err := Compose(r, folder, files)
		if err == nil {
			err = d.sender.Send(ctx, m)
		}
		if err != nil {
			d.logger.Error(ctx, "notification failed", "to", r.Email, "folder", folder, "error", err)
			errs = append(errs, fmt.Errorf("%w: %s: %w", common.ErrDispatchFailure, r.Username, err))
			continue
		}

		d.logger.Info(ctx, "notification sent", "to", r.Email, "folder", folder, "files", len(files))
		sent++
	}

	return sent, errors.Join(errs...)
}
