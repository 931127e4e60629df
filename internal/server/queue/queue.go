// Package queue keeps the notification backlog: per destination folder, the
// names of files uploaded since the folder was last dispatched. The backlog
// is a single JSON document; every read-modify-write runs under one lock.
package queue

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/filex"
	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/dmitrijs2005/gophdrop/internal/pathx"
	"github.com/dmitrijs2005/gophdrop/internal/server/models"
)

// document is the persisted shape: folder key -> entry.
type document map[string]*models.QueueEntry

type Queue struct {
	path   string
	locker Locker
	logger logging.Logger
	now    func() time.Time
}

func New(path string, locker Locker, l logging.Logger) *Queue {
	return &Queue{
		path:   path,
		locker: locker,
		logger: l.With("module", "queue"),
		now:    time.Now,
	}
}

// FolderKey is the stable key of a folder in the queue document.
func FolderKey(folder string) string {
	sum := sha256.Sum256([]byte(pathx.Clean(folder)))
	return hex.EncodeToString(sum[:])
}

func (q *Queue) load() (document, error) {
	b, err := os.ReadFile(q.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return document{}, nil
		}
		return nil, fmt.Errorf("read queue: %w", err)
	}
	if len(b) == 0 {
		return document{}, nil
	}

	doc := document{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode queue: %w", err)
	}
	for key, e := range doc {
		if e == nil {
			delete(doc, key)
			continue
		}
		e.Key = key
	}
	return doc, nil
}

func (q *Queue) save(doc document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	return filex.WriteFileAtomic(q.path, b, 0o600)
}

// update runs fn on the loaded document under the blocking lock and
// saves the document when fn reports a change.
func (q *Queue) update(ctx context.Context, fn func(doc document) bool) error {
	unlock, err := q.locker.Lock(ctx)
	if err != nil {
		return fmt.Errorf("acquire queue lock: %w", err)
	}
	defer unlock()

	return q.apply(fn)
}

func (q *Queue) apply(fn func(doc document) bool) error {
	doc, err := q.load()
	if err != nil {
		return err
	}
	if !fn(doc) {
		return nil
	}
	return q.save(doc)
}

// Enqueue records that filename landed in folder.
func (q *Queue) Enqueue(ctx context.Context, folder, filename string) error {
	folder = pathx.Clean(folder)
	key := FolderKey(folder)

	err := q.update(ctx, func(doc document) bool {
		now := q.now().Unix()
		e, ok := doc[key]
		if !ok {
			e = &models.QueueEntry{Key: key, Folder: folder, FirstUpload: now}
			doc[key] = e
		}
		e.Files = append(e.Files, filename)
		e.LastUpload = now
		return true
	})
	if err != nil {
		return err
	}

	q.logger.Debug(ctx, "file queued", "folder", folder, "file", filename)
	return nil
}

func extract(doc document, key string, out *models.QueueEntry, found *bool) bool {
	e, ok := doc[key]
	if !ok {
		return false
	}
	delete(doc, key)
	*out = *e
	*found = true
	return true
}

// ExtractFolder removes and returns the pending entry of folder, waiting
// for the lock if needed. found is false when nothing is pending.
func (q *Queue) ExtractFolder(ctx context.Context, folder string) (entry models.QueueEntry, found bool, err error) {
	key := FolderKey(folder)
	err = q.update(ctx, func(doc document) bool {
		return extract(doc, key, &entry, &found)
	})
	return entry, found, err
}

// TryExtractFolder is ExtractFolder for request paths: when the lock is
// busy it fails at once with common.ErrLockUnavailable.
func (q *Queue) TryExtractFolder(ctx context.Context, folder string) (entry models.QueueEntry, found bool, err error) {
	unlock, ok, err := q.locker.TryLock()
	if err != nil {
		return entry, false, fmt.Errorf("acquire queue lock: %w", err)
	}
	if !ok {
		return entry, false, common.ErrLockUnavailable
	}
	defer unlock()

	key := FolderKey(folder)
	err = q.apply(func(doc document) bool {
		return extract(doc, key, &entry, &found)
	})
	return entry, found, err
}

// Requeue merges a previously extracted entry back into the queue. Its
// files go before anything enqueued since the extraction.
func (q *Queue) Requeue(ctx context.Context, entry models.QueueEntry) error {
	folder := pathx.Clean(entry.Folder)
	key := FolderKey(folder)

	return q.update(ctx, func(doc document) bool {
		e, ok := doc[key]
		if !ok {
			restored := entry
			restored.Key = key
			restored.Folder = folder
			restored.Files = append([]string(nil), entry.Files...)
			doc[key] = &restored
			return true
		}

		e.Files = append(append([]string(nil), entry.Files...), e.Files...)
		if entry.FirstUpload < e.FirstUpload {
			e.FirstUpload = entry.FirstUpload
		}
		if entry.LastUpload > e.LastUpload {
			e.LastUpload = entry.LastUpload
		}
		return true
	})
}

// Pending returns a snapshot of all entries ordered by first upload.
func (q *Queue) Pending(ctx context.Context) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := q.update(ctx, func(doc document) bool {
		for _, e := range doc {
			entries = append(entries, *e)
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	sortEntries(entries)
	return entries, nil
}

// ExtractDue removes and returns entries that saw no upload for at least
// quiet. It implements the optional batching window on top of the
// per-folder extraction.
func (q *Queue) ExtractDue(ctx context.Context, quiet time.Duration) ([]models.QueueEntry, error) {
	var due []models.QueueEntry
	err := q.update(ctx, func(doc document) bool {
		cutoff := q.now().Add(-quiet).Unix()
		for key, e := range doc {
			if e.LastUpload <= cutoff {
				due = append(due, *e)
				delete(doc, key)
			}
		}
		return len(due) > 0
	})
	if err != nil {
		return nil, err
	}

	sortEntries(due)
	return due, nil
}

func sortEntries(entries []models.QueueEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].FirstUpload != entries[j].FirstUpload {
			return entries[i].FirstUpload < entries[j].FirstUpload
		}
		return entries[i].Folder < entries[j].Folder
	})
}
