package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/dmitrijs2005/gophdrop/internal/client/models"
	"github.com/dmitrijs2005/gophdrop/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/logging"
)

// ErrIncomplete means every chunk was handled but the server never
// reported the file as stored.
var ErrIncomplete = errors.New("upload incomplete")

type ChunkAPI interface {
	Probe(ctx context.Context, ref models.ChunkRef) (bool, error)
	SendChunk(ctx context.Context, ref models.ChunkRef, data []byte) (models.ChunkStatus, error)
}

type UploadResult struct {
	Identifier string
	Sent       int
	Skipped    int
	Stored     bool
}

type Uploader struct {
	api       ChunkAPI
	sessions  sessions.Repository
	chunkSize int64
	logger    logging.Logger

	// OnProgress, when set, is called after each chunk is handled.
	OnProgress func(done, total int)
}

func NewUploader(api ChunkAPI, repo sessions.Repository, chunkSize int64, l logging.Logger) *Uploader {
	if chunkSize <= 0 {
		chunkSize = 1 << 20
	}
	return &Uploader{api: api, sessions: repo, chunkSize: chunkSize, logger: l.With("module", "uploader")}
}

var nameCleaner = regexp.MustCompile(`[^0-9A-Za-z_-]`)

// Identifier derives the upload identifier from the file size and name.
// Attempts after an aborted upload get a numeric suffix so the server
// sees a fresh identifier.
func Identifier(size int64, filename string, attempt int) string {
	id := strconv.FormatInt(size, 10) + "-" + nameCleaner.ReplaceAllString(filename, "")
	if attempt > 0 {
		id += "-" + strconv.Itoa(attempt)
	}
	return id
}

// ChunkCount is the number of chunks for size bytes. An empty file is
// sent as one empty chunk.
func ChunkCount(size, chunkSize int64) int {
	if size == 0 {
		return 1
	}
	return int((size + chunkSize - 1) / chunkSize)
}

func (u *Uploader) session(ctx context.Context, path, destination, filename string, size int64) (*models.Session, error) {
	s, err := u.sessions.Find(ctx, path, destination)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s = nil
	case err != nil:
		return nil, err
	}

	if s != nil && s.TotalSize == size && s.Filename == filename {
		return s, nil
	}

	attempt := 0
	if s != nil {
		attempt = s.Attempt
	}

	s = &models.Session{
		Identifier:  Identifier(size, filename, attempt),
		Path:        path,
		Destination: destination,
		Filename:    filename,
		TotalSize:   size,
		TotalChunks: ChunkCount(size, u.chunkSize),
		Attempt:     attempt,
	}
	if err := u.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Upload sends the file at path into destination (relative to the user's
// home on the server). Chunks the server already holds are skipped, so
// calling Upload again after a failure resumes the transfer.
func (u *Uploader) Upload(ctx context.Context, path, destination string) (UploadResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return UploadResult{}, err
	}

	f, err := os.Open(abs)
	if err != nil {
		return UploadResult{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return UploadResult{}, err
	}
	if info.IsDir() {
		return UploadResult{}, fmt.Errorf("%s is a directory", path)
	}

	s, err := u.session(ctx, abs, destination, filepath.Base(abs), info.Size())
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload session: %w", err)
	}

	log := u.logger.With("identifier", s.Identifier, "file", abs)
	res := UploadResult{Identifier: s.Identifier}
	buf := make([]byte, u.chunkSize)

	send := func(i int) (models.ChunkStatus, error) {
		ref := u.ref(s, i)
		n, err := f.ReadAt(buf[:u.chunkLen(s, i)], int64(i-1)*u.chunkSize)
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read chunk %d: %w", i, err)
		}
		st, err := u.api.SendChunk(ctx, ref, buf[:n])
		if err != nil {
			return "", u.failed(ctx, s, i, err)
		}
		res.Sent++
		return st, nil
	}

	for i := 1; i <= s.TotalChunks && !res.Stored; i++ {
		present, err := u.api.Probe(ctx, u.ref(s, i))
		if err != nil {
			return res, u.failed(ctx, s, i, err)
		}

		if present {
			res.Skipped++
			log.Debug(ctx, "chunk already on server", "chunk", i)
		} else {
			st, err := send(i)
			if err != nil {
				return res, err
			}
			res.Stored = st == models.ChunkStored
		}

		if err := u.sessions.SetProgress(ctx, s.Identifier, i); err != nil {
			log.Warn(ctx, "cannot record progress", "error", err)
		}
		if u.OnProgress != nil {
			u.OnProgress(i, s.TotalChunks)
		}
	}

	// every chunk staged but never assembled: a repeated final chunk
	// pushes the staged total over the declared size
	if !res.Stored && res.Sent == 0 {
		st, err := send(s.TotalChunks)
		if err != nil {
			return res, err
		}
		res.Stored = st == models.ChunkStored
	}

	if !res.Stored {
		return res, ErrIncomplete
	}

	if err := u.sessions.Delete(ctx, s.Identifier); err != nil {
		log.Warn(ctx, "cannot drop finished session", "error", err)
	}
	log.Info(ctx, "file stored", "sent", res.Sent, "skipped", res.Skipped)
	return res, nil
}

func (u *Uploader) ref(s *models.Session, i int) models.ChunkRef {
	return models.ChunkRef{
		Identifier:   s.Identifier,
		Filename:     s.Filename,
		RelativePath: s.Destination,
		Index:        i,
		TotalChunks:  s.TotalChunks,
		TotalSize:    s.TotalSize,
	}
}

func (u *Uploader) chunkLen(s *models.Session, i int) int64 {
	rest := s.TotalSize - int64(i-1)*u.chunkSize
	if rest < u.chunkSize {
		return rest
	}
	return u.chunkSize
}

// failed updates the session after a rejected chunk. An aborted upload
// moves to the next attempt; a storage failure discards the session since
// the server dropped every chunk.
func (u *Uploader) failed(ctx context.Context, s *models.Session, i int, err error) error {
	switch {
	case errors.Is(err, common.ErrTooBig):
		s.Attempt++
		s.Identifier = Identifier(s.TotalSize, s.Filename, s.Attempt)
		s.ChunksDone = 0
		if serr := u.sessions.Save(ctx, s); serr != nil {
			u.logger.Warn(ctx, "cannot advance session", "error", serr)
		}
	case errors.Is(err, common.ErrStorageFailure):
		if derr := u.sessions.Delete(ctx, s.Identifier); derr != nil {
			u.logger.Warn(ctx, "cannot drop session", "error", derr)
		}
	}
	return fmt.Errorf("chunk %d: %w", i, err)
}
