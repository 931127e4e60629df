// Package upload implements the resumable chunked upload protocol:
// probing for staged chunks, ingesting chunks, detecting completion and
// assembling exactly one final file per upload identifier.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/dmitrijs2005/gophdrop/internal/pathx"
	"github.com/dmitrijs2005/gophdrop/internal/server/chunkstore"
	"github.com/dmitrijs2005/gophdrop/internal/server/storage"
)

// Result is the outcome of a successfully processed chunk.
type Result int

const (
	// ResultChunkAccepted means more chunks are expected.
	ResultChunkAccepted Result = iota
	// ResultStored means the file was assembled and persisted.
	ResultStored
	// ResultStoreFailed means the file was assembled but persistence failed.
	ResultStoreFailed
)

func (r Result) String() string {
	switch r {
	case ResultChunkAccepted:
		return "Uploaded"
	case ResultStored:
		return "Stored"
	case ResultStoreFailed:
		return "Error storing file"
	default:
		return "unknown"
	}
}

// Events receives a notice for every stored file.
type Events interface {
	Enqueue(ctx context.Context, folder, filename string) error
}

// Chunk is one ingest request.
type Chunk struct {
	Identifier  string
	Filename    string
	Index       int
	TotalChunks int
	TotalSize   int64
	// Destination is relative to HomeDir.
	Destination string
	HomeDir     string
	// Size is the declared size of Data.
	Size int64
	Data io.Reader
}

type Assembler struct {
	chunks        chunkstore.ChunkStore
	storage       storage.Storage
	events        Events
	logger        logging.Logger
	maxUploadSize int64
	overwrite     bool
	locks         *keyLock
}

func NewAssembler(cs chunkstore.ChunkStore, st storage.Storage, ev Events, l logging.Logger, maxUploadSize int64, overwrite bool) *Assembler {
	return &Assembler{
		chunks:        cs,
		storage:       st,
		events:        ev,
		logger:        l.With("module", "upload"),
		maxUploadSize: maxUploadSize,
		overwrite:     overwrite,
		locks:         newKeyLock(),
	}
}

// Probe reports whether the given chunk is already staged. It returns
// common.ErrTooBig for identifiers that tripped the size limit.
func (a *Assembler) Probe(ctx context.Context, identifier, filename string, index int) (bool, error) {
	id := SanitizeIdentifier(identifier)
	if id == "" {
		return false, common.ErrBadFile
	}

	trapped, err := a.chunks.Exists(ctx, trapName(id))
	if err != nil {
		return false, err
	}
	if trapped {
		return false, common.ErrTooBig
	}

	copies, err := a.chunks.FindAll(ctx, chunkName(id, filename, index))
	if err != nil {
		return false, err
	}
	return len(copies) > 0, nil
}

// Ingest stages one chunk and, when the staged bytes reach the declared
// total, assembles and stores the file.
//
// The staged total is the sum of every blob received for the identifier,
// so a chunk sent twice counts twice. Assembly uses the newest copy of
// each index.
//
// Rejections are returned as errors matching common.ErrBadFile or
// common.ErrTooBig. A storage failure yields ResultStoreFailed together
// with an error matching common.ErrStorageFailure.
func (a *Assembler) Ingest(ctx context.Context, c Chunk) (Result, error) {
	id := SanitizeIdentifier(c.Identifier)

	if c.Data == nil || id == "" || c.Filename == "" || c.Index < 1 || c.TotalChunks < 1 ||
		c.Size < 0 || c.Size > a.maxUploadSize {
		return ResultChunkAccepted, common.ErrBadFile
	}

	// the destination must stay inside the uploader's home
	if !pathx.IsWithin(pathx.Normalize(c.HomeDir, c.Destination), pathx.Clean(c.HomeDir)) {
		return ResultChunkAccepted, fmt.Errorf("%w: destination outside home", common.ErrBadFile)
	}

	log := a.logger.With("identifier", id, "filename", c.Filename, "chunk", c.Index)

	unlock := a.locks.Lock(id)
	defer unlock()

	trapped, err := a.chunks.Exists(ctx, trapName(id))
	if err != nil {
		return ResultChunkAccepted, fmt.Errorf("check trap: %w", err)
	}
	if trapped {
		return ResultChunkAccepted, common.ErrTooBig
	}

	// one byte over the limit is enough to trip the trap below
	data := io.LimitReader(c.Data, a.maxUploadSize+1)
	if err := a.chunks.Write(ctx, stagedName(id, c.Filename, c.Index), data, false); err != nil {
		return ResultChunkAccepted, fmt.Errorf("stage chunk: %w", err)
	}

	staged, err := a.chunks.FindAll(ctx, chunkPrefix(id))
	if err != nil {
		return ResultChunkAccepted, fmt.Errorf("list chunks: %w", err)
	}
	total := chunkstore.TotalSize(staged)

	if total > a.maxUploadSize {
		a.removeAll(ctx, log, staged)
		if err := a.chunks.Write(ctx, trapName(id), strings.NewReader(""), false); err != nil {
			log.Error(ctx, "cannot set error trap", "error", err)
		}
		log.Warn(ctx, "upload exceeds limit, aborted", "staged", total, "limit", a.maxUploadSize)
		return ResultChunkAccepted, common.ErrTooBig
	}

	if total < c.TotalSize {
		log.Debug(ctx, "chunk staged", "staged", total, "total", c.TotalSize)
		return ResultChunkAccepted, nil
	}

	return a.assemble(ctx, log, id, c)
}

func (a *Assembler) assemble(ctx context.Context, log logging.Logger, id string, c Chunk) (Result, error) {
	final := assembledName(id)
	defer func() {
		if err := a.chunks.Remove(ctx, final); err != nil && !errors.Is(err, common.ErrorNotFound) {
			log.Warn(ctx, "cannot remove assembled blob", "blob", final, "error", err)
		}
	}()

	for i := 1; i <= c.TotalChunks; i++ {
		if err := a.appendChunk(ctx, final, chunkName(id, c.Filename, i), i > 1); err != nil {
			// staged chunks are kept: a later chunk may complete the set
			log.Warn(ctx, "assembly failed", "missing", i, "error", err)
			return ResultChunkAccepted, err
		}
	}

	folder := pathx.Normalize(c.HomeDir, c.Destination)

	stored, storeErr := a.store(ctx, final, folder, c.Filename)

	if staged, err := a.chunks.FindAll(ctx, chunkPrefix(id)); err != nil {
		log.Error(ctx, "cannot list chunks for cleanup", "error", err)
	} else {
		a.removeAll(ctx, log, staged)
	}

	if storeErr != nil {
		log.Error(ctx, "store failed", "folder", folder, "error", storeErr)
		return ResultStoreFailed, fmt.Errorf("%w: %v", common.ErrStorageFailure, storeErr)
	}
	if !stored {
		log.Warn(ctx, "file exists, not overwritten", "folder", folder)
		return ResultStoreFailed, fmt.Errorf("%w: %s exists", common.ErrStorageFailure, c.Filename)
	}

	log.Info(ctx, "file stored", "folder", folder)

	if a.events != nil {
		if err := a.events.Enqueue(ctx, folder, c.Filename); err != nil {
			log.Error(ctx, "notification enqueue failed", "folder", folder, "error", err)
		}
	}

	return ResultStored, nil
}

func (a *Assembler) appendChunk(ctx context.Context, final, prefix string, appendMode bool) error {
	copies, err := a.chunks.FindAll(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list %s: %w", prefix, err)
	}
	if len(copies) == 0 {
		return fmt.Errorf("%w: %s", common.ErrMissingChunk, prefix)
	}
	part := copies[len(copies)-1].Name

	rc, err := a.chunks.ReadStream(ctx, part)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: %s", common.ErrMissingChunk, part)
		}
		return fmt.Errorf("read %s: %w", part, err)
	}
	defer rc.Close()

	if err := a.chunks.Write(ctx, final, rc, appendMode); err != nil {
		return fmt.Errorf("append %s: %w", part, err)
	}
	return nil
}

func (a *Assembler) store(ctx context.Context, final, folder, filename string) (bool, error) {
	rc, err := a.chunks.ReadStream(ctx, final)
	if err != nil {
		return false, err
	}
	defer rc.Close()

	return a.storage.Store(ctx, folder, filename, rc, a.overwrite)
}

func (a *Assembler) removeAll(ctx context.Context, log logging.Logger, blobs []chunkstore.BlobInfo) {
	for _, b := range blobs {
		if err := a.chunks.Remove(ctx, b.Name); err != nil && !errors.Is(err, common.ErrorNotFound) {
			log.Warn(ctx, "cannot remove chunk", "blob", b.Name, "error", err)
		}
	}
}
