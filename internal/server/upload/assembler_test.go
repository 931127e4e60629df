package upload

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/dmitrijs2005/gophdrop/internal/server/chunkstore"
)

// -------- test fakes --------

type fakeStorage struct {
	mu     sync.Mutex
	files  map[string]string
	refuse bool
	err    error
	calls  int
}

func (f *fakeStorage) Store(ctx context.Context, folder, filename string, r io.Reader, overwrite bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if f.refuse {
		return false, nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return false, err
	}
	if f.files == nil {
		f.files = map[string]string{}
	}
	f.files[folder+"/"+filename] = string(b)
	return true, nil
}

type landed struct{ folder, filename string }

type fakeEvents struct {
	mu     sync.Mutex
	events []landed
	err    error
}

func (f *fakeEvents) Enqueue(ctx context.Context, folder, filename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, landed{folder, filename})
	return f.err
}

// -------- helpers --------

func newTestAssembler(t *testing.T, max int64) (*Assembler, chunkstore.ChunkStore, *fakeStorage, *fakeEvents) {
	t.Helper()
	cs, err := chunkstore.NewFSStore(t.TempDir())
	require.NoError(t, err)
	st := &fakeStorage{}
	ev := &fakeEvents{}
	return NewAssembler(cs, st, ev, logging.Discard(), max, false), cs, st, ev
}

func chunk(id string, index, total int, totalSize int64, data string) Chunk {
	return Chunk{
		Identifier:  id,
		Filename:    "report.txt",
		Index:       index,
		TotalChunks: total,
		TotalSize:   totalSize,
		Destination: "docs/",
		HomeDir:     "/home/bob",
		Size:        int64(len(data)),
		Data:        strings.NewReader(data),
	}
}

var (
	part1 = strings.Repeat("a", 10)
	part2 = strings.Repeat("b", 10)
	part3 = strings.Repeat("c", 5)
)

func stagedBlobs(t *testing.T, cs chunkstore.ChunkStore) []chunkstore.BlobInfo {
	t.Helper()
	blobs, err := cs.FindAll(context.Background(), "")
	require.NoError(t, err)
	return blobs
}

// -------- tests --------

func TestIngest_ThreeChunksInOrder(t *testing.T) {
	a, cs, st, ev := newTestAssembler(t, 1000)
	ctx := context.Background()

	res, err := a.Ingest(ctx, chunk("abc", 1, 3, 25, part1))
	require.NoError(t, err)
	assert.Equal(t, ResultChunkAccepted, res)

	res, err = a.Ingest(ctx, chunk("abc", 2, 3, 25, part2))
	require.NoError(t, err)
	assert.Equal(t, ResultChunkAccepted, res)

	res, err = a.Ingest(ctx, chunk("abc", 3, 3, 25, part3))
	require.NoError(t, err)
	assert.Equal(t, ResultStored, res)

	assert.Equal(t, part1+part2+part3, st.files["/home/bob/docs/report.txt"])
	assert.Equal(t, []landed{{"/home/bob/docs", "report.txt"}}, ev.events)
	assert.Empty(t, stagedBlobs(t, cs), "staging area must be empty after assembly")
}

func TestIngest_OutOfOrderAssemblesByIndex(t *testing.T) {
	orders := [][]int{{3, 1, 2}, {2, 3, 1}, {3, 2, 1}}
	parts := map[int]string{1: part1, 2: part2, 3: part3}

	for _, order := range orders {
		a, _, st, _ := newTestAssembler(t, 1000)
		ctx := context.Background()

		var last Result
		for _, i := range order {
			res, err := a.Ingest(ctx, chunk("ooo", i, 3, 25, parts[i]))
			require.NoError(t, err)
			last = res
		}

		assert.Equal(t, ResultStored, last, "order %v", order)
		assert.Equal(t, part1+part2+part3, st.files["/home/bob/docs/report.txt"], "order %v", order)
	}
}

func TestIngest_ResentChunkInflatesStagedTotal(t *testing.T) {
	a, cs, st, _ := newTestAssembler(t, 1000)
	ctx := context.Background()

	res, err := a.Ingest(ctx, chunk("dup", 1, 3, 25, part1))
	require.NoError(t, err)
	assert.Equal(t, ResultChunkAccepted, res)

	res, err = a.Ingest(ctx, chunk("dup", 1, 3, 25, part1))
	require.NoError(t, err)
	assert.Equal(t, ResultChunkAccepted, res)
	assert.Equal(t, int64(20), chunkstore.TotalSize(stagedBlobs(t, cs)), "the re-sent chunk counts again")

	// 30 staged bytes >= 25 declared, but index 3 was never sent
	_, err = a.Ingest(ctx, chunk("dup", 2, 3, 25, part2))
	require.ErrorIs(t, err, common.ErrMissingChunk)
	assert.Zero(t, st.calls)
	assert.Len(t, stagedBlobs(t, cs), 3, "chunks survive a failed assembly")

	res, err = a.Ingest(ctx, chunk("dup", 3, 3, 25, part3))
	require.NoError(t, err)
	assert.Equal(t, ResultStored, res)
	assert.Equal(t, part1+part2+part3, st.files["/home/bob/docs/report.txt"])
}

func TestIngest_NewestCopyWins(t *testing.T) {
	a, _, st, _ := newTestAssembler(t, 1000)
	ctx := context.Background()

	_, err := a.Ingest(ctx, chunk("fix", 1, 2, 100, "old-data--"))
	require.NoError(t, err)
	_, err = a.Ingest(ctx, chunk("fix", 1, 2, 100, "new-data--"))
	require.NoError(t, err)

	c := chunk("fix", 2, 2, 25, part3)
	res, err := a.Ingest(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, ResultStored, res)
	assert.Equal(t, "new-data--"+part3, st.files["/home/bob/docs/report.txt"])
}

func TestIngest_TooBigSetsTrap(t *testing.T) {
	a, cs, _, _ := newTestAssembler(t, 15)
	ctx := context.Background()

	_, err := a.Ingest(ctx, chunk("big", 1, 3, 25, part1))
	require.NoError(t, err)

	_, err = a.Ingest(ctx, chunk("big", 2, 3, 25, part2))
	require.ErrorIs(t, err, common.ErrTooBig)

	blobs := stagedBlobs(t, cs)
	require.Len(t, blobs, 1)
	assert.Equal(t, trapName("big"), blobs[0].Name)

	_, err = a.Ingest(ctx, chunk("big", 3, 3, 25, part3))
	assert.ErrorIs(t, err, common.ErrTooBig)

	_, err = a.Probe(ctx, "big", "report.txt", 1)
	assert.ErrorIs(t, err, common.ErrTooBig)

	// a fresh identifier is not affected
	res, err := a.Ingest(ctx, chunk("fresh", 1, 3, 25, part1))
	require.NoError(t, err)
	assert.Equal(t, ResultChunkAccepted, res)
}

func TestIngest_BadFile(t *testing.T) {
	a, _, _, _ := newTestAssembler(t, 8)
	ctx := context.Background()

	tests := []struct {
		name string
		mod  func(c *Chunk)
	}{
		{name: "no data", mod: func(c *Chunk) { c.Data = nil }},
		{name: "declared size over limit", mod: func(c *Chunk) { c.Size = 9 }},
		{name: "empty identifier", mod: func(c *Chunk) { c.Identifier = "!!!" }},
		{name: "zero index", mod: func(c *Chunk) { c.Index = 0 }},
		{name: "no filename", mod: func(c *Chunk) { c.Filename = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := chunk("bad", 1, 1, 4, "abcd")
			tt.mod(&c)
			_, err := a.Ingest(ctx, c)
			assert.ErrorIs(t, err, common.ErrBadFile)
		})
	}
}

func TestIngest_DestinationMustStayInHome(t *testing.T) {
	a, cs, st, ev := newTestAssembler(t, 1000)
	ctx := context.Background()

	tests := []struct {
		name, home, dest string
		ok               bool
	}{
		{name: "sibling home", home: "/home/bob", dest: "../alice", ok: false},
		{name: "climbs to root", home: "/home/bob", dest: "docs/../../../etc", ok: false},
		{name: "dot dot inside home", home: "/home/bob", dest: "docs/../inbox", ok: true},
		{name: "home itself", home: "/home/bob", dest: ".", ok: true},
		{name: "root home", home: "/", dest: "../anything", ok: true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := chunk("esc"+strconv.Itoa(i), 1, 1, 10, part1)
			c.HomeDir, c.Destination = tt.home, tt.dest

			res, err := a.Ingest(ctx, c)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, ResultStored, res)
				return
			}
			assert.ErrorIs(t, err, common.ErrBadFile)
		})
	}

	assert.NotContains(t, st.files, "/home/alice/report.txt")
	assert.NotContains(t, st.files, "/etc/report.txt")
	assert.Equal(t, []landed{
		{"/home/bob/inbox", "report.txt"},
		{"/home/bob", "report.txt"},
		{"/anything", "report.txt"},
	}, ev.events)
	assert.Empty(t, stagedBlobs(t, cs), "rejected chunks are never staged")
}

func TestIngest_LongNonLatinFilename(t *testing.T) {
	a, _, st, _ := newTestAssembler(t, 1000)
	ctx := context.Background()

	name := strings.Repeat("ж", 100) + ".pdf"
	id := "25-" + name

	for i, p := range []string{part1, part2, part3} {
		c := chunk(id, i+1, 3, 25, p)
		c.Filename = name
		res, err := a.Ingest(ctx, c)
		require.NoError(t, err)
		if i < 2 {
			assert.Equal(t, ResultChunkAccepted, res)
			continue
		}
		assert.Equal(t, ResultStored, res)
	}
	assert.Equal(t, part1+part2+part3, st.files["/home/bob/docs/"+name])

	ok, err := a.Probe(ctx, id, name, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlobNames(t *testing.T) {
	long := strings.Repeat("x", 500)
	assert.Less(t, len(stagedName(long, long, 12345)), 160)
	assert.True(t, strings.HasPrefix(chunkName("a", "f", 1), chunkPrefix("a")))
	assert.False(t, strings.HasPrefix(chunkName("ab", "f", 1), chunkPrefix("a")))
	assert.NotEqual(t, chunkName("a", "f", 1), chunkName("a", "g", 1))
	assert.True(t, strings.HasPrefix(trapName("a"), "trap_"))
}

func TestIngest_StoreFailureStillCleansUp(t *testing.T) {
	a, cs, st, ev := newTestAssembler(t, 1000)
	st.err = errors.New("disk full")
	ctx := context.Background()

	res, err := a.Ingest(ctx, chunk("sf", 1, 1, 10, part1))
	require.ErrorIs(t, err, common.ErrStorageFailure)
	assert.Equal(t, ResultStoreFailed, res)
	assert.Empty(t, stagedBlobs(t, cs))
	assert.Empty(t, ev.events)
}

func TestIngest_ExistingFileNotOverwritten(t *testing.T) {
	a, cs, st, ev := newTestAssembler(t, 1000)
	st.refuse = true

	res, err := a.Ingest(context.Background(), chunk("ex", 1, 1, 10, part1))
	require.ErrorIs(t, err, common.ErrStorageFailure)
	assert.Equal(t, ResultStoreFailed, res)
	assert.Empty(t, stagedBlobs(t, cs))
	assert.Empty(t, ev.events)
}

func TestIngest_NotificationFailureDoesNotFailUpload(t *testing.T) {
	a, _, _, ev := newTestAssembler(t, 1000)
	ev.err = errors.New("queue locked")

	res, err := a.Ingest(context.Background(), chunk("nf", 1, 1, 10, part1))
	require.NoError(t, err)
	assert.Equal(t, ResultStored, res)
	assert.Len(t, ev.events, 1)
}

func TestIngest_ConcurrentFinalChunksStoreOnce(t *testing.T) {
	a, _, st, _ := newTestAssembler(t, 1000)
	ctx := context.Background()

	_, err := a.Ingest(ctx, chunk("race", 1, 2, 20, part1))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Result, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := a.Ingest(ctx, chunk("race", 2, 2, 20, part2))
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	stored := 0
	for _, r := range results {
		if r == ResultStored {
			stored++
		}
	}
	assert.Equal(t, 1, stored)
	assert.Equal(t, 1, st.calls)
}

func TestProbe(t *testing.T) {
	a, _, _, _ := newTestAssembler(t, 1000)
	ctx := context.Background()

	ok, err := a.Probe(ctx, "pr", "report.txt", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = a.Ingest(ctx, chunk("pr", 1, 3, 25, part1))
	require.NoError(t, err)

	ok, err = a.Probe(ctx, "p-r", "report.txt", 1)
	require.NoError(t, err)
	assert.True(t, ok, "identifier is sanitised before lookup")

	ok, err = a.Probe(ctx, "pr", "report.txt", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = a.Probe(ctx, "", "report.txt", 1)
	assert.ErrorIs(t, err, common.ErrBadFile)
}

func TestSanitizeIdentifier(t *testing.T) {
	assert.Equal(t, "abc_123", SanitizeIdentifier("abc_123"))
	assert.Equal(t, "25reporttxt", SanitizeIdentifier("25-report.txt"))
	assert.Equal(t, "", SanitizeIdentifier("../"))
}

func TestResult_String(t *testing.T) {
	assert.Equal(t, "Uploaded", ResultChunkAccepted.String())
	assert.Equal(t, "Stored", ResultStored.String())
	assert.Equal(t, "Error storing file", ResultStoreFailed.String())
}
