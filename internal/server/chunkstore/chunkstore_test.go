package chunkstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophdrop/internal/common"
)

func stores(t *testing.T) map[string]ChunkStore {
	t.Helper()

	fsStore, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	badgerStore, err := OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = badgerStore.Close() })

	return map[string]ChunkStore{
		"fs":     fsStore,
		"badger": badgerStore,
	}
}

func readAll(t *testing.T, s ChunkStore, name string) string {
	t.Helper()
	rc, err := s.ReadStream(context.Background(), name)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestChunkStore_Contract(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ok, err := s.Exists(ctx, "multipart_abc.report.pdf.part1")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Write(ctx, "multipart_abc.report.pdf.part1", strings.NewReader("0123456789"), false))
			require.NoError(t, s.Write(ctx, "multipart_abc.report.pdf.part2", strings.NewReader("abcde"), false))
			require.NoError(t, s.Write(ctx, "multipart_abcd.other.part1", strings.NewReader("zz"), false))

			ok, err = s.Exists(ctx, "multipart_abc.report.pdf.part1")
			require.NoError(t, err)
			assert.True(t, ok)

			blobs, err := s.FindAll(ctx, "multipart_abc.")
			require.NoError(t, err)
			require.Len(t, blobs, 2)
			assert.Equal(t, int64(15), TotalSize(blobs))
			assert.Equal(t, "multipart_abc.report.pdf.part1", blobs[0].Name)
			assert.False(t, blobs[0].ModTime.IsZero())

			assert.Equal(t, "0123456789", readAll(t, s, "multipart_abc.report.pdf.part1"))

			require.NoError(t, s.Write(ctx, "multipart_abc.report.pdf.part1", strings.NewReader("xy"), false))
			assert.Equal(t, "xy", readAll(t, s, "multipart_abc.report.pdf.part1"))

			require.NoError(t, s.Remove(ctx, "multipart_abc.report.pdf.part1"))
			err = s.Remove(ctx, "multipart_abc.report.pdf.part1")
			assert.ErrorIs(t, err, common.ErrorNotFound)

			_, err = s.ReadStream(ctx, "missing")
			assert.ErrorIs(t, err, common.ErrorNotFound)
		})
	}
}

func TestChunkStore_Append(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Write(ctx, "assembled_x", strings.NewReader("one-"), true))
			require.NoError(t, s.Write(ctx, "assembled_x", strings.NewReader("two-"), true))
			require.NoError(t, s.Write(ctx, "assembled_x", strings.NewReader("three"), true))

			assert.Equal(t, "one-two-three", readAll(t, s, "assembled_x"))

			blobs, err := s.FindAll(ctx, "assembled_")
			require.NoError(t, err)
			require.Len(t, blobs, 1)
			assert.Equal(t, int64(len("one-two-three")), blobs[0].Size)
		})
	}
}

func TestFSStore_EscapesNames(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	name := "multipart_id.../../etc/passwd.part1"
	require.NoError(t, s.Write(ctx, name, strings.NewReader("x"), false))

	blobs, err := s.FindAll(ctx, "multipart_id.")
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, name, blobs[0].Name)

	_, err = s.ReadStream(ctx, "..")
	assert.Error(t, err)
}
