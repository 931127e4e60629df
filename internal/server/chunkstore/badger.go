package chunkstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/dmitrijs2005/gophdrop/internal/common"
)

var keyPrefix = []byte("blob/")

// headerLen is the size of the modification timestamp stored in front of
// every value.
const headerLen = 8

// BadgerStore keeps blobs in an embedded badger database. Blobs are held
// in memory while being written, so it suits deployments with a modest
// upload size limit.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a store in dir. An empty dir gives a
// purely in-memory store.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func blobKey(name string) []byte {
	return append(append([]byte{}, keyPrefix...), name...)
}

func encodeValue(modTime time.Time, data []byte) []byte {
	v := make([]byte, headerLen+len(data))
	binary.BigEndian.PutUint64(v, uint64(modTime.UnixNano()))
	copy(v[headerLen:], data)
	return v
}

func decodeHeader(v []byte) (time.Time, int64) {
	if len(v) < headerLen {
		return time.Time{}, 0
	}
	ts := int64(binary.BigEndian.Uint64(v[:headerLen]))
	return time.Unix(0, ts), int64(len(v) - headerLen)
}

func (s *BadgerStore) Exists(ctx context.Context, name string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(blobKey(name))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *BadgerStore) Write(ctx context.Context, name string, r io.Reader, appendMode bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := blobKey(name)

		if appendMode {
			item, err := txn.Get(key)
			switch {
			case err == nil:
				existing, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if len(existing) >= headerLen {
					data = append(existing[headerLen:], data...)
				}
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}
		}

		return txn.Set(key, encodeValue(time.Now(), data))
	})
}

func (s *BadgerStore) FindAll(ctx context.Context, prefix string) ([]BlobInfo, error) {
	var blobs []BlobInfo
	p := blobKey(prefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = p
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			name := string(bytes.TrimPrefix(item.KeyCopy(nil), keyPrefix))

			err := item.Value(func(v []byte) error {
				modTime, size := decodeHeader(v)
				blobs = append(blobs, BlobInfo{Name: name, Size: size, ModTime: modTime})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list chunk store: %w", err)
	}

	return blobs, nil
}

func (s *BadgerStore) ReadStream(ctx context.Context, name string) (io.ReadCloser, error) {
	var data []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(name))
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if len(v) >= headerLen {
			data = v[headerLen:]
		}
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", name, common.ErrorNotFound)
	}
	if err != nil {
		return nil, err
	}

	return bytesBlob{Reader: bytes.NewReader(data)}, nil
}

// bytesBlob keeps io.Seeker visible so storage backends can size the body.
type bytesBlob struct {
	*bytes.Reader
}

func (bytesBlob) Close() error { return nil }

func (s *BadgerStore) Remove(ctx context.Context, name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := blobKey(name)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%s: %w", name, common.ErrorNotFound)
			}
			return err
		}
		return txn.Delete(key)
	})
}
