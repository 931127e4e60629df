//go:build !unix

package queue

import "errors"

// NewFileLocker is only available on unix systems; use ProcessLocker when
// all queue users live in one process.
func NewFileLocker(path string) (Locker, error) {
	return nil, errors.New("file lock is not supported on this platform")
}
