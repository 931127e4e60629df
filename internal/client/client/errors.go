package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNoPending    = errors.New("nothing pending for folder")
	ErrNotSent      = errors.New("notification not sent")
)
