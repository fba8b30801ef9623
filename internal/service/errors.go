package service

import "errors"

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrInvalidFilter    = errors.New("invalid filter")
	ErrFetch            = errors.New("upstream fetch failed")
	ErrKeyCollision     = errors.New("city and nation responses share a key")
	ErrStaleRequest     = errors.New("superseded by a newer request")
)
