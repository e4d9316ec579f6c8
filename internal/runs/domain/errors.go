package domain

import "errors"

var (
	ErrRunNotFound = errors.New("analysis run not found")
	ErrUnknownKind = errors.New("unknown analysis kind")
	ErrCacheMiss   = errors.New("analysis result not cached")
)
