package repository

import "errors"

var (
	// ErrResultNotFound indicates no result has the requested ID
	ErrResultNotFound = errors.New("result not found")

	// ErrDuplicateResult indicates a result with the same ID already exists
	ErrDuplicateResult = errors.New("result already exists")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
