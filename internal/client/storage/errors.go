package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrNotFound документ с таким id отсутствует в локальном хранилище
	ErrNotFound = errors.New("document not found")

	// ErrConflict ревизия записываемого документа не совпадает с текущей
	ErrConflict = errors.New("document update conflict")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
