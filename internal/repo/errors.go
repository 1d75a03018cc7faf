package repo

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaMissing = errors.New("tasks table does not exist")
	ErrNotArray      = errors.New("content is not a JSON array")
)

// StorageCorruptError - хранилище существует, но его содержимое не является массивом записей.
type StorageCorruptError struct {
	Path string
	Err  error
}

func (e *StorageCorruptError) Error() string {
	return fmt.Sprintf("storage %s is corrupt: %v", e.Path, e.Err)
}

func (e *StorageCorruptError) Unwrap() error {
	return e.Err
}
