package repo

import (
	"context"

	"github.com/BuzzLyutic/task-cli/internal/model"
)

// Backend определяет интерфейс хранилища: коллекция загружается и сохраняется целиком.
type Backend interface {
	// Load returns the persisted records in display order. A backend with no
	// persisted state returns an empty slice and no error.
	Load(ctx context.Context) ([]model.Record, error)
	// Save overwrites the persisted state with records.
	Save(ctx context.Context, records []model.Record) error
	// Remove drops the persisted state so that nothing is left behind.
	Remove(ctx context.Context) error
}
