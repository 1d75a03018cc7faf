package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-cli/internal/model"
)

// FileBackend хранит коллекцию задач одним JSON-массивом в файле.
// Файл читается и пишется целиком, без переименования и блокировок.
type FileBackend struct {
	path   string
	logger *zap.Logger
}

func NewFileBackend(path string, logger *zap.Logger) *FileBackend {
	return &FileBackend{
		path:   path,
		logger: logger,
	}
}

func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Load(ctx context.Context) ([]model.Record, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) { // Отсутствие файла - это пустое хранилище, а не ошибка
			b.logger.Debug("storage file not found, starting empty", zap.String("path", b.path))
			return []model.Record{}, nil
		}
		return nil, fmt.Errorf("read storage file: %w", err)
	}

	records, err := decodeRecords(b.path, data)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("storage file loaded", zap.String("path", b.path), zap.Int("records", len(records)))
	return records, nil
}

func (b *FileBackend) Save(ctx context.Context, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0700); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	f, err := os.Create(b.path)
	if err != nil {
		return fmt.Errorf("open storage file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close storage file: %w", err)
	}

	b.logger.Debug("storage file saved", zap.String("path", b.path), zap.Int("records", len(records)))
	return nil
}

func (b *FileBackend) Remove(ctx context.Context) error {
	err := os.Remove(b.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove storage file: %w", err)
	}
	b.logger.Debug("storage file removed", zap.String("path", b.path))
	return nil
}

func decodeRecords(path string, data []byte) ([]model.Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			err = ErrNotArray
		}
		return nil, &StorageCorruptError{Path: path, Err: err}
	}
	if raw == nil { // литерал null
		return nil, &StorageCorruptError{Path: path, Err: ErrNotArray}
	}

	records := make([]model.Record, 0, len(raw))
	for i, msg := range raw {
		var rec model.Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			var mre *model.MalformedRecordError
			if errors.As(err, &mre) {
				return nil, mre.AtIndex(i)
			}
			return nil, &model.MalformedRecordError{Index: i, Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}
