package store

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-cli/internal/model"
	"github.com/BuzzLyutic/task-cli/internal/repo"
)

var ErrStoreClosed = errors.New("task store is closed")

type Option func(*Store)

// WithClock подменяет источник текущего времени (хэши, фильтр today, статистика).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store owns the in-memory task collection for one session: it is filled
// once by Open and persisted once by Close. It is not safe for concurrent use.
type Store struct {
	backend repo.Backend
	logger  *zap.Logger
	now     func() time.Time

	tasks  []*model.Task
	index  map[string]*model.Task
	closed bool
}

// Open loads the whole collection from backend. Storage and record errors
// abort the load; no partially filled store is returned.
func Open(ctx context.Context, backend repo.Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend: backend,
		logger:  zap.NewNop(),
		now:     time.Now,
		index:   make(map[string]*model.Task),
	}
	for _, opt := range opts {
		opt(s)
	}

	records, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	s.tasks = make([]*model.Task, 0, len(records))
	for i, rec := range records {
		task, err := model.FromRecord(rec)
		if err != nil {
			var mre *model.MalformedRecordError
			if errors.As(err, &mre) {
				err = mre.AtIndex(i)
			}
			return nil, fmt.Errorf("load tasks: %w", err)
		}
		s.append(&task)
	}

	s.logger.Debug("task store opened", zap.Int("tasks", len(s.tasks)))
	return s, nil
}

// Session opens a store, runs fn and always closes the store afterwards,
// also when fn fails or panics.
func Session(ctx context.Context, backend repo.Backend, fn func(*Store) error, opts ...Option) (err error) {
	s, err := Open(ctx, backend, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close(ctx))
	}()

	return fn(s)
}

func (s *Store) Len() int {
	return len(s.tasks)
}

// Add creates a task with a fresh hash and appends it to the collection.
func (s *Store) Add(name string, deadline *time.Time, description *string) (model.Task, error) {
	if s.closed {
		return model.Task{}, ErrStoreClosed
	}
	if strings.TrimSpace(name) == "" {
		return model.Task{}, fmt.Errorf("%w: name is required", model.ErrValidation)
	}

	task := model.NewAt(name, deadline, description, s.now())
	s.append(&task)

	s.logger.Debug("task added", zap.String("hash", task.Hash))
	return task.Clone(), nil
}

func (s *Store) Get(hash string) (model.Task, bool, error) {
	if s.closed {
		return model.Task{}, false, ErrStoreClosed
	}
	task, ok := s.index[hash]
	if !ok {
		s.logger.Info("task not found", zap.String("hash", hash))
		return model.Task{}, false, nil
	}
	return task.Clone(), true, nil
}

// Update applies patch to the task with the given hash. An unknown hash
// reports found=false and changes nothing.
func (s *Store) Update(hash string, patch model.Patch) (model.Task, bool, error) {
	if s.closed {
		return model.Task{}, false, ErrStoreClosed
	}
	task, ok := s.index[hash]
	if !ok {
		s.logger.Info("task not found", zap.String("hash", hash))
		return model.Task{}, false, nil
	}

	task.Apply(patch)
	s.logger.Debug("task updated", zap.String("hash", hash))
	return task.Clone(), true, nil
}

func (s *Store) Delete(hash string) (bool, error) {
	if s.closed {
		return false, ErrStoreClosed
	}
	task, ok := s.index[hash]
	if !ok {
		s.logger.Info("task not found", zap.String("hash", hash))
		return false, nil
	}

	i := slices.Index(s.tasks, task)
	s.tasks = slices.Delete(s.tasks, i, i+1)
	delete(s.index, hash)
	// Если в файле был дубликат хэша, индекс переходит к следующему вхождению
	for _, t := range s.tasks {
		if t.Hash == hash {
			s.index[hash] = t
			break
		}
	}

	s.logger.Debug("task deleted", zap.String("hash", hash))
	return true, nil
}

// List returns a lazy sequence of the tasks selected by mode together with
// an Empty value that tells why nothing would be yielded. The sequence can be
// ranged over more than once; each pass yields copies.
func (s *Store) List(mode ListMode) (iter.Seq[model.Task], Empty, error) {
	if s.closed {
		return nil, NotEmpty, ErrStoreClosed
	}

	var match func(model.Task) bool
	switch mode {
	case ModeAll:
		match = func(model.Task) bool { return true }
	case ModeToday:
		today := s.now()
		match = func(t model.Task) bool { return t.DueOn(today) }
	default:
		return nil, NotEmpty, fmt.Errorf("unknown list mode %d", mode)
	}

	snapshot := slices.Clone(s.tasks)
	seq := func(yield func(model.Task) bool) {
		for _, t := range snapshot {
			if match(*t) && !yield(t.Clone()) {
				return
			}
		}
	}

	switch {
	case len(snapshot) == 0:
		return seq, NoTasks, nil
	case mode == ModeToday && !slices.ContainsFunc(snapshot, func(t *model.Task) bool { return match(*t) }):
		return seq, NoTasksToday, nil
	}
	return seq, NotEmpty, nil
}

// Stats summarizes the collection relative to the store clock.
func (s *Store) Stats() (Stats, error) {
	if s.closed {
		return Stats{}, ErrStoreClosed
	}

	now := s.now()
	stats := Stats{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if t.Deadline == nil {
			continue
		}
		stats.WithDeadline++
		if t.DueOn(now) {
			stats.DueToday++
		}
		if t.Deadline.Before(now) {
			stats.Overdue++
		}
	}
	return stats, nil
}

// Close persists the collection: a non-empty collection overwrites the
// backend, an empty one removes it. Close is the only persistence point; it
// is idempotent and the store is unusable afterwards.
func (s *Store) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	tasks := s.tasks
	s.tasks, s.index = nil, nil

	if len(tasks) == 0 {
		if err := s.backend.Remove(ctx); err != nil {
			return fmt.Errorf("remove tasks: %w", err)
		}
		s.logger.Debug("task store closed empty, storage removed")
		return nil
	}

	records := make([]model.Record, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, model.ToRecord(*t))
	}
	if err := s.backend.Save(ctx, records); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}

	s.logger.Debug("task store closed", zap.Int("tasks", len(records)))
	return nil
}

func (s *Store) append(task *model.Task) {
	s.tasks = append(s.tasks, task)
	if _, dup := s.index[task.Hash]; dup {
		s.logger.Warn("duplicate task hash", zap.String("hash", task.Hash))
		return
	}
	s.index[task.Hash] = task
}
