package handler

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-cli/internal/model"
	"github.com/BuzzLyutic/task-cli/internal/repo"
	"github.com/BuzzLyutic/task-cli/internal/store"
	"github.com/BuzzLyutic/task-cli/pkg/respond"
)

const notFoundMessage = "Task with given hash not found."

var errNotFound = errors.New("task not found")

type taskResponse struct {
	Hash        string  `json:"hash"`
	Name        string  `json:"name"`
	Deadline    *string `json:"deadline"`
	Description *string `json:"description"`
}

type listResponse struct {
	Tasks   []taskResponse `json:"tasks"`
	Message string         `json:"message,omitempty"`
}

type createRequest struct {
	Name        string  `json:"name"`
	Deadline    *string `json:"deadline"`
	Description *string `json:"description"`
}

type updateRequest struct {
	Name             *string `json:"name"`
	Deadline         *string `json:"deadline"`
	Description      *string `json:"description"`
	ClearDeadline    bool    `json:"clear_deadline"`
	ClearDescription bool    `json:"clear_description"`
}

// TaskHandler serves the task API. Every request runs one full store
// session; requests are serialized so only one store exists at a time.
type TaskHandler struct {
	mu      sync.Mutex
	backend repo.Backend
	logger  *zap.Logger
	opts    []store.Option
}

func NewTaskHandler(backend repo.Backend, logger *zap.Logger, opts ...store.Option) *TaskHandler {
	return &TaskHandler{
		backend: backend,
		logger:  logger,
		opts:    append([]store.Option{store.WithLogger(logger)}, opts...),
	}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.Decode(r, &req); err != nil {
		h.logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := model.ValidateName(req.Name); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	var task model.Task
	err = h.session(r, func(s *store.Store) error {
		var err error
		task, err = s.Add(req.Name, deadline, nonEmpty(req.Description))
		return err
	})
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%s", task.Hash))
	respond.JSON(w, r, http.StatusCreated, toResponse(task))
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	var task model.Task
	err := h.session(r, func(s *store.Store) error {
		var (
			found bool
			err   error
		)
		task, found, err = s.Get(hash)
		if err == nil && !found {
			err = errNotFound
		}
		return err
	})
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, toResponse(task))
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	mode, err := store.ParseListMode(r.URL.Query().Get("mode"))
	if err != nil {
		h.handleErrors(w, r, fmt.Errorf("%w: %w", model.ErrValidation, err))
		return
	}

	resp := listResponse{Tasks: []taskResponse{}}
	err = h.session(r, func(s *store.Store) error {
		tasks, empty, err := s.List(mode)
		if err != nil {
			return err
		}
		for task := range tasks {
			resp.Tasks = append(resp.Tasks, toResponse(task))
		}
		resp.Message = empty.String()
		return nil
	})
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, resp)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	var req updateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	patch := model.Patch{
		Name:             req.Name,
		Description:      req.Description,
		ClearDeadline:    req.ClearDeadline,
		ClearDescription: req.ClearDescription,
	}
	if req.Name != nil && *req.Name != "" {
		if err := model.ValidateName(*req.Name); err != nil {
			h.handleErrors(w, r, err)
			return
		}
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	patch.Deadline = deadline

	var task model.Task
	err = h.session(r, func(s *store.Store) error {
		var (
			found bool
			err   error
		)
		task, found, err = s.Update(hash, patch)
		if err == nil && !found {
			err = errNotFound
		}
		return err
	})
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponse(task))
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	err := h.session(r, func(s *store.Store) error {
		found, err := s.Delete(hash)
		if err == nil && !found {
			err = errNotFound
		}
		return err
	})
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	respond.NoContent(w, r)
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var stats store.Stats
	err := h.session(r, func(s *store.Store) error {
		var err error
		stats, err = s.Stats()
		return err
	})
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, stats)
}

func (h *TaskHandler) session(r *http.Request, fn func(*store.Store) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return store.Session(r.Context(), h.backend, fn, h.opts...)
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	var (
		malformed *model.MalformedRecordError
		corrupt   *repo.StorageCorruptError
	)
	switch {
	case errors.Is(err, errNotFound):
		respond.Error(w, r, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, model.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &malformed), errors.As(err, &corrupt):
		h.logger.Error("task storage is damaged", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "task storage is damaged")
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}

func toResponse(t model.Task) taskResponse {
	rec := model.ToRecord(t)
	resp := taskResponse{
		Hash:        rec.Hash,
		Name:        rec.Name,
		Description: rec.Description,
	}
	if t.Deadline != nil {
		resp.Deadline = &rec.Deadline
	}
	return resp
}

func parseDeadline(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := model.ParseDeadline(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
