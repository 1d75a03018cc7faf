package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-cli/internal/repo"
	"github.com/BuzzLyutic/task-cli/internal/store"
)

var handlerNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)

func setupHandler(t *testing.T) (*TaskHandler, *repo.FileBackend) {
	t.Helper()
	backend := repo.NewFileBackend(filepath.Join(t.TempDir(), "task_storage.json"), zap.NewNop())
	handler := NewTaskHandler(backend, zap.NewNop(), store.WithClock(func() time.Time { return handlerNow }))
	return handler, backend
}

func withHash(req *http.Request, hash string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("hash", hash)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func createTask(t *testing.T, handler *TaskHandler, body map[string]any) taskResponse {
	t.Helper()
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	handler.Create(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created taskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	return created
}

func TestTaskHandler_Create(t *testing.T) {
	handler, backend := setupHandler(t)

	tests := []struct {
		name          string
		body          any
		wantCode      int
		checkResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "successful creation",
			body: map[string]any{
				"name":        "Pay rent",
				"deadline":    "2024-05-01",
				"description": "Monthly rent",
			},
			wantCode: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var task taskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
				assert.Len(t, task.Hash, 32)
				assert.Equal(t, "Pay rent", task.Name)
				require.NotNil(t, task.Deadline)
				assert.Equal(t, "2024-05-01 00:00:00", *task.Deadline)
				assert.Equal(t, "/api/tasks/"+task.Hash, w.Header().Get("Location"))
			},
		},
		{
			name:     "name only",
			body:     map[string]any{"name": "Buy milk"},
			wantCode: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var task taskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
				assert.Nil(t, task.Deadline)
				assert.Nil(t, task.Description)
			},
		},
		{
			name:     "empty body",
			body:     nil,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing name",
			body:     map[string]any{"deadline": "2024-05-01"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "name too long",
			body:     map[string]any{"name": "this name is far too long for the column"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad deadline",
			body:     map[string]any{"name": "Pay rent", "deadline": "next friday"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown field",
			body:     map[string]any{"name": "Pay rent", "priority": 5},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			if tt.body != nil {
				body, _ = json.Marshal(tt.body)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			handler.Create(w, req)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())

			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}

	records, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2, "only successful creations are persisted")
}

func TestTaskHandler_Get(t *testing.T) {
	handler, _ := setupHandler(t)
	created := createTask(t, handler, map[string]any{"name": "Get Test"})

	t.Run("get existing task", func(t *testing.T) {
		req := withHash(httptest.NewRequest(http.MethodGet, "/api/tasks/"+created.Hash, nil), created.Hash)

		w := httptest.NewRecorder()
		handler.Get(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var task taskResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&task))
		assert.Equal(t, created, task)
	})

	t.Run("get non-existing task", func(t *testing.T) {
		req := withHash(httptest.NewRequest(http.MethodGet, "/api/tasks/nope", nil), "nope")

		w := httptest.NewRecorder()
		handler.Get(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), notFoundMessage)
	})
}

func TestTaskHandler_List(t *testing.T) {
	handler, _ := setupHandler(t)

	t.Run("empty store", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		w := httptest.NewRecorder()
		handler.List(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp listResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Empty(t, resp.Tasks)
		assert.Equal(t, "No tasks currently.", resp.Message)
	})

	createTask(t, handler, map[string]any{"name": "Today", "deadline": "2024-05-01T18:00"})
	createTask(t, handler, map[string]any{"name": "Tomorrow", "deadline": "2024-05-02"})
	createTask(t, handler, map[string]any{"name": "Someday"})

	t.Run("list all tasks", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks?mode=all", nil)
		w := httptest.NewRecorder()
		handler.List(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp listResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Tasks, 3)
		assert.Equal(t, "Today", resp.Tasks[0].Name)
		assert.Equal(t, "Someday", resp.Tasks[2].Name)
		assert.Empty(t, resp.Message)
	})

	t.Run("list today", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks?mode=today", nil)
		w := httptest.NewRecorder()
		handler.List(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp listResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Tasks, 1)
		assert.Equal(t, "Today", resp.Tasks[0].Name)
	})

	t.Run("unknown mode", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks?mode=week", nil)
		w := httptest.NewRecorder()
		handler.List(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskHandler_Update(t *testing.T) {
	handler, _ := setupHandler(t)
	created := createTask(t, handler, map[string]any{
		"name":        "Original",
		"deadline":    "2024-05-01",
		"description": "Keep me",
	})

	patch := func(t *testing.T, hash string, body map[string]any) *httptest.ResponseRecorder {
		t.Helper()
		data, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/tasks/%s", hash), bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		req = withHash(req, hash)

		w := httptest.NewRecorder()
		handler.Update(w, req)
		return w
	}

	t.Run("successful update", func(t *testing.T) {
		w := patch(t, created.Hash, map[string]any{"name": "Updated"})

		assert.Equal(t, http.StatusOK, w.Code)

		var updated taskResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
		assert.Equal(t, created.Hash, updated.Hash, "hash is stable across updates")
		assert.Equal(t, "Updated", updated.Name)
		assert.Equal(t, created.Deadline, updated.Deadline)
		assert.Equal(t, created.Description, updated.Description)
	})

	t.Run("clear fields", func(t *testing.T) {
		w := patch(t, created.Hash, map[string]any{"clear_deadline": true, "clear_description": true})

		assert.Equal(t, http.StatusOK, w.Code)

		var updated taskResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
		assert.Nil(t, updated.Deadline)
		assert.Nil(t, updated.Description)
	})

	t.Run("bad deadline", func(t *testing.T) {
		w := patch(t, created.Hash, map[string]any{"deadline": "31/12/2024"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown hash", func(t *testing.T) {
		w := patch(t, "nope", map[string]any{"name": "Ghost"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTaskHandler_Delete(t *testing.T) {
	handler, backend := setupHandler(t)
	created := createTask(t, handler, map[string]any{"name": "To Delete"})

	t.Run("successful delete", func(t *testing.T) {
		req := withHash(httptest.NewRequest(http.MethodDelete, "/api/tasks/"+created.Hash, nil), created.Hash)

		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)

		// последняя задача удалена - файл хранилища тоже
		_, err := os.Stat(backend.Path())
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("delete non-existing", func(t *testing.T) {
		req := withHash(httptest.NewRequest(http.MethodDelete, "/api/tasks/"+created.Hash, nil), created.Hash)

		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTaskHandler_Stats(t *testing.T) {
	handler, _ := setupHandler(t)

	createTask(t, handler, map[string]any{"name": "Overdue", "deadline": "2024-04-01"})
	createTask(t, handler, map[string]any{"name": "Today", "deadline": "2024-05-01T20:00"})
	createTask(t, handler, map[string]any{"name": "No deadline"})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	handler.Stats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats store.Stats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, store.Stats{Total: 3, WithDeadline: 2, DueToday: 1, Overdue: 1}, stats)
}

func TestTaskHandler_CorruptStorage(t *testing.T) {
	handler, backend := setupHandler(t)
	require.NoError(t, os.WriteFile(backend.Path(), []byte(`{"not":"an array"}`), 0600))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "task storage is damaged")
}

func TestRouter(t *testing.T) {
	handler, _ := setupHandler(t)
	srv := httptest.NewServer(NewRouter(handler, zap.NewNop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/tasks", "application/json", bytes.NewReader([]byte(`{"name":"Via router"}`)))
	require.NoError(t, err)
	var created taskResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/tasks/" + created.Hash)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
