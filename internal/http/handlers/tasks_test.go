package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bscott89/taskhub/internal/domain/task"
	"github.com/bscott89/taskhub/internal/domain/user"
	"github.com/bscott89/taskhub/internal/http/handlers"
)

// Fake implementation of the handlers.TasksStore interface

type fakeTasksStore struct {
	createFn func(ctx context.Context, authorID string, req task.CreateTaskRequest) (task.Task, error)
	getFn    func(ctx context.Context, authorID, id string) (task.Task, error)
	listFn   func(ctx context.Context, authorID string, filter task.ListFilter) ([]task.Task, error)
	updateFn func(ctx context.Context, authorID, id string, req task.UpdateTaskRequest) (task.Task, error)
	deleteFn func(ctx context.Context, authorID, id string) (task.Task, error)
}

func (f *fakeTasksStore) Create(ctx context.Context, authorID string, req task.CreateTaskRequest) (task.Task, error) {
	if f.createFn != nil {
		return f.createFn(ctx, authorID, req)
	}
	return task.Task{}, nil
}

func (f *fakeTasksStore) GetByID(ctx context.Context, authorID, id string) (task.Task, error) {
	if f.getFn != nil {
		return f.getFn(ctx, authorID, id)
	}
	return task.Task{}, task.ErrNotFound
}

func (f *fakeTasksStore) List(ctx context.Context, authorID string, filter task.ListFilter) ([]task.Task, error) {
	if f.listFn != nil {
		return f.listFn(ctx, authorID, filter)
	}
	return []task.Task{}, nil
}

func (f *fakeTasksStore) Update(ctx context.Context, authorID, id string, req task.UpdateTaskRequest) (task.Task, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, authorID, id, req)
	}
	return task.Task{}, task.ErrNotFound
}

func (f *fakeTasksStore) Delete(ctx context.Context, authorID, id string) (task.Task, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, authorID, id)
	}
	return task.Task{}, task.ErrNotFound
}

// ----- Create -----

func TestCreateTaskHandler(t *testing.T) {
	now := time.Now().UTC()
	principal := user.User{ID: newUUID(), Name: "Ada", Email: "ada@example.com"}

	tests := []struct {
		name           string
		body           string
		storeSetup     func(*fakeTasksStore)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"description": "buy milk"}`,
			storeSetup: func(f *fakeTasksStore) {
				f.createFn = func(ctx context.Context, authorID string, req task.CreateTaskRequest) (task.Task, error) {
					if authorID != principal.ID {
						return task.Task{}, errors.New("owner must come from the principal")
					}
					return task.Task{
						ID:          newUUID(),
						Description: req.Description,
						Completed:   req.Completed,
						AuthorID:    authorID,
						CreatedAt:   now,
						UpdatedAt:   now,
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "validation_error",
			body:           `{"completed": true}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "store_error",
			body: `{"description": "buy milk"}`,
			storeSetup: func(f *fakeTasksStore) {
				f.createFn = func(ctx context.Context, authorID string, req task.CreateTaskRequest) (task.Task, error) {
					return task.Task{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeTasksStore{}
			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewTasksHandler(store)
			r := setupAuthedRouter(http.MethodPost, "/tasks", principal, "tok", h.CreateTask)

			req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// ----- List -----

func TestListTasksHandler(t *testing.T) {
	now := time.Now().UTC()
	principal := user.User{ID: newUUID(), Name: "Ada", Email: "ada@example.com"}

	tests := []struct {
		name           string
		url            string
		storeSetup     func(*fakeTasksStore)
		wantStatusCode int
		wantCount      int
	}{
		{
			name: "success_no_filters",
			url:  "/tasks",
			storeSetup: func(f *fakeTasksStore) {
				f.listFn = func(ctx context.Context, authorID string, filter task.ListFilter) ([]task.Task, error) {
					if authorID != principal.ID {
						return nil, errors.New("scope must be the principal")
					}
					return []task.Task{
						{ID: "t1", Description: "one", AuthorID: authorID, CreatedAt: now, UpdatedAt: now},
						{ID: "t2", Description: "two", AuthorID: authorID, CreatedAt: now, UpdatedAt: now},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      2,
		},
		{
			name: "completed_filter_passed_through",
			url:  "/tasks?completed=true",
			storeSetup: func(f *fakeTasksStore) {
				f.listFn = func(ctx context.Context, authorID string, filter task.ListFilter) ([]task.Task, error) {
					if filter.Completed == nil || !*filter.Completed {
						return nil, errors.New("completed filter not passed")
					}
					return []task.Task{
						{ID: "t1", Description: "done", Completed: true, AuthorID: authorID},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      1,
		},
		{
			name: "pagination_and_sort_passed_through",
			url:  "/tasks?limit=5&skip=10&sortBy=createdAt_desc",
			storeSetup: func(f *fakeTasksStore) {
				f.listFn = func(ctx context.Context, authorID string, filter task.ListFilter) ([]task.Task, error) {
					if filter.Limit != 5 || filter.Skip != 10 {
						return nil, errors.New("pagination not passed")
					}
					if filter.SortField != "createdAt" || !filter.SortDesc {
						return nil, errors.New("sort not passed")
					}
					return []task.Task{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      0,
		},
		{
			name:           "invalid_completed",
			url:            "/tasks?completed=banana",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "negative_limit",
			url:            "/tasks?limit=-1",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_skip",
			url:            "/tasks?skip=ten",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_sort_token",
			url:            "/tasks?sortBy=createdAt",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unknown_sort_field",
			url:            "/tasks?sortBy=authorId_asc",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "store_error",
			url:  "/tasks",
			storeSetup: func(f *fakeTasksStore) {
				f.listFn = func(ctx context.Context, authorID string, filter task.ListFilter) ([]task.Task, error) {
					return nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeTasksStore{}
			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewTasksHandler(store)
			r := setupAuthedRouter(http.MethodGet, "/tasks", principal, "tok", h.ListTasks)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					Count int `json:"count"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Count != tt.wantCount {
					t.Fatalf("got count %d, want %d", resp.Count, tt.wantCount)
				}
			}
		})
	}
}

// ----- Get by ID -----

func TestGetTaskByIdHandler(t *testing.T) {
	now := time.Now().UTC()
	principal := user.User{ID: newUUID(), Name: "Ada", Email: "ada@example.com"}
	validID := newUUID()

	tests := []struct {
		name           string
		url            string
		storeSetup     func(*fakeTasksStore)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/tasks/" + validID,
			storeSetup: func(f *fakeTasksStore) {
				f.getFn = func(ctx context.Context, authorID, id string) (task.Task, error) {
					if authorID != principal.ID {
						return task.Task{}, errors.New("scope must be the principal")
					}
					return task.Task{
						ID:          id,
						Description: "buy milk",
						AuthorID:    authorID,
						CreatedAt:   now,
						UpdatedAt:   now,
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			url:  "/tasks/" + newUUID(),
			storeSetup: func(f *fakeTasksStore) {
				f.getFn = func(ctx context.Context, authorID, id string) (task.Task, error) {
					return task.Task{}, task.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			// someone else's task id resolves exactly like a missing one
			name: "foreign_task_looks_missing",
			url:  "/tasks/" + newUUID(),
			storeSetup: func(f *fakeTasksStore) {
				f.getFn = func(ctx context.Context, authorID, id string) (task.Task, error) {
					return task.Task{}, task.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "store_error",
			url:  "/tasks/" + validID,
			storeSetup: func(f *fakeTasksStore) {
				f.getFn = func(ctx context.Context, authorID, id string) (task.Task, error) {
					return task.Task{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeTasksStore{}
			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewTasksHandler(store)
			r := setupAuthedRouter(http.MethodGet, "/tasks/:id", principal, "tok", h.GetTaskById)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// ----- Update -----

func TestUpdateTaskHandler(t *testing.T) {
	principal := user.User{ID: newUUID(), Name: "Ada", Email: "ada@example.com"}
	validID := newUUID()

	tests := []struct {
		name           string
		url            string
		body           string
		storeSetup     func(*fakeTasksStore)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/tasks/" + validID,
			body: `{"completed": true}`,
			storeSetup: func(f *fakeTasksStore) {
				f.updateFn = func(ctx context.Context, authorID, id string, req task.UpdateTaskRequest) (task.Task, error) {
					if req.Completed == nil || !*req.Completed {
						return task.Task{}, errors.New("completed not passed")
					}
					if req.Description != nil {
						return task.Task{}, errors.New("description should stay nil")
					}
					return task.Task{ID: id, Completed: true, AuthorID: authorID}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "disallowed_field_rejects_whole_patch",
			url:            "/tasks/" + validID,
			body:           `{"completed": true, "authorId": "someone-else"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "not_found",
			url:  "/tasks/" + newUUID(),
			body: `{"completed": true}`,
			storeSetup: func(f *fakeTasksStore) {
				f.updateFn = func(ctx context.Context, authorID, id string, req task.UpdateTaskRequest) (task.Task, error) {
					return task.Task{}, task.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "malformed_body",
			url:            "/tasks/" + validID,
			body:           `{"completed": `,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "store_error",
			url:  "/tasks/" + validID,
			body: `{"completed": true}`,
			storeSetup: func(f *fakeTasksStore) {
				f.updateFn = func(ctx context.Context, authorID, id string, req task.UpdateTaskRequest) (task.Task, error) {
					return task.Task{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeTasksStore{}
			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewTasksHandler(store)
			r := setupAuthedRouter(http.MethodPatch, "/tasks/:id", principal, "tok", h.UpdateTask)

			req := httptest.NewRequest(http.MethodPatch, tt.url, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// ----- Delete -----

func TestDeleteTaskHandler(t *testing.T) {
	principal := user.User{ID: newUUID(), Name: "Ada", Email: "ada@example.com"}
	validID := newUUID()

	tests := []struct {
		name           string
		url            string
		storeSetup     func(*fakeTasksStore)
		wantStatusCode int
	}{
		{
			name: "success_returns_deleted_task",
			url:  "/tasks/" + validID,
			storeSetup: func(f *fakeTasksStore) {
				f.deleteFn = func(ctx context.Context, authorID, id string) (task.Task, error) {
					return task.Task{ID: id, Description: "buy milk", AuthorID: authorID}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			url:  "/tasks/" + newUUID(),
			storeSetup: func(f *fakeTasksStore) {
				f.deleteFn = func(ctx context.Context, authorID, id string) (task.Task, error) {
					return task.Task{}, task.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "store_error",
			url:  "/tasks/" + validID,
			storeSetup: func(f *fakeTasksStore) {
				f.deleteFn = func(ctx context.Context, authorID, id string) (task.Task, error) {
					return task.Task{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeTasksStore{}
			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewTasksHandler(store)
			r := setupAuthedRouter(http.MethodDelete, "/tasks/:id", principal, "tok", h.DeleteTask)

			req := httptest.NewRequest(http.MethodDelete, tt.url, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var got map[string]any
				if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if got["description"] != "buy milk" {
					t.Fatalf("expected the deleted task back, got %s", w.Body.String())
				}
			}
		})
	}
}

// ETag support on single-task reads

func TestGetTaskByIdHandler_ETagNotModified(t *testing.T) {
	principal := user.User{ID: newUUID(), Name: "Ada", Email: "ada@example.com"}
	validID := newUUID()
	now := time.Now().UTC()

	store := &fakeTasksStore{
		getFn: func(ctx context.Context, authorID, id string) (task.Task, error) {
			return task.Task{ID: id, Description: "stable", AuthorID: authorID, CreatedAt: now, UpdatedAt: now}, nil
		},
	}

	h := handlers.NewTasksHandler(store)
	r := setupAuthedRouter(http.MethodGet, "/tasks/:id", principal, "tok", h.GetTaskById)

	w1 := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodGet, "/tasks/"+validID, nil)
	r.ServeHTTP(w1, req1)

	if w1.Code != http.StatusOK {
		t.Fatalf("first call got %d body=%s", w1.Code, w1.Body.String())
	}

	etag := w1.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header in first response")
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/tasks/"+validID, nil)
	req2.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w2, req2)

	if w2.Code != http.StatusNotModified {
		t.Fatalf("second call got %d, want %d", w2.Code, http.StatusNotModified)
	}
	if w2.Body.Len() != 0 {
		t.Fatalf("expected empty body for 304, got %q", w2.Body.String())
	}
}
