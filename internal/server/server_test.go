package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/trungvx/schedq/internal/metrics"
	"github.com/trungvx/schedq/internal/scheduler"
	"github.com/trungvx/schedq/internal/server"
	"github.com/trungvx/schedq/internal/state"
	"github.com/trungvx/schedq/pkg/api"
)

func newTestServer(t *testing.T) (*server.Server, scheduler.Scheduler) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := state.NewStore(&state.StoreOpts{Logger: logger})

	cfg := scheduler.Config{
		MaxConcurrent:   4,
		MaxQueueSize:    100,
		DefaultTimeout:  5 * time.Second,
		PollInterval:    2 * time.Millisecond,
		CleanupInterval: 1 * time.Hour,
	}

	sched := scheduler.New(logger, cfg, st, metrics.NoopSink{})
	if err := sched.Run(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sched.Shutdown(ctx)
	})

	resolve := func(name string, input map[string]any) (state.Invocable, bool) {
		switch name {
		case "echo":
			return state.InvocableFunc(func(ctx context.Context) (any, error) {
				return input["message"], nil
			}), true
		case "fail":
			return state.InvocableFunc(func(ctx context.Context) (any, error) {
				return nil, fmt.Errorf("handler failed")
			}), true
		default:
			return nil, false
		}
	}

	srv := server.NewServer(&server.Options{Logger: logger}, sched, resolve)
	return srv, sched
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestSubmitTask(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/tasks", api.SubmitTaskRequest{
		Name:    "greet",
		Handler: "echo",
		Input:   map[string]any{"message": "hello"},
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[api.SubmitTaskResponse](t, rec)
	if len(resp.TaskId) == 0 {
		t.Fatal("expected task id in response")
	}
}

func TestSubmitUnknownHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/tasks", api.SubmitTaskRequest{
		Name:    "greet",
		Handler: "nope",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitInvalidPriority(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/tasks", api.SubmitTaskRequest{
		Name:     "greet",
		Handler:  "echo",
		Priority: "urgent",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetTask(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/tasks", api.SubmitTaskRequest{
		Name:     "greet",
		Handler:  "echo",
		Priority: "high",
		Input:    map[string]any{"message": "hi"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit failed: %d %s", rec.Code, rec.Body.String())
	}
	submitted := decodeBody[api.SubmitTaskResponse](t, rec)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/tasks/"+submitted.TaskId, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	info := decodeBody[api.GetTaskResponse](t, rec)
	if info.TaskId != submitted.TaskId {
		t.Fatalf("expected id %s, got %s", submitted.TaskId, info.TaskId)
	}
	if info.Name != "greet" {
		t.Fatalf("expected name greet, got %s", info.Name)
	}
	if info.Priority != "high" {
		t.Fatalf("expected priority high, got %s", info.Priority)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/tasks/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCancelTask(t *testing.T) {
	srv, sched := newTestServer(t)

	// submit directly so the task never dispatches: gate it behind a
	// dependency that does not complete during the test
	release := make(chan struct{})
	defer close(release)
	blockerTask := state.NewTask("blocker", state.InvocableFunc(func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	}))
	blockerId, err := sched.Submit(blockerTask)
	if err != nil {
		t.Fatal(err)
	}

	gated := state.NewTask("gated", state.InvocableFunc(func(ctx context.Context) (any, error) {
		return nil, nil
	}))
	gated.Dependencies = []string{blockerId}
	gatedId, err := sched.Submit(gated)
	if err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, srv.Handler(), http.MethodPut, "/api/v1/tasks_cancel/"+gatedId, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[api.CancelTaskResponse](t, rec)
	if !resp.Cancelled {
		t.Fatal("expected task cancelled")
	}

	rec = doJSON(t, srv.Handler(), http.MethodPut, "/api/v1/tasks_cancel/"+gatedId, nil)
	resp = decodeBody[api.CancelTaskResponse](t, rec)
	if resp.Cancelled {
		t.Fatal("expected second cancel to report false")
	}
}

func TestListTasks(t *testing.T) {
	srv, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/tasks", api.SubmitTaskRequest{
			Name:    fmt.Sprintf("task-%d", i),
			Handler: "echo",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit %d failed: %d", i, rec.Code)
		}
	}

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/tasks?page=1&size=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[api.ListTasksResponse](t, rec)
	if len(resp.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(resp.Tasks))
	}
}

func TestAwaitResult(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/tasks", api.SubmitTaskRequest{
		Name:    "greet",
		Handler: "echo",
		Input:   map[string]any{"message": "hello"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit failed: %d", rec.Code)
	}
	submitted := decodeBody[api.SubmitTaskResponse](t, rec)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/tasks/"+submitted.TaskId+"/result?timeout=5s", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[api.AwaitResultResponse](t, rec)
	if resp.Result != "hello" {
		t.Fatalf("expected result hello, got %v", resp.Result)
	}
}

func TestAwaitResultNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/tasks/missing/result?timeout=1s", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/tasks", api.SubmitTaskRequest{
		Name:    "greet",
		Handler: "echo",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit failed: %d", rec.Code)
	}
	submitted := decodeBody[api.SubmitTaskResponse](t, rec)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/tasks/"+submitted.TaskId+"/result?timeout=5s", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("await failed: %d", rec.Code)
	}

	// counters settle just after the terminal transition
	var stats api.StatsResponse
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/stats", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		stats = decodeBody[api.StatsResponse](t, rec)
		if stats.Completed == 1 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if stats.Submitted != 1 {
		t.Fatalf("expected 1 submitted, got %d", stats.Submitted)
	}
	if stats.Completed != 1 {
		t.Fatalf("expected 1 completed, got %d", stats.Completed)
	}
}
