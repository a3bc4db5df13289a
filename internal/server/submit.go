package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	errs "github.com/trungvx/schedq/internal/errors"
	"github.com/trungvx/schedq/internal/state"
	"github.com/trungvx/schedq/pkg/api"
)

func submitTask(sm chi.Router, rt *runtime) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		var req api.SubmitTaskRequest

		if err := decode(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		inv, known := rt.resolve(req.Handler, req.Input)
		if !known {
			http.Error(w, "unknown handler: "+req.Handler, http.StatusBadRequest)
			return
		}

		priority, err := state.ParsePriority(req.Priority)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		task := state.NewTask(req.Name, inv)
		task.Priority = priority
		task.Timeout = time.Duration(req.Timeout)
		task.MaxRetries = req.MaxRetries
		task.RetryDelay = time.Duration(req.RetryDelay)
		task.Dependencies = req.Dependencies
		task.Tags = req.Tags
		task.Metadata = map[string]any{"handler": req.Handler}

		id, err := rt.sched.Submit(task)
		if err != nil {
			http.Error(w, err.Error(), submitStatus(err))
			return
		}

		resp := api.SubmitTaskResponse{
			TaskId: id,
		}
		if err := encode(w, http.StatusCreated, resp); err != nil {
			rt.logger.
				With("err", err).
				Error("failed to encode response")
			return
		}
	}

	sm.Post("/api/v1/tasks", handler)
}

func submitStatus(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, errs.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
