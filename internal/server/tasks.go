package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/ggicci/httpin"
	"github.com/go-chi/chi/v5"
	errs "github.com/trungvx/schedq/internal/errors"
	"github.com/trungvx/schedq/internal/utils"
	"github.com/trungvx/schedq/pkg/api"
)

func getTask(sm chi.Router, rt *runtime) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		req := r.
			Context().
			Value(httpin.Input).(*api.GetTaskRequest)

		task, err := rt.sched.Get(req.TaskId)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		resp := api.GetTaskResponse(api.FromTask(task))

		if err := encode(w, http.StatusOK, resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	sm.
		With(httpin.NewInput(api.GetTaskRequest{})).
		Get("/api/v1/tasks/{taskId}", handler)
}

func cancelTask(sm chi.Router, rt *runtime) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		req := r.
			Context().
			Value(httpin.Input).(*api.CancelTaskRequest)

		rt.logger.
			With("taskId", req.TaskId).
			Info("canceling task")

		cancelled := rt.sched.Cancel(req.TaskId)

		resp := api.CancelTaskResponse{
			Cancelled: cancelled,
		}

		if err := encode(w, http.StatusOK, resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	sm.
		With(httpin.NewInput(api.CancelTaskRequest{})).
		Put("/api/v1/tasks_cancel/{taskId}", handler)
}

func listTasks(sm chi.Router, rt *runtime) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		req := r.
			Context().
			Value(httpin.Input).(*api.ListTasksRequest)

		skip, limit := utils.ToSkipAndLimit(req.Page, req.Size)
		tasks := rt.sched.List(skip, limit)

		resp := api.ListTasksResponse{
			Tasks: make([]api.TaskInfo, 0, len(tasks)),
		}

		for _, task := range tasks {
			resp.Tasks = append(resp.Tasks, api.FromTask(task))
		}

		if err := encode(w, http.StatusOK, resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	sm.With(httpin.NewInput(api.ListTasksRequest{})).Get("/api/v1/tasks", handler)
}

func awaitResult(sm chi.Router, rt *runtime) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		req := r.
			Context().
			Value(httpin.Input).(*api.AwaitResultRequest)

		var timeout time.Duration
		if len(req.Timeout) > 0 {
			parsed, err := time.ParseDuration(req.Timeout)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			timeout = parsed
		}

		result, err := rt.sched.Await(req.TaskId, timeout)
		if err != nil {
			http.Error(w, err.Error(), awaitStatus(err))
			return
		}

		resp := api.AwaitResultResponse{
			TaskId: req.TaskId,
			Result: result,
		}

		if err := encode(w, http.StatusOK, resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	sm.
		With(httpin.NewInput(api.AwaitResultRequest{})).
		Get("/api/v1/tasks/{taskId}/result", handler)
}

func awaitStatus(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrResultTimeout):
		return http.StatusRequestTimeout
	case errors.Is(err, errs.ErrTaskCanceled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
