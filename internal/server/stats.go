package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/trungvx/schedq/internal/utils"
	"github.com/trungvx/schedq/pkg/api"
)

func getStats(sm chi.Router, rt *runtime) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		qs := rt.sched.Stats()

		resp := api.StatsResponse{
			Submitted:   qs.Submitted,
			Pending:     qs.Pending,
			Running:     qs.Running,
			Completed:   qs.Completed,
			Failed:      qs.Failed,
			Cancelled:   qs.Cancelled,
			SuccessRate: qs.SuccessRate,
			AvgLatency:  utils.Duration(qs.AvgLatency),
			Utilization: qs.Utilization,
		}

		if err := encode(w, http.StatusOK, resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	sm.Get("/api/v1/stats", handler)
}
