package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/maxpoletaev/siloring/membership"
)

type healthResponse struct {
	Silo       string   `json:"silo"`
	Status     string   `json:"status"`
	Score      int      `json:"score"`
	Complaints []string `json:"complaints"`
}

type healthAPI struct {
	oracle Oracle
	health Health
	now    func() time.Time
}

func newHealthAPI(oracle Oracle, health Health) *healthAPI {
	return &healthAPI{
		oracle: oracle,
		health: health,
		now:    time.Now,
	}
}

func (api *healthAPI) Bind(r chi.Router) {
	r.Get("/cluster/health", api.handleGet)
}

// handleGet responds with 503 unless the local silo is active, so the
// endpoint can serve as a readiness check.
func (api *healthAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	status := api.oracle.CurrentStatus()

	resp := healthResponse{
		Silo:       api.oracle.LocalSilo().String(),
		Status:     status.String(),
		Score:      api.health.Score(api.now()),
		Complaints: api.health.Complaints(),
	}

	if resp.Complaints == nil {
		resp.Complaints = []string{}
	}

	if status != membership.StatusActive {
		render.Status(r, http.StatusServiceUnavailable)
	}

	render.JSON(w, r, resp)
}
