package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/maxpoletaev/siloring/internal/generic"
	"github.com/maxpoletaev/siloring/membership"
)

type siloInfo struct {
	Address    string `json:"address"`
	Name       string `json:"name,omitempty"`
	Status     string `json:"status"`
	Generation int64  `json:"generation"`
	Local      bool   `json:"local,omitempty"`
}

type silosResponse struct {
	Version int64      `json:"version"`
	Silos   []siloInfo `json:"silos"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type silosAPI struct {
	oracle Oracle
}

func newSilosAPI(oracle Oracle) *silosAPI {
	return &silosAPI{
		oracle: oracle,
	}
}

func (api *silosAPI) Bind(r chi.Router) {
	r.Get("/cluster/silos", api.handleList)
	r.Get("/cluster/silos/{address}", api.handleGet)
}

func (api *silosAPI) handleList(w http.ResponseWriter, r *http.Request) {
	snap := api.oracle.Snapshot()
	self := api.oracle.LocalSilo()

	resp := silosResponse{
		Version: snap.Version,
		Silos:   make([]siloInfo, 0, len(snap.Members)),
	}

	for _, m := range snap.Members {
		resp.Silos = append(resp.Silos, api.siloInfo(m, self))
	}

	generic.SortBy(resp.Silos, func(s siloInfo) string {
		return s.Address
	})

	render.JSON(w, r, resp)
}

func (api *silosAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	addr, err := membership.ParseSiloAddress(chi.URLParam(r, "address"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: err.Error()})

		return
	}

	m, ok := api.oracle.Snapshot().Members[addr]
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: "silo not found"})

		return
	}

	render.JSON(w, r, api.siloInfo(m, api.oracle.LocalSilo()))
}

func (api *silosAPI) siloInfo(m membership.ClusterMember, self membership.SiloAddress) siloInfo {
	info := siloInfo{
		Address:    m.Address.String(),
		Name:       m.Name,
		Status:     m.Status.String(),
		Generation: m.Address.Generation,
	}

	if m.Address == self {
		info.Status = api.oracle.CurrentStatus().String()
		info.Local = true
	}

	return info
}
