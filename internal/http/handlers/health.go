package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Previews int    `json:"previews"`
}

// Health reports liveness with the number of live sessions and preview files.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	res := healthResponse{Status: "ok"}
	if a.Sessions != nil {
		res.Sessions = a.Sessions.Len()
	}
	if a.Previews != nil {
		res.Previews = a.Previews.Len()
	}
	a.json(w, http.StatusOK, res)
}
