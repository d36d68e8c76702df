package handlers

import "net/http"

// Health godoc
// @Summary  Liveness probe
// @Tags     system
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Router   /health [get]
func Health(w http.ResponseWriter, r *http.Request) {
	successResponse(w, r, http.StatusOK, "", jsonResponse{"status": "ok"})
}
