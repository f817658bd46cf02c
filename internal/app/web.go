package app

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/relabs-tech/rover_nav/internal/nav"
)

// routes returns the HTTP API of the navigator service.
func (s *navService) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/waypoints", s.handleGetWaypoints)
	mux.HandleFunc("POST /api/waypoints", s.handlePostWaypoints)
	mux.HandleFunc("GET /api/nav/status", s.handleStatus)
	mux.HandleFunc("GET /api/nav/status.png", s.handleStatusPNG)
	mux.HandleFunc("POST /api/nav/start", s.handleStart)
	mux.HandleFunc("POST /api/nav/cancel", s.handleCancel)
	mux.HandleFunc("GET /ws/nav", s.handleWS)
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func (s *navService) handleGetWaypoints(w http.ResponseWriter, r *http.Request) {
	wps, err := s.waypoints(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, WaypointList{Waypoints: wps})
}

// handlePostWaypoints queues a WaypointList. Invalid entries are reported
// but do not reject the valid ones.
func (s *navService) handlePostWaypoints(w http.ResponseWriter, r *http.Request) {
	var list WaypointList
	if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	added, err := s.enqueue(r.Context(), list)
	switch {
	case errors.Is(err, errServiceStopped):
		writeError(w, http.StatusServiceUnavailable, err)
	case err != nil && added == 0:
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		writeJSON(w, http.StatusOK, map[string]any{"added": added, "error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"added": added})
	}
}

func (s *navService) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.view())
}

func (s *navService) handleStart(w http.ResponseWriter, r *http.Request) {
	err := s.start(r.Context())
	switch {
	case errors.Is(err, nav.ErrInvalidState):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeJSON(w, http.StatusAccepted, s.view())
	}
}

func (s *navService) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.cancel()
	w.WriteHeader(http.StatusAccepted)
}
