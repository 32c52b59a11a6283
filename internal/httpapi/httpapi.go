// Package httpapi is the diagnostics HTTP surface: a small read-only
// JSON API over the vehicle session, plus a pure plan-validation
// endpoint. It is not a command surface — session.Vehicle is the
// operation API, consumed in-process.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/argus-gcs/linkrunner/internal/plan"
	"github.com/argus-gcs/linkrunner/internal/session"
)

// Handlers bundles the diagnostics endpoints against one vehicle.
type Handlers struct {
	vehicle *session.Vehicle
	logger  *logrus.Logger
}

// New constructs the diagnostics handlers for vehicle.
func New(vehicle *session.Vehicle, logger *logrus.Logger) *Handlers {
	return &Handlers{vehicle: vehicle, logger: logger}
}

// Routes returns the diagnostics endpoints as a path -> handler map,
// ready to be mounted one at a time on a server.Server.
func (h *Handlers) Routes() map[string]http.Handler {
	return map[string]http.Handler{
		"/status":    http.HandlerFunc(h.status),
		"/telemetry": http.HandlerFunc(h.telemetry),
		"/transfer":  http.HandlerFunc(h.transfer),
		"/validate":  http.HandlerFunc(h.validate),
	}
}

type statusResponse struct {
	Link    session.LinkState          `json:"link"`
	Vehicle session.VehicleState       `json:"vehicle"`
	Mission session.MissionState       `json:"mission"`
	Home    *session.HomePositionState `json:"home,omitempty"`
}

func (h *Handlers) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	link, _ := h.vehicle.Link.Get()
	vs, _ := h.vehicle.Vehicle_.Get()
	mission, _ := h.vehicle.Mission.Get()
	resp := statusResponse{Link: link, Vehicle: vs, Mission: mission}
	if home, ok := h.vehicle.Home.Get(); ok {
		resp.Home = &home
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) telemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tel, ok := h.vehicle.Telemetry.Get()
	if !ok {
		http.Error(w, "no telemetry received yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, tel)
}

func (h *Handlers) transfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	progress, ok := h.vehicle.Transfer.Get()
	if !ok {
		http.Error(w, "no transfer has run yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *Handlers) validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var p plan.Plan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid plan body: "+err.Error(), http.StatusBadRequest)
		return
	}

	issues := plan.Validate(p)
	if issues == nil {
		issues = []plan.Issue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
