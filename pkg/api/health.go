package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cuemby/coldb/pkg/manager"
	"github.com/cuemby/coldb/pkg/metrics"
)

// HealthServer exposes /health, /ready, and /metrics over plain HTTP,
// separate from the DSL socket, so an operator (or container runtime) can
// probe coldb without speaking the wire protocol.
type HealthServer struct {
	manager *manager.Manager
	mux     *http.ServeMux
}

func NewHealthServer(mgr *manager.Manager) *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{
		manager: mgr,
		mux:     mux,
	}

	mux.HandleFunc("/health", hs.healthHandler)
	mux.HandleFunc("/ready", hs.readyHandler)
	mux.Handle("/metrics", metrics.Handler())

	return hs
}

// Start runs the HTTP health server, blocking until it fails or is shut
// down by its listener being closed.
func (hs *HealthServer) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      hs.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Message   string            `json:"message,omitempty"`
}

// healthHandler is a liveness check: 200 if the process can serve HTTP at
// all, regardless of whether a database has been created yet.
func (hs *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	response := HealthResponse{Status: "healthy", Timestamp: time.Now()}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// readyHandler checks that the manager is initialized and its catalog is
// reachable. coldb is single-node (spec.md §1), so there is no leader
// election or cluster membership to report here, unlike the clustered
// health checks this was adapted from.
func (hs *HealthServer) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := make(map[string]string)
	ready := true
	var message string

	if hs.manager == nil {
		checks["manager"] = "not initialized"
		ready = false
		message = "manager not initialized"
	} else {
		checks["manager"] = "ok"
		checks["rows"] = "ok"
		_ = hs.manager.TableRowCounts() // touches the catalog lock; a panic here aborts the request (net/http writes no response), not a false "ready"
	}

	status := "ready"
	statusCode := http.StatusOK
	if !ready {
		status = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	response := ReadyResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
		Message:   message,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// GetHandler returns the HTTP handler for embedding in other servers.
func (hs *HealthServer) GetHandler() http.Handler {
	return hs.mux
}
