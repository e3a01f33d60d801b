package server

import (
	"net/http"
	"runtime"
	"time"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

type healthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	GoVersion    string `json:"go_version"`
	Uptime       string `json:"uptime"`
	MountedViews int    `json:"mounted_views"`
	Directory    string `json:"directory"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, healthResponse{
		Status:       "healthy",
		Version:      Version,
		GoVersion:    runtime.Version(),
		Uptime:       time.Since(s.startTime).Round(time.Second).String(),
		MountedViews: s.registry.Len(),
		Directory:    s.endpoint,
	})
}
