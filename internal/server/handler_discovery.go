package server

import (
	"net/http"

	"github.com/me/asilo/pkg/model"
)

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	endpoints := []endpointInfo{
		{"/api/v1/patients", []string{"GET"}, "Patient list, filtered with ?q= over name, email, phone and city"},
		{"/api/v1/health", []string{"GET"}, "Server health and version"},
	}
	if s.config.Metrics.Enabled {
		endpoints = append(endpoints, endpointInfo{s.config.Metrics.Path, []string{"GET"}, "Prometheus metrics"})
	}
	respondOK(w, reqID, discoveryResponse{
		Name:        "Asilo API",
		Version:     "v1",
		Description: "Asilo residential care dashboard",
		Endpoints:   endpoints,
	})
}

func (s *Server) handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("endpoint", r.URL.Path))
}
