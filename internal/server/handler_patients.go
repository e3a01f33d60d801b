package server

import (
	"net/http"

	"github.com/me/asilo/internal/patients"
	"github.com/me/asilo/pkg/model"
)

// handleListPatients mounts a view for the lifetime of the request. A client
// that disconnects cancels the retrieval and gets no response.
func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := RequestIDFromContext(ctx)
	query := r.URL.Query().Get("q")

	v := patients.NewView("api_"+reqID, s.fetcher, s.viewOpts...)
	v.SetQuery(query)
	v.Mount(ctx)
	defer v.Unmount()

	if err := v.Wait(ctx); err != nil || ctx.Err() != nil {
		s.logger.Debug("patient request abandoned", "request_id", reqID)
		return
	}

	snap := v.Snapshot()
	if snap.Presentation() == patients.PresentError {
		respondError(w, reqID, http.StatusBadGateway, model.NewUpstreamError(snap.Error))
		return
	}

	respondOK(w, reqID, model.PatientList{
		Query:    query,
		Total:    snap.Total,
		Matched:  len(snap.Records),
		Patients: snap.Records,
	})
}
