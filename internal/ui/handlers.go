package ui

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/asilo/internal/patients"
)

// NotFoundMessage is shown for any path no module handles.
const NotFoundMessage = "Ruta no encontrada."

// UI handles the web user interface.
type UI struct {
	registry *patients.Registry
	logger   *slog.Logger
}

// New creates a new UI handler. Patient pages mount their views in reg.
func New(reg *patients.Registry, logger *slog.Logger) *UI {
	return &UI{
		registry: reg,
		logger:   logger.With("component", "ui"),
	}
}

// HandleHome renders the landing page.
func (ui *UI) HandleHome(w http.ResponseWriter, r *http.Request) {
	ui.render(w, r, http.StatusOK, "home", map[string]any{
		"Title": "Inicio - Asilo",
	})
}

// HandleResidents renders the residents placeholder.
func (ui *UI) HandleResidents(w http.ResponseWriter, r *http.Request) {
	ui.render(w, r, http.StatusOK, "residents", map[string]any{
		"Title": "Residentes - Asilo",
	})
}

// HandleInventory renders the inventory placeholder.
func (ui *UI) HandleInventory(w http.ResponseWriter, r *http.Request) {
	ui.render(w, r, http.StatusOK, "inventory", map[string]any{
		"Title": "Inventario - Asilo",
	})
}

// HandleReports renders the reports placeholder.
func (ui *UI) HandleReports(w http.ResponseWriter, r *http.Request) {
	ui.render(w, r, http.StatusOK, "reports", map[string]any{
		"Title": "Reportes - Asilo",
	})
}

// HandleNotFound renders the unknown-route page.
func (ui *UI) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	ui.renderNotFound(w, r, NotFoundMessage)
}

// HandlePatients mounts a new patient view and renders its page. The view
// starts loading immediately; the panel polls until the load settles.
func (ui *UI) HandlePatients(w http.ResponseWriter, r *http.Request) {
	v := ui.registry.Mount()
	if q := r.URL.Query().Get("q"); q != "" {
		v.SetQuery(q)
	}

	ui.logger.Debug("patient view mounted", "view", v.ID(), "mounted", ui.registry.Len())
	ui.render(w, r, http.StatusOK, "patients/list", map[string]any{
		"Title": "Pacientes - Asilo",
		"View":  v.Snapshot(),
	})
}

// HandlePatientsPanel applies the search text to a mounted view and renders
// its panel. A view that is gone (unmounted or swept) sends the browser back
// to /pacientes so it mounts a fresh one.
func (ui *UI) HandlePatientsPanel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "vid")
	v, ok := ui.registry.Get(id)
	if !ok {
		w.Header().Set("HX-Redirect", "/pacientes")
		http.Error(w, "view not mounted", http.StatusNotFound)
		return
	}

	if q, present := r.URL.Query()["q"]; present && len(q) > 0 {
		v.SetQuery(q[0])
	}

	ui.renderPartial(w, "components/patients_panel", v.Snapshot())
}

// HandlePatientsUnmount unmounts a view. Unknown views are ignored so the
// page beacon can fire more than once.
func (ui *UI) HandlePatientsUnmount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "vid")
	if ui.registry.Unmount(id) {
		ui.logger.Debug("patient view unmounted", "view", id, "mounted", ui.registry.Len())
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ui *UI) render(w http.ResponseWriter, r *http.Request, status int, template string, data map[string]any) {
	if _, ok := data["Shell"]; !ok {
		data["Shell"] = ShellFromContext(r)
	}

	var buf bytes.Buffer
	if err := renderTemplate(&buf, template, data); err != nil {
		ui.logger.Error("template render failed", "template", template, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (ui *UI) renderPartial(w http.ResponseWriter, template string, data any) {
	var buf bytes.Buffer
	if err := renderComponent(&buf, template, data); err != nil {
		ui.logger.Error("partial render failed", "template", template, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (ui *UI) renderNotFound(w http.ResponseWriter, r *http.Request, message string) {
	ui.render(w, r, http.StatusNotFound, "error", map[string]any{
		"Title":   "No encontrado - Asilo",
		"Message": message,
	})
}
