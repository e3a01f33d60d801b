package ui

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed assets
var assets embed.FS

// RegisterRoutes registers all UI routes on the given router.
func (ui *UI) RegisterRoutes(r chi.Router) {
	// Full pages, wrapped in the shell.
	r.Group(func(r chi.Router) {
		r.Use(ui.ShellMiddleware)

		r.Get("/", ui.HandleHome)
		r.Get("/residentes", ui.HandleResidents)
		r.Get("/inventario", ui.HandleInventory)
		r.Get("/reportes", ui.HandleReports)
		r.Get("/pacientes", ui.HandlePatients)
	})

	// Patient view partials (htmx) and the unmount beacon.
	r.Route("/pacientes/{vid}", func(r chi.Router) {
		r.Use(NoStoreMiddleware)
		r.Get("/tabla", ui.HandlePatientsPanel)
		r.Post("/desmontar", ui.HandlePatientsUnmount)
	})
}

// StaticHandler serves the embedded JS and CSS under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
