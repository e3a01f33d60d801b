package ui

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Template functions available in all templates.
var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04:05")
	},
	// orDash renders absent optional fields as a dash.
	"orDash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	},
	"ageLabel": func(age *int) string {
		if age == nil {
			return "-"
		}
		return strconv.Itoa(*age)
	},
	"urlquery": func(s string) string {
		return template.URLQueryEscaper(s)
	},
}

// renderTemplate renders a page inside the layout.
func renderTemplate(w io.Writer, name string, data map[string]any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	layout, ok := templates["layout"]
	if !ok {
		return fmt.Errorf("layout template not found")
	}

	tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(layout)
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	if _, err = tmpl.New("content").Parse(content); err != nil {
		return fmt.Errorf("parse content: %w", err)
	}

	if err := parseComponents(tmpl); err != nil {
		return err
	}

	return tmpl.Execute(w, data)
}

// renderComponent renders a single component without the layout. Used for
// htmx partial responses.
func renderComponent(w io.Writer, name string, data any) error {
	if _, ok := templates[name]; !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	tmpl := template.New("root").Funcs(templateFuncs)
	if err := parseComponents(tmpl); err != nil {
		return err
	}

	return tmpl.ExecuteTemplate(w, filepath.Base(name), data)
}

func parseComponents(tmpl *template.Template) error {
	for compName, compContent := range templates {
		if strings.HasPrefix(compName, "components/") {
			if _, err := tmpl.New(filepath.Base(compName)).Parse(compContent); err != nil {
				return fmt.Errorf("parse component %s: %w", compName, err)
			}
		}
	}
	return nil
}

var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="https://unpkg.com/htmx.org@1.9.10"></script>
    <script src="https://cdn.tailwindcss.com"></script>
    <script src="/static/js/app.js"></script>
    <link rel="stylesheet" href="/static/css/app.css">
</head>
<body class="bg-gray-50 min-h-screen">
    {{with .Shell}}
    {{if .SidebarOpen}}
    <a href="{{.CloseHref}}" id="sidebar-overlay" class="fixed inset-0 z-20 bg-black bg-opacity-40 lg:hidden" aria-label="Cerrar menú"></a>
    {{end}}
    <aside id="sidebar" class="fixed inset-y-0 left-0 z-30 w-64 bg-indigo-800 text-white transform {{if .SidebarOpen}}translate-x-0{{else}}-translate-x-full{{end}} lg:translate-x-0 transition-transform" data-open="{{.SidebarOpen}}">
        <div class="flex items-center justify-between h-16 px-4">
            <a href="/" class="text-xl font-bold">Asilo</a>
            {{if .SidebarOpen}}
            <a href="{{.CloseHref}}" id="sidebar-close" class="lg:hidden text-indigo-200 hover:text-white" aria-label="Cerrar menú">&times;</a>
            {{end}}
        </div>
        <nav class="mt-4 space-y-1 px-2">
            {{range .Links}}
            <a href="{{.Path}}" class="block px-3 py-2 rounded-md text-sm font-medium {{if .Active}}bg-indigo-900 text-white{{else}}text-indigo-100 hover:bg-indigo-700{{end}}"{{if .Active}} aria-current="page"{{end}}>{{.Name}}</a>
            {{end}}
        </nav>
    </aside>
    <div class="lg:pl-64">
        <header class="bg-white shadow-sm border-b h-16 flex items-center px-4">
            {{if not .SidebarOpen}}
            <a href="{{.OpenHref}}" id="sidebar-open" class="lg:hidden mr-4 text-gray-500 hover:text-gray-700" aria-label="Abrir menú">&#9776;</a>
            {{end}}
            <h1 class="text-lg font-semibold text-gray-900">Dashboard Asilo</h1>
        </header>
    {{end}}
        <main class="max-w-7xl mx-auto py-6 px-4 sm:px-6 lg:px-8">
            {{template "content" .}}
        </main>
    {{if .Shell}}
    </div>
    {{end}}
</body>
</html>`,

	"home": `{{define "content"}}
<section class="bg-white shadow rounded-lg p-6">
    <h2 class="text-xl font-semibold text-gray-900 mb-2">Inicio</h2>
    <p class="text-gray-600">Contenido de Inicio</p>
</section>
{{end}}`,

	"residents": `{{define "content"}}
<section class="bg-white shadow rounded-lg p-6">
    <h2 class="text-xl font-semibold text-gray-900 mb-2">Residentes</h2>
    <p class="text-gray-600">Módulo de residentes en construcción.</p>
</section>
{{end}}`,

	"inventory": `{{define "content"}}
<section class="bg-white shadow rounded-lg p-6">
    <h2 class="text-xl font-semibold text-gray-900 mb-2">Inventario</h2>
    <p class="text-gray-600">Módulo de inventario en construcción.</p>
</section>
{{end}}`,

	"reports": `{{define "content"}}
<section class="bg-white shadow rounded-lg p-6">
    <h2 class="text-xl font-semibold text-gray-900 mb-2">Reportes</h2>
    <p class="text-gray-600">KPIs ejemplo…</p>
</section>
{{end}}`,

	"error": `{{define "content"}}
<div class="flex items-center justify-center py-24">
    <div class="text-center">
        <p id="error-message" class="text-gray-600 mb-8">{{.Message}}</p>
        <a href="/" class="text-indigo-600 hover:text-indigo-500">Volver a Inicio</a>
    </div>
</div>
{{end}}`,

	"patients/list": `{{define "content"}}
<section id="pacientes" class="bg-white shadow rounded-lg" data-view="{{.View.ID}}" data-unmount-url="/pacientes/{{.View.ID}}/desmontar">
    <div class="px-6 py-4 border-b flex flex-col sm:flex-row sm:items-center sm:justify-between gap-4">
        <h2 class="text-xl font-semibold text-gray-900">Listado de Pacientes</h2>
        <div class="flex items-center">
            <input type="search" id="buscar" name="q" value="{{.View.Query}}"
                   placeholder="Buscar por nombre, correo, teléfono o ciudad"
                   autocomplete="off"
                   class="w-72 rounded-md border-gray-300 shadow-sm text-sm px-3 py-2 border"
                   hx-get="/pacientes/{{.View.ID}}/tabla"
                   hx-trigger="input changed, search"
                   hx-target="#pacientes-panel"
                   hx-swap="innerHTML">
        </div>
    </div>
    <div id="pacientes-panel">
        {{template "patients_panel" .View}}
    </div>
</section>
{{end}}`,

	"components/patients_panel": `{{if .Loading}}
<div id="pacientes-estado" class="px-6 py-8 text-center text-gray-500" data-presentation="loading"
     hx-get="/pacientes/{{.ID}}/tabla" hx-trigger="load delay:300ms" hx-include="#buscar"
     hx-target="#pacientes-panel" hx-swap="innerHTML">
    Cargando pacientes...
</div>
{{else if .Error}}
<div id="pacientes-estado" class="px-6 py-8 text-center text-red-600" role="alert" data-presentation="error">{{.Error}}</div>
{{else}}
<div class="overflow-x-auto" data-presentation="table">
    <table id="pacientes-tabla" class="min-w-full divide-y divide-gray-200">
        <thead class="bg-gray-50">
            <tr>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Nombre</th>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Correo</th>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Teléfono</th>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Ciudad</th>
                <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Edad</th>
                <th class="px-6 py-3 text-right text-xs font-medium text-gray-500 uppercase">Acciones</th>
            </tr>
        </thead>
        <tbody class="bg-white divide-y divide-gray-200">
            {{range .Records}}
            <tr data-patient="{{.ID}}">
                <td class="px-6 py-4 whitespace-nowrap">
                    <div class="flex items-center">
                        {{if .Image}}<img class="h-8 w-8 rounded-full mr-3" src="{{.Image}}" alt="">{{end}}
                        <span class="text-sm font-medium text-gray-900">{{.FullName}}</span>
                    </div>
                </td>
                <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{orDash .Email}}</td>
                <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{orDash .Phone}}</td>
                <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{orDash .City}}</td>
                <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-500">{{ageLabel .Age}}</td>
                <td class="px-6 py-4 whitespace-nowrap text-right text-sm">
                    <button type="button" class="text-green-600 hover:text-green-900 mr-2">Agregar</button>
                    <button type="button" class="text-indigo-600 hover:text-indigo-900 mr-2">Editar</button>
                    <button type="button" class="text-red-600 hover:text-red-900">Eliminar</button>
                </td>
            </tr>
            {{else}}
            <tr>
                <td colspan="6" id="pacientes-vacio" class="px-6 py-4 text-sm text-gray-500 text-center">{{if .Empty}}No hay pacientes para mostrar.{{else if .NoResults}}Sin resultados para “{{.Query}}”.{{end}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>
    <p class="px-6 py-3 text-xs text-gray-400">{{len .Records}} de {{.Total}} pacientes{{if not .LoadedAt.IsZero}} · actualizado {{formatTime .LoadedAt}}{{end}}</p>
</div>
{{end}}`,
}
