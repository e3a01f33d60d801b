package ui

import "net/http"

// sidebarParam is the query parameter that opens the sidebar on small screens.
const (
	sidebarParam = "menu"
	sidebarOpen  = "abierto"
)

// NavItem is one entry of the sidebar navigation.
type NavItem struct {
	Name string
	Path string
}

// NavItems lists the dashboard modules in sidebar order.
var NavItems = []NavItem{
	{Name: "Inicio", Path: "/"},
	{Name: "Pacientes", Path: "/pacientes"},
	{Name: "Residentes", Path: "/residentes"},
	{Name: "Inventario", Path: "/inventario"},
	{Name: "Reportes", Path: "/reportes"},
}

// NavLink is a NavItem resolved against the current path.
type NavLink struct {
	NavItem
	Active bool
}

// Shell is the navigation state rendered around every page.
type Shell struct {
	Path        string
	SidebarOpen bool
	Links       []NavLink
}

// NewShell resolves the navigation for path. An item is active only on an
// exact path match.
func NewShell(path string, open bool) Shell {
	links := make([]NavLink, len(NavItems))
	for i, item := range NavItems {
		links[i] = NavLink{NavItem: item, Active: item.Path == path}
	}
	return Shell{Path: path, SidebarOpen: open, Links: links}
}

// shellFromRequest reads the sidebar state from the query string.
func shellFromRequest(r *http.Request) Shell {
	return NewShell(r.URL.Path, r.URL.Query().Get(sidebarParam) == sidebarOpen)
}

// OpenHref is the link that opens the sidebar on the current page.
func (s Shell) OpenHref() string {
	return s.Path + "?" + sidebarParam + "=" + sidebarOpen
}

// CloseHref is the link that closes the sidebar on the current page.
func (s Shell) CloseHref() string {
	return s.Path
}

// Active returns the active nav item, if any.
func (s Shell) Active() (NavItem, bool) {
	for _, l := range s.Links {
		if l.Active {
			return l.NavItem, true
		}
	}
	return NavItem{}, false
}
