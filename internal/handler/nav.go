package handler

import "net/http"

// NavItem is one entry of the navigation metadata the frontend renders.
type NavItem struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

// navItems is the static navigation catalogue. The client decides which
// entries to show based on the current identity's role; the server just
// publishes the list.
var navItems = []NavItem{
	{Name: "Home", Href: "/home"},
	{Name: "Admin: Create User", Href: "/admin/user/create"},
	{Name: "Admin: Edit User", Href: "/admin/user/edit"},
	{Name: "Update Profile", Href: "/user/profile/update"},
}

// NavHandler serves the navigation metadata endpoint.
type NavHandler struct{}

// NewNavHandler creates a NavHandler.
func NewNavHandler() *NavHandler {
	return &NavHandler{}
}

// HandleNav returns the static navigation items.
//
// HTTP: GET /api/nav
func (h *NavHandler) HandleNav(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, navItems)
}
