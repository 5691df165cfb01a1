package navigation

import "testing"

func TestHistory(t *testing.T) {
	var seen []string
	h := NewHistory(func(route string) { seen = append(seen, route) })

	if h.Current() != "" {
		t.Errorf("Expected empty current route, got %q", h.Current())
	}

	h.Navigate("/dashboard")
	h.Navigate("/login")

	if h.Current() != "/login" {
		t.Errorf("Expected /login, got %q", h.Current())
	}
	if routes := h.Routes(); len(routes) != 2 || routes[0] != "/dashboard" {
		t.Errorf("Unexpected routes: %v", routes)
	}
	if len(seen) != 2 {
		t.Errorf("Expected callback per navigation, got %d", len(seen))
	}
}
