package navigation

import "sync"

// Navigator performs a client-side route change
type Navigator interface {
	Navigate(route string)
}

// History is a Navigator that records every route it is sent to
type History struct {
	mu     sync.Mutex
	routes []string
	onNav  func(route string)
}

// NewHistory creates a History; onNav, if set, is called after each navigation
func NewHistory(onNav func(route string)) *History {
	return &History{onNav: onNav}
}

func (h *History) Navigate(route string) {
	h.mu.Lock()
	h.routes = append(h.routes, route)
	h.mu.Unlock()

	if h.onNav != nil {
		h.onNav(route)
	}
}

// Current returns the last route, or "" before any navigation
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.routes) == 0 {
		return ""
	}
	return h.routes[len(h.routes)-1]
}

// Routes returns every route visited, oldest first
func (h *History) Routes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.routes))
	copy(out, h.routes)
	return out
}
