package core

import (
	"slices"
	"strings"
	"sync"
)

// ClientRegistry maps nicknames to connected clients. It is the single
// source of truth for who is online.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewClientRegistry constructs an empty registry.
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{clients: make(map[string]*Client)}
}

// Register maps nickname to c, replacing any previous holder of the
// nickname. The replaced client, if any, is returned.
func (r *ClientRegistry) Register(nickname string, c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.clients[nickname]
	r.clients[nickname] = c
	return prev
}

// Unregister removes nickname. No-op if absent.
func (r *ClientRegistry) Unregister(nickname string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, nickname)
}

// UnregisterClient removes c only if its nickname still maps to c.
func (r *ClientRegistry) UnregisterClient(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clients[c.Name] != c {
		return false
	}
	delete(r.clients, c.Name)
	return true
}

// Lookup returns the client registered under nickname.
func (r *ClientRegistry) Lookup(nickname string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[nickname]
	return c, ok
}

// All returns a snapshot of registered clients ordered by nickname.
func (r *ClientRegistry) All() []*Client {
	r.mu.RLock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Client) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Nicknames returns the sorted list of registered nicknames.
func (r *ClientRegistry) Nicknames() []string {
	all := r.All()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of registered clients.
func (r *ClientRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
