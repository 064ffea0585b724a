package core

import (
	"slices"
	"sync"
)

// Channel groups clients for scoped fan-out. Members keep insertion order.
type Channel struct {
	Name    string
	members []*Client
}

func (ch *Channel) indexOf(c *Client) int {
	return slices.Index(ch.members, c)
}

// ChannelInfo is a read-only view of a channel for reporting.
type ChannelInfo struct {
	Name    string
	Members []string
}

// ChannelRegistry maps channel names to rosters. Channels live until the
// process exits, even when empty.
type ChannelRegistry struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	order    []*Channel
}

// NewChannelRegistry constructs an empty registry.
func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{channels: make(map[string]*Channel)}
}

// CreateIfAbsent creates name with creator as its only member.
// It returns false, leaving the roster untouched, if name already exists.
func (r *ChannelRegistry) CreateIfAbsent(name string, creator *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[name]; exists {
		return false
	}
	ch := &Channel{Name: name}
	if creator != nil && !creator.Departed() {
		ch.members = append(ch.members, creator)
	}
	r.channels[name] = ch
	r.order = append(r.order, ch)
	return true
}

// AddMember appends c to the roster of name.
func (r *ChannelRegistry) AddMember(name string, c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[name]
	if !ok {
		return ErrChannelNotFound
	}
	// Checked under the lock so a concurrent teardown either sees the new
	// membership in RemoveEverywhere or we see the departed flag here.
	if c.Departed() {
		return ErrClientGone
	}
	if ch.indexOf(c) >= 0 {
		return ErrAlreadyMember
	}
	ch.members = append(ch.members, c)
	return nil
}

// RemoveMember deletes c from the roster of name.
func (r *ChannelRegistry) RemoveMember(name string, c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[name]
	if !ok {
		return ErrChannelNotFound
	}
	idx := ch.indexOf(c)
	if idx < 0 {
		return ErrNotInChannel
	}
	ch.members = slices.Delete(ch.members, idx, idx+1)
	return nil
}

// MembersOf returns a snapshot of the roster of name.
func (r *ChannelRegistry) MembersOf(name string) ([]*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[name]
	if !ok {
		return nil, ErrChannelNotFound
	}
	return slices.Clone(ch.members), nil
}

// ChannelOf returns the first channel, in creation order, that lists c.
func (r *ChannelRegistry) ChannelOf(c *Client) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ch := range r.order {
		if ch.indexOf(c) >= 0 {
			return ch.Name, true
		}
	}
	return "", false
}

// RouteTarget resolves the channel c speaks into and the members other than c,
// under a single read lock.
func (r *ChannelRegistry) RouteTarget(c *Client) (string, []*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ch := range r.order {
		if ch.indexOf(c) < 0 {
			continue
		}
		others := make([]*Client, 0, len(ch.members)-1)
		for _, m := range ch.members {
			if m != c {
				others = append(others, m)
			}
		}
		return ch.Name, others, true
	}
	return "", nil, false
}

// RemoveEverywhere drops c from every roster and returns the affected names.
func (r *ChannelRegistry) RemoveEverywhere(c *Client) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var left []string
	for _, ch := range r.order {
		if idx := ch.indexOf(c); idx >= 0 {
			ch.members = slices.Delete(ch.members, idx, idx+1)
			left = append(left, ch.Name)
		}
	}
	return left
}

// Exists reports whether name has been created.
func (r *ChannelRegistry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[name]
	return ok
}

// Snapshot lists every channel in creation order with member nicknames.
func (r *ChannelRegistry) Snapshot() []ChannelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ChannelInfo, 0, len(r.order))
	for _, ch := range r.order {
		names := make([]string, len(ch.members))
		for i, m := range ch.members {
			names[i] = m.Name
		}
		out = append(out, ChannelInfo{Name: ch.Name, Members: names})
	}
	return out
}
