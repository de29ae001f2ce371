// Package discovery implements the announce/search/peer-registry state
// machine that models device presence on the local network.
package discovery

import (
	"sync"
	"time"

	"github.com/dlnacast/receiverd/internal/device"
)

// SourceTag records which protocol path a peer was last seen through.
type SourceTag string

const (
	SourceAnnounce SourceTag = "announce"
	SourcePresence SourceTag = "presence"
	SourceProbe    SourceTag = "probe"
)

// PeerRecord extends a remote device descriptor with network location,
// freshness and capability annotations.
type PeerRecord struct {
	device.Descriptor

	Address      string
	Port         int
	LocationURL  string
	LastSeen     time.Time
	Source       SourceTag
	Capabilities device.Capabilities
	Services     []string
}

// Registry stores known remote devices keyed by UDN. At most one
// record exists per identifier, and the local device's own identifier
// is never registered. Mutations are serialized by a mutex; readers
// get snapshots.
type Registry struct {
	mu      sync.Mutex
	selfUDN string
	peers   map[string]PeerRecord

	// now is replaceable for expiry tests
	now func() time.Time
}

// NewRegistry creates a registry that filters out the given local UDN.
func NewRegistry(selfUDN string) *Registry {
	return &Registry{
		selfUDN: selfUDN,
		peers:   make(map[string]PeerRecord),
		now:     time.Now,
	}
}

// Upsert inserts or overwrites the record for its identifier and
// resets last-seen to the current time. Records carrying the local
// device's identifier are ignored. Returns whether the record was
// stored.
func (r *Registry) Upsert(rec PeerRecord) bool {
	if rec.UDN == "" || rec.UDN == r.selfUDN {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec.LastSeen = r.now()
	r.peers[rec.UDN] = rec
	return true
}

// MergeCapabilities folds compatibility flags into an existing record.
// Unknown identifiers are ignored. Returns whether a record matched.
func (r *Registry) MergeCapabilities(udn string, caps device.Capabilities) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.peers[udn]
	if !ok {
		return false
	}

	rec.Capabilities.DLNA = rec.Capabilities.DLNA || caps.DLNA
	rec.Capabilities.UPnP = rec.Capabilities.UPnP || caps.UPnP
	rec.Capabilities.Cast = rec.Capabilities.Cast || caps.Cast
	rec.Capabilities.AirPlay = rec.Capabilities.AirPlay || caps.AirPlay
	r.peers[udn] = rec
	return true
}

// Remove deletes the record for the given identifier, if any.
func (r *Registry) Remove(udn string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, udn)
}

// RemoveExpired deletes every record whose age strictly exceeds
// maxAge. A record aged exactly maxAge is retained. Returns the number
// of records removed.
func (r *Registry) RemoveExpired(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for udn, rec := range r.peers {
		if now.Sub(rec.LastSeen) > maxAge {
			delete(r.peers, udn)
			removed++
		}
	}
	return removed
}

// Get looks up a record by identifier.
func (r *Registry) Get(udn string) (PeerRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.peers[udn]
	return rec, ok
}

// List returns a snapshot of all known peers in no particular order.
func (r *Registry) List() []PeerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]PeerRecord, 0, len(r.peers))
	for _, rec := range r.peers {
		out = append(out, rec)
	}
	return out
}

// Len returns the number of known peers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}
