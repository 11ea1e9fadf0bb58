// Package envelope implements the uniform stream item wire format that
// crosses every Plexus subscription: Data, Progress, Error, Done, and
// Request, each carrying a flat Metadata sibling.
package envelope

import "time"

// Metadata rides along with every StreamItem. Provenance is append-only:
// the router extends it by exactly one hop name per dispatch level, never
// replacing what a child activation (or an inner hop) already set.
type Metadata struct {
	Provenance []string `json:"provenance"`
	PlexusHash string   `json:"plexus_hash"`
	Timestamp  int64    `json:"timestamp"`
}

// NewMetadata stamps the current time (seconds since epoch, per the wire
// contract) and copies provenance defensively so callers can't mutate a
// shared slice out from under an emitted item.
func NewMetadata(provenance []string, plexusHash string) Metadata {
	cp := make([]string, len(provenance))
	copy(cp, provenance)
	return Metadata{
		Provenance: cp,
		PlexusHash: plexusHash,
		Timestamp:  time.Now().Unix(),
	}
}

// WithHop returns a new Metadata whose provenance has one name appended.
// The receiver is never mutated.
func (m Metadata) WithHop(hop string) Metadata {
	next := make([]string, len(m.Provenance)+1)
	copy(next, m.Provenance)
	next[len(m.Provenance)] = hop
	return Metadata{
		Provenance: next,
		PlexusHash: m.PlexusHash,
		Timestamp:  m.Timestamp,
	}
}
