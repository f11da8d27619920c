package storage

import "time"

// URLRecord is one canonical stored URL. Records are created once and
// never mutated; Digest is unique per record and identifies the content,
// Code is unique per record and identifies the public name.
type URLRecord struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Original string `json:"original_url"`
	Digest   []byte `json:"content_digest"`
}

// AliasRecord is an additional public name for an existing canonical
// record. The alias namespace is disjoint storage from the canonical code
// namespace; the two are unioned only on the read path.
type AliasRecord struct {
	AliasCode string `json:"alias_code"`
	TargetID  int64  `json:"target_id"`
}

// BloomSnapshot is a serialized probabilistic filter state, persisted
// opaquely. At most one snapshot exists per Name; saves are full
// replacements.
type BloomSnapshot struct {
	Name      string    `json:"name"`
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Outcome reports how an upsert concluded.
type Outcome int

const (
	// OutcomeCreated means the call inserted a new canonical record.
	OutcomeCreated Outcome = iota

	// OutcomeExisting means a record with the same content digest already
	// existed; the returned record is the winner's, the caller's code was
	// discarded.
	OutcomeExisting
)

func (o Outcome) String() string {
	if o == OutcomeCreated {
		return "created"
	}
	return "existing"
}
