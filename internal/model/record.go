package model

import (
	"encoding/json"

	"github.com/devrev/timeline/internal/errors"
)

const (
	// TypeSorted is the JSON discriminator for base records
	TypeSorted = "sorted"
	// TypeMetadata is the JSON discriminator for metadata records
	TypeMetadata = "metadata"
)

// Namespace suffixes. Each record kind owns a disjoint sub-collection per
// scope, keyed by scope + suffix.
const (
	SuffixSorted   = "__SORTED"
	SuffixMetadata = "__METADATA"
)

// SortedNamespace returns the store key for the base record sub-collection
// of a scope
func SortedNamespace(scope string) string {
	return scope + SuffixSorted
}

// MetadataNamespace returns the store key for the metadata record
// sub-collection of a scope
func MetadataNamespace(scope string) string {
	return scope + SuffixMetadata
}

// Record is the base time-ordered record. Start is the sort key and logical
// identity: at most one record per (scope, namespace) may hold a given start.
// UpdatedAt is nanoseconds since epoch and is not part of the identity.
type Record struct {
	Scope     string `json:"scope"`
	Start     int64  `json:"start"`
	Type      string `json:"type"`
	UpdatedAt int64  `json:"updated_at"`
}

// NewRecord creates a base record with a validated start
func NewRecord(scope string, start int64) (*Record, error) {
	if err := ValidateStart(start); err != nil {
		return nil, err
	}
	return &Record{
		Scope: scope,
		Start: start,
		Type:  TypeSorted,
	}, nil
}

// ValidateStart checks that a candidate start is usable as a score
func ValidateStart(start int64) error {
	if start < 0 {
		return errors.InvalidStart(start, "must not be negative")
	}
	return nil
}

// Namespace returns the store key for this record's sub-collection
func (r *Record) Namespace() string {
	return SortedNamespace(r.Scope)
}

// AsJSON serializes the record to its wire representation
func (r *Record) AsJSON() ([]byte, error) {
	return json.Marshal(r)
}

// RecordFromJSON deserializes a base record from its wire representation
func RecordFromJSON(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.InternalError("failed to unmarshal record", err)
	}
	return &r, nil
}
