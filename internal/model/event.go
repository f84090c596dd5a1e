package model

import "time"

// EventType is the fixed topic discriminator attached to every change event
const EventType = "calendar"

// Change event kinds, one per mutation
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// ChangeEvent describes one successful mutation. Data carries the full
// serialized state of the resulting record (or the deleted record's last
// state). Extra holds the prior start on updates, empty otherwise.
type ChangeEvent struct {
	ID    string `json:"id"`
	Scope string `json:"scope"`
	Kind  string `json:"kind"`
	Type  string `json:"type"`
	Data  string `json:"data"`
	Extra string `json:"extra,omitempty"`
}

// PendingEvent is a change event whose stream append failed and which is
// queued for redelivery
type PendingEvent struct {
	ChangeEvent
	CreatedAt   time.Time `json:"created_at"`
	ReplayCount int       `json:"replay_count"`
}
