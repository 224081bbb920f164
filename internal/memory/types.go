package memory

import (
	"time"
)

// Type classifies a stored memory record
type Type string

const (
	ProfileFact   Type = "profile_fact"
	Preference    Type = "preference"
	EpisodicEvent Type = "episodic_event"
	TempState     Type = "temp_state"
	TaskState     Type = "task_state"
	Other         Type = "other"
)

// IsValid reports whether t is a known memory type
func (t Type) IsValid() bool {
	switch t {
	case ProfileFact, Preference, EpisodicEvent, TempState, TaskState, Other:
		return true
	default:
		return false
	}
}

// Status represents the lifecycle state of a record.
// Transitions are one-directional: active -> archived/expired/deleted.
// A record never returns to active; an update inserts a new record instead.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusExpired  Status = "expired"
	StatusDeleted  Status = "deleted"
)

// Category is the coarse classification assigned by the extractor
type Category string

const (
	CategoryProfile    Category = "profile"
	CategoryPreference Category = "preference"
	CategoryEvent      Category = "event"
	CategoryTempState  Category = "temp_state"
	CategoryOther      Category = "other"
)

// Stability is an informational hint from the extractor about how
// long-lived a fact is expected to be
type Stability string

const (
	StabilityPersistent Stability = "persistent"
	StabilityTemporary  Stability = "temporary"
	StabilityUnknown    Stability = "unknown"
)

// FactCandidate is a normalized observation produced by the extractor.
// Candidates are ephemeral; they are turned into Records at write time
// and never persisted directly.
type FactCandidate struct {
	Text           string    `json:"text"`
	Category       Category  `json:"category"`
	Kind           string    `json:"kind,omitempty"`
	Slot           string    `json:"slot,omitempty"`
	Stability      Stability `json:"stability,omitempty"`
	TemporalScope  string    `json:"temporal_scope,omitempty"`
	DurationInDays int       `json:"duration_in_days,omitempty"`
	Confidence     float64   `json:"confidence"`
}

// Record is the durable unit of truth owned by the metadata store.
// After insertion only Status is ever mutated; everything else is
// immutable for the lifetime of the record.
type Record struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	Text              string         `json:"text"`
	Type              Type           `json:"type"`
	Slot              string         `json:"slot,omitempty"`
	Status            Status         `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
	ValidUntil        *time.Time     `json:"valid_until,omitempty"`
	DecayHalfLifeDays int            `json:"decay_half_life_days,omitempty"`
	Confidence        float64        `json:"confidence"`
	Supersedes        []string       `json:"supersedes,omitempty"`
	SourceTurnID      string         `json:"source_turn_id,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
}

// Expired reports whether the record's validity window has elapsed.
// Records without a valid_until never expire by time.
func (r *Record) Expired(now time.Time) bool {
	return r.ValidUntil != nil && !now.Before(*r.ValidUntil)
}

// ChatMessage is a single conversational message passed to the extractor
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
