package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ItemID string

// NewItemID generates a new unique ItemID
func NewItemID() ItemID {
	return ItemID(uuid.New().String())
}

// GroupID identifies one duplicate group within a single analysis pass.
// Group IDs are regenerated on every pass and have no meaning across passes.
type GroupID string

// NewGroupID generates a fresh duplicate group identifier
func NewGroupID() GroupID {
	return GroupID(uuid.New().String())
}

type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusCompleted ItemStatus = "completed"
	ItemStatusSuccess   ItemStatus = "success"
	ItemStatusError     ItemStatus = "error"
)

// SaveState tracks the persistence lifecycle of one item for display purposes.
// It is never persisted.
type SaveState string

const (
	SaveStateIdle   SaveState = "idle"
	SaveStateSaving SaveState = "saving"
	SaveStateSaved  SaveState = "saved"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a multi-turn item
type Message struct {
	Role    Role   `json:"role" firestore:"role"`
	Content string `json:"content" firestore:"content"`
}

// Usage holds token and cost accounting reported by the generator
type Usage struct {
	InputTokens  int     `json:"input_tokens" firestore:"input_tokens"`
	OutputTokens int     `json:"output_tokens" firestore:"output_tokens"`
	Cost         float64 `json:"cost" firestore:"cost"`
}

// Item is one curated record in the working collection.
//
// The in-memory Item is a working copy; the backing document store owns the
// authoritative persisted version. HasUnsavedChanges is the sole authority on
// whether local content has diverged from the last saved version, and must
// never be cleared while a strictly newer un-synced edit exists.
type Item struct {
	ID ItemID `json:"id" firestore:"id"`

	// Content fields. Single-turn items use Query/Reasoning/Answer,
	// multi-turn items use Messages.
	Query     string    `json:"query,omitempty" firestore:"query,omitempty"`
	Reasoning string    `json:"reasoning,omitempty" firestore:"reasoning,omitempty"`
	Answer    string    `json:"answer,omitempty" firestore:"answer,omitempty"`
	Messages  []Message `json:"messages,omitempty" firestore:"messages,omitempty"`

	Status         ItemStatus `json:"status,omitempty" firestore:"status,omitempty"`
	Error          string     `json:"error,omitempty" firestore:"error,omitempty"`
	Score          float64    `json:"score" firestore:"score"`
	Usage          *Usage     `json:"usage,omitempty" firestore:"usage,omitempty"`
	TotalTokens    int        `json:"total_tokens,omitempty" firestore:"total_tokens,omitempty"`
	Cost           float64    `json:"cost,omitempty" firestore:"cost,omitempty"`
	ResponseTimeMs float64    `json:"response_time_ms,omitempty" firestore:"response_time_ms,omitempty"`

	// Curation state. IsDuplicate is true iff DuplicateGroupID is set;
	// a non-empty duplicate group always has at least two members.
	IsDuplicate      bool    `json:"is_duplicate" firestore:"is_duplicate"`
	DuplicateGroupID GroupID `json:"duplicate_group_id,omitempty" firestore:"duplicate_group_id,omitempty"`
	IsDiscarded      bool    `json:"is_discarded" firestore:"is_discarded"`

	HasUnsavedChanges bool      `json:"-" firestore:"-"`
	SaveState         SaveState `json:"-" firestore:"-"`

	CreatedAt time.Time `json:"created_at,omitempty" firestore:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" firestore:"updated_at,omitempty"`
}

// IsMultiTurn reports whether the item carries a message sequence instead of
// the single-turn query/reasoning/answer fields
func (x *Item) IsMultiTurn() bool {
	return len(x.Messages) > 0
}

// Key returns the normalized content key used for duplicate grouping.
// Single-turn items key on Query; multi-turn items fall back to the first
// user message. The key is trimmed and case-folded.
func (x *Item) Key() string {
	content := x.Query
	if content == "" && x.IsMultiTurn() {
		for _, msg := range x.Messages {
			if msg.Role == RoleUser {
				content = msg.Content
				break
			}
		}
	}
	return strings.ToLower(strings.TrimSpace(content))
}

// AnswerLen returns the length of the item's primary output, used as the
// duplicate resolution tie-break
func (x *Item) AnswerLen() int {
	if x.IsMultiTurn() {
		n := 0
		for _, msg := range x.Messages {
			if msg.Role == RoleAssistant {
				n += len(msg.Content)
			}
		}
		return n
	}
	return len(x.Answer)
}

// Completed reports whether the item has a terminal successful indicator:
// an explicit completed/success status, or generated output present
func (x *Item) Completed() bool {
	switch x.Status {
	case ItemStatusCompleted, ItemStatusSuccess:
		return true
	}
	if x.Status == ItemStatusError {
		return false
	}
	return x.Answer != "" || x.Reasoning != "" || x.IsMultiTurn()
}

// Failed reports whether the item carries an error indicator
func (x *Item) Failed() bool {
	return x.Status == ItemStatusError || x.Error != ""
}

// Tokens returns total token usage from either the direct field or the
// nested usage record
func (x *Item) Tokens() int {
	if x.TotalTokens > 0 {
		return x.TotalTokens
	}
	if x.Usage != nil {
		return x.Usage.InputTokens + x.Usage.OutputTokens
	}
	return 0
}

// TotalCost returns cost from either the direct field or the nested usage record
func (x *Item) TotalCost() float64 {
	if x.Cost > 0 {
		return x.Cost
	}
	if x.Usage != nil {
		return x.Usage.Cost
	}
	return 0
}

// Clone returns a deep copy of the item. Collection mutations always operate
// on clones so that readers holding a prior snapshot see a consistent view.
func (x *Item) Clone() *Item {
	clone := *x
	if x.Messages != nil {
		clone.Messages = make([]Message, len(x.Messages))
		copy(clone.Messages, x.Messages)
	}
	if x.Usage != nil {
		usage := *x.Usage
		clone.Usage = &usage
	}
	return &clone
}
