package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// Session owns one working collection of items. The analytics snapshot is
// embedded in the session record and persisted with it.
type Session struct {
	ID         SessionID          `json:"id"`
	Name       string             `json:"name"`
	Collection string             `json:"collection"`
	Analytics  *AnalyticsSnapshot `json:"analytics,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnalyticsSnapshot is a derived aggregate over the session's item collection
// at a point in time
type AnalyticsSnapshot struct {
	TotalItems        int     `json:"total_items"`
	CompletedItems    int     `json:"completed_items"`
	ErrorItems        int     `json:"error_items"`
	TotalTokens       int     `json:"total_tokens"`
	TotalCost         float64 `json:"total_cost"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	SuccessRate       float64 `json:"success_rate"`

	LastUpdated time.Time `json:"last_updated"`
}
