package model

import (
	"time"
)

// Project groups tasks under a name for a single owner
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`

	// Computed fields (not stored)
	TaskCount      int `json:"task_count,omitempty"`
	CompletedCount int `json:"completed_count,omitempty"`
}
