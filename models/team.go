package models

import (
	"time"

	"github.com/google/uuid"
)

// Team represents a team entity that owns matters
type Team struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	APIKeyHash string    `json:"-"` // Never serialize the key hash
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
