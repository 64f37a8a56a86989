package shared

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BaseEntity holds the identity and timestamps of a stored aggregate
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps the update timestamp
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// ParseID parses an entity ID taken from a request. Failures are reported
// as INVALID_INPUT naming what was being parsed.
func ParseID(s, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, NewDomainError("INVALID_INPUT", "Invalid "+what+" ID format")
	}
	return id, nil
}
