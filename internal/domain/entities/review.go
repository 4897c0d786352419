package entities

import (
	"fmt"
	"strings"
	"time"
)

// Review is an append-only rating left for an entity.
type Review struct {
	ID           string    `json:"id" db:"id"`
	EntityID     string    `json:"entity_id" db:"bakery_id"`
	ReviewerName string    `json:"reviewer_name" db:"reviewer_name"`
	Rating       int       `json:"rating" db:"rating"`
	Comment      string    `json:"comment,omitempty" db:"comment"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Validate checks rating bounds and required fields.
func (r *Review) Validate() error {
	if strings.TrimSpace(r.EntityID) == "" {
		return fmt.Errorf("entity id is required")
	}
	if strings.TrimSpace(r.ReviewerName) == "" {
		return fmt.Errorf("reviewer name is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}
