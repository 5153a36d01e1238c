package entities

import (
	"time"

	"github.com/google/uuid"
)

// IngredientStack is one batch of an ingredient. Batches of the same ingredient
// are told apart by AddedAt, so (user_id, name, added_at) is the logical key.
// A stack with zero quantity never exists as a row; exhaustion deletes it.
type IngredientStack struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID         uuid.UUID `gorm:"uniqueIndex:idx_stack_identity" json:"user_id"`
	Name           string    `gorm:"uniqueIndex:idx_stack_identity" json:"name"`
	AddedAt        time.Time `gorm:"uniqueIndex:idx_stack_identity;type:timestamp" json:"added_at"`
	Quantity       float64   `json:"quantity"`
	Unit           string    `json:"unit"`
	StorageType    string    `json:"storage_type"`
	ExpirationDate time.Time `gorm:"type:timestamp" json:"expiration_date"`
	Tips           string    `gorm:"type:text" json:"tips,omitempty"`
	ImagePath      *string   `json:"image_path,omitempty"`
	Enrichment     string    `gorm:"type:text" json:"enrichment,omitempty"`
	// Advisory cache for queryable filtering only; the sweep keeps it roughly
	// current, read paths always recompute from ExpirationDate.
	IsExpired bool `json:"is_expired"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
