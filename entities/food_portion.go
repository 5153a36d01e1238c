package entities

import (
	"time"

	"github.com/google/uuid"
)

// FoodPortion is a batch of a prepared dish, measured in servings. Same
// identity and exhaustion rules as IngredientStack.
type FoodPortion struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID          uuid.UUID `gorm:"uniqueIndex:idx_portion_identity" json:"user_id"`
	Name            string    `gorm:"uniqueIndex:idx_portion_identity" json:"name"`
	AddedAt         time.Time `gorm:"uniqueIndex:idx_portion_identity;type:timestamp" json:"added_at"`
	ServingQuantity float64   `json:"serving_quantity"`
	Category        string    `json:"category"`
	MainIngredients string    `gorm:"type:text" json:"main_ingredients"` // JSON-encoded ordered list
	Calories        *float64  `json:"calories,omitempty"`
	Description     string    `gorm:"type:text" json:"description"`
	StorageType     string    `json:"storage_type"`
	ExpirationDate  time.Time `gorm:"type:timestamp" json:"expiration_date"`
	Tips            string    `gorm:"type:text" json:"tips,omitempty"`
	// ImagePath may be filled later by the out-of-process image pipeline.
	ImagePath  *string `json:"image_path,omitempty"`
	Enrichment string  `gorm:"type:text" json:"enrichment,omitempty"`
	IsExpired  bool    `json:"is_expired"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
