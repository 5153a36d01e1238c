package entities

import (
	"github.com/google/uuid"
)

// User is the owner row for inventory records. Identity issuance happens in an
// external provider; this table only anchors foreign keys and the digest mailer.
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Email string    `gorm:"uniqueIndex" json:"email"`
	Name  string    `json:"name"`

	Timestamp
}
