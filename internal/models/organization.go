package models

import (
	"time"

	"gorm.io/datatypes"
)

// Organization represents a tenant owning models and a budget.
type Organization struct {
	OrganizationID    string `gorm:"type:varchar(255);primaryKey"` // Tenant identifier.
	OrganizationAlias string `gorm:"type:varchar(255);not null"`   // Display alias.

	BudgetID string         `gorm:"type:varchar(64);index"`                  // Linked budget ID.
	Budget   *Budget        `gorm:"foreignKey:BudgetID;references:BudgetID"` // Linked budget.
	Models   datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`        // Visible model names.

	CreatedBy string    `gorm:"type:varchar(255);not null;default:''"` // Creator identity.
	UpdatedBy string    `gorm:"type:varchar(255);not null;default:''"` // Last updater identity.
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`               // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`               // Last update timestamp.
}
