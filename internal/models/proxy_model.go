package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProxyModel stores a deployable model endpoint and its provider parameters.
type ProxyModel struct {
	ModelID   string `gorm:"type:varchar(64);primaryKey"`            // Model identifier.
	ModelName string `gorm:"type:varchar(255);not null;uniqueIndex"` // Public model name.

	LitellmParams datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Provider parameters, credentials sealed.
	ModelInfo     datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Metadata such as owning org.

	CreatedBy string    `gorm:"type:varchar(255);not null;default:''"` // Creator identity.
	UpdatedBy string    `gorm:"type:varchar(255);not null;default:''"` // Last updater identity.
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`               // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`               // Last update timestamp.
}
