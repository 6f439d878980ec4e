package models

import "time"

// Budget represents a spend and rate ceiling. Nil limits mean unlimited.
type Budget struct {
	BudgetID string `gorm:"type:varchar(64);primaryKey"` // Budget identifier.

	MaxBudget           *float64   `gorm:"type:decimal(20,10)"` // Hard spend limit.
	SoftBudget          *float64   `gorm:"type:decimal(20,10)"` // Alerting spend limit.
	MaxParallelRequests *int       `gorm:"type:integer"`        // Concurrent request cap.
	TPMLimit            *int64     `gorm:"type:bigint"`         // Tokens per minute cap.
	RPMLimit            *int64     `gorm:"type:bigint"`         // Requests per minute cap.
	BudgetDuration      *string    `gorm:"type:varchar(32)"`    // Reset period, e.g. "30d".
	BudgetResetAt       *time.Time `gorm:"type:timestamp"`      // Next reset time.

	CreatedBy string    `gorm:"type:varchar(255);not null;default:''"` // Creator identity.
	UpdatedBy string    `gorm:"type:varchar(255);not null;default:''"` // Last updater identity.
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`               // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`               // Last update timestamp.
}

// Payload returns the column map for inserting the budget, leaving unset limits out.
func (b Budget) Payload() map[string]any {
	payload := map[string]any{
		"budget_id":  b.BudgetID,
		"created_by": b.CreatedBy,
		"updated_by": b.UpdatedBy,
		"created_at": b.CreatedAt,
		"updated_at": b.UpdatedAt,
	}
	if b.MaxBudget != nil {
		payload["max_budget"] = *b.MaxBudget
	}
	if b.SoftBudget != nil {
		payload["soft_budget"] = *b.SoftBudget
	}
	if b.MaxParallelRequests != nil {
		payload["max_parallel_requests"] = *b.MaxParallelRequests
	}
	if b.TPMLimit != nil {
		payload["tpm_limit"] = *b.TPMLimit
	}
	if b.RPMLimit != nil {
		payload["rpm_limit"] = *b.RPMLimit
	}
	if b.BudgetDuration != nil {
		payload["budget_duration"] = *b.BudgetDuration
	}
	if b.BudgetResetAt != nil {
		payload["budget_reset_at"] = *b.BudgetResetAt
	}
	return payload
}

// Unlimited reports whether no limit field is set.
func (b Budget) Unlimited() bool {
	return b.MaxBudget == nil &&
		b.SoftBudget == nil &&
		b.MaxParallelRequests == nil &&
		b.TPMLimit == nil &&
		b.RPMLimit == nil &&
		b.BudgetDuration == nil &&
		b.BudgetResetAt == nil
}
