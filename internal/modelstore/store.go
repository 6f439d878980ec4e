// Package modelstore persists model deployments.
package modelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/router-for-me/proxyseed/internal/access"
	"github.com/router-for-me/proxyseed/internal/db"
	"github.com/router-for-me/proxyseed/internal/deployment"
	"github.com/router-for-me/proxyseed/internal/models"
	"github.com/router-for-me/proxyseed/internal/security"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotAuthorized indicates the principal may not add models.
var ErrNotAuthorized = errors.New("modelstore: principal not authorized to add models")

// Outcome reports what happened to one deployment.
type Outcome struct {
	ModelName string
	ModelID   string
	// Created is false when a model with the same name already existed.
	Created bool
}

// AddModels inserts deployments that do not exist yet, keyed by model name.
// It runs on tx and never opens its own transaction; any error should abort the caller's transaction.
func AddModels(ctx context.Context, tx *gorm.DB, deployments []deployment.Deployment, who access.Principal, sealer *security.Sealer) ([]Outcome, error) {
	if tx == nil {
		return nil, fmt.Errorf("modelstore: nil tx")
	}
	if !who.IsAdmin() {
		return nil, ErrNotAuthorized
	}
	if ctx == nil {
		ctx = context.Background()
	}
	conn := tx.WithContext(ctx)
	now := time.Now().UTC()

	outcomes := make([]Outcome, 0, len(deployments))
	for i := range deployments {
		row, errBuild := buildRow(deployments[i], who, sealer, now)
		if errBuild != nil {
			return outcomes, errBuild
		}

		res := conn.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "model_name"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return outcomes, fmt.Errorf("modelstore: insert %s: %w", row.ModelName, res.Error)
		}

		outcome := Outcome{ModelName: row.ModelName, ModelID: row.ModelID, Created: res.RowsAffected > 0}
		if !outcome.Created {
			var existing models.ProxyModel
			if errFind := conn.Select("model_id").Where("model_name = ?", row.ModelName).Take(&existing).Error; errFind != nil {
				return outcomes, fmt.Errorf("modelstore: find existing %s: %w", row.ModelName, errFind)
			}
			outcome.ModelID = existing.ModelID
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// buildRow converts a deployment into a persisted row with sealed credentials.
func buildRow(dep deployment.Deployment, who access.Principal, sealer *security.Sealer, now time.Time) (models.ProxyModel, error) {
	name := strings.TrimSpace(dep.ModelName)
	if name == "" {
		return models.ProxyModel{}, fmt.Errorf("modelstore: deployment missing model name")
	}
	if strings.TrimSpace(dep.Params.Model) == "" {
		return models.ProxyModel{}, fmt.Errorf("modelstore: %s: missing provider model", name)
	}
	if strings.TrimSpace(dep.Params.Provider) == "" {
		return models.ProxyModel{}, fmt.Errorf("modelstore: %s: missing provider", name)
	}

	params := dep.Params
	sealedKey, errSeal := sealer.Seal(params.APIKey)
	if errSeal != nil {
		return models.ProxyModel{}, fmt.Errorf("modelstore: %s: seal api key: %w", name, errSeal)
	}
	sealedBase, errSeal := sealer.Seal(params.APIBase)
	if errSeal != nil {
		return models.ProxyModel{}, fmt.Errorf("modelstore: %s: seal api base: %w", name, errSeal)
	}
	params.APIKey = sealedKey
	params.APIBase = sealedBase

	paramsJSON, errMarshal := json.Marshal(params)
	if errMarshal != nil {
		return models.ProxyModel{}, fmt.Errorf("modelstore: %s: marshal params: %w", name, errMarshal)
	}
	infoJSON, errMarshal := json.Marshal(dep.Info)
	if errMarshal != nil {
		return models.ProxyModel{}, fmt.Errorf("modelstore: %s: marshal info: %w", name, errMarshal)
	}

	return models.ProxyModel{
		ModelID:       uuid.NewString(),
		ModelName:     name,
		LitellmParams: datatypes.JSON(paramsJSON),
		ModelInfo:     datatypes.JSON(infoJSON),
		CreatedBy:     who.AuditID(),
		UpdatedBy:     who.AuditID(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ListModels returns all persisted models ordered by name.
func ListModels(ctx context.Context, conn *gorm.DB) ([]models.ProxyModel, error) {
	if conn == nil {
		return nil, fmt.Errorf("modelstore: nil db")
	}
	var rows []models.ProxyModel
	if errFind := conn.WithContext(ctx).Order("model_name ASC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("modelstore: list models: %w", errFind)
	}
	return rows, nil
}

// CountByOrganization counts models whose metadata names orgID as owner.
func CountByOrganization(ctx context.Context, conn *gorm.DB, orgID string) (int64, error) {
	if conn == nil {
		return 0, fmt.Errorf("modelstore: nil db")
	}
	var count int64
	errCount := conn.WithContext(ctx).Model(&models.ProxyModel{}).
		Where(db.JSONExtractTextExpr(conn, "model_info", "org_id")+" = ?", orgID).
		Count(&count).Error
	if errCount != nil {
		return 0, fmt.Errorf("modelstore: count models for org: %w", errCount)
	}
	return count, nil
}

// DecodeParams returns the row's provider parameters with credentials opened.
func DecodeParams(row models.ProxyModel, sealer *security.Sealer) (deployment.Params, error) {
	var params deployment.Params
	if len(row.LitellmParams) > 0 {
		if errUnmarshal := json.Unmarshal(row.LitellmParams, &params); errUnmarshal != nil {
			return deployment.Params{}, fmt.Errorf("modelstore: %s: decode params: %w", row.ModelName, errUnmarshal)
		}
	}
	apiKey, errOpen := sealer.Open(params.APIKey)
	if errOpen != nil {
		return deployment.Params{}, fmt.Errorf("modelstore: %s: open api key: %w", row.ModelName, errOpen)
	}
	apiBase, errOpen := sealer.Open(params.APIBase)
	if errOpen != nil {
		return deployment.Params{}, fmt.Errorf("modelstore: %s: open api base: %w", row.ModelName, errOpen)
	}
	params.APIKey = apiKey
	params.APIBase = apiBase
	return params, nil
}
