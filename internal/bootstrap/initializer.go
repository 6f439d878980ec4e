// Package bootstrap seeds default persisted state on process start.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/router-for-me/proxyseed/internal/access"
	"github.com/router-for-me/proxyseed/internal/catalog"
	"github.com/router-for-me/proxyseed/internal/deployment"
	"github.com/router-for-me/proxyseed/internal/models"
	"github.com/router-for-me/proxyseed/internal/modelstore"
	"github.com/router-for-me/proxyseed/internal/security"
	internalsettings "github.com/router-for-me/proxyseed/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configures an Initializer.
type Options struct {
	// SystemID keys the system organization and stamps audit fields. Empty is a valid key.
	SystemID string
	Catalog  catalog.Catalog
	// Lookup resolves credential env vars named by the catalog; defaults to os.Getenv.
	Lookup catalog.LookupFunc
	Sealer *security.Sealer
	// Locker optionally serializes seeding across replicas.
	Locker Locker
	Now    func() time.Time
}

// Initializer seeds the system organization, its budget, the default models, and the sentinel.
type Initializer struct {
	systemID string
	catalog  catalog.Catalog
	lookup   catalog.LookupFunc
	sealer   *security.Sealer
	locker   Locker
	now      func() time.Time

	// beforeSentinel runs inside the transaction after models are inserted.
	beforeSentinel func(tx *gorm.DB) error
}

// New constructs an Initializer.
func New(opts Options) *Initializer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Initializer{
		systemID: opts.SystemID,
		catalog:  opts.Catalog,
		lookup:   opts.Lookup,
		sealer:   opts.Sealer,
		locker:   opts.Locker,
		now:      now,
	}
}

// seedState carries identifiers produced inside the seed transaction.
type seedState struct {
	budgetID string
	orgID    string
	outcomes []modelstore.Outcome
}

// Initialize seeds defaults once. A nil conn is a no-op.
// Any failure rolls back every write of the attempt and is returned both as error and in Result.Err.
func (i *Initializer) Initialize(ctx context.Context, conn *gorm.DB) (Result, error) {
	if conn == nil {
		return Result{Status: StatusSkipped}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loaded, errLoaded := DefaultsLoaded(ctx, conn)
	if errLoaded != nil {
		return i.fail(errLoaded)
	}
	if loaded {
		log.Info("bootstrap: default settings already loaded, skipping initialization")
		return Result{Status: StatusAlreadySeeded}, nil
	}

	if i.locker != nil {
		unlock, errLock := i.locker.Lock(ctx)
		if errLock != nil {
			return i.fail(errLock)
		}
		defer func() {
			if errUnlock := unlock(context.Background()); errUnlock != nil {
				log.WithError(errUnlock).Warn("bootstrap: release lock failed")
			}
		}()
		// Another replica may have finished while we waited.
		loaded, errLoaded = DefaultsLoaded(ctx, conn)
		if errLoaded != nil {
			return i.fail(errLoaded)
		}
		if loaded {
			log.Info("bootstrap: default settings loaded by another instance, skipping initialization")
			return Result{Status: StatusAlreadySeeded}, nil
		}
	}

	var state seedState
	errTx := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var errSeed error
		state, errSeed = i.seed(ctx, tx)
		return errSeed
	})
	if errTx != nil {
		return i.fail(errTx)
	}

	result := Result{
		Status:         StatusSeeded,
		OrganizationID: state.orgID,
		BudgetID:       state.budgetID,
		Outcomes:       state.outcomes,
	}
	log.WithFields(log.Fields{
		"organization_id": result.OrganizationID,
		"budget_id":       result.BudgetID,
		"models":          len(result.Outcomes),
		"models_created":  result.CreatedModels(),
	}).Info("bootstrap: default data seeded")
	return result, nil
}

func (i *Initializer) fail(err error) (Result, error) {
	log.WithError(err).Error("bootstrap: error occurred while initializing defaults")
	return Result{Status: StatusFailed, Err: err}, err
}

// seed performs every write of a bootstrap attempt on tx.
func (i *Initializer) seed(ctx context.Context, tx *gorm.DB) (seedState, error) {
	now := i.now().UTC()
	who := access.SystemPrincipal(i.systemID)

	budgetID, errBudget := createUnlimitedBudget(tx, who, now)
	if errBudget != nil {
		return seedState{}, errBudget
	}

	org, errOrg := upsertSystemOrganization(tx, i.systemID, budgetID, who, now)
	if errOrg != nil {
		return seedState{}, errOrg
	}

	deployments := deployment.Build(i.catalog, org.OrganizationID, i.lookup)
	outcomes, errAdd := modelstore.AddModels(ctx, tx, deployments, who, i.sealer)
	if errAdd != nil {
		return seedState{}, fmt.Errorf("bootstrap: add default models: %w", errAdd)
	}

	if i.beforeSentinel != nil {
		if errHook := i.beforeSentinel(tx); errHook != nil {
			return seedState{}, errHook
		}
	}

	if errMark := markDefaultsLoaded(tx, now); errMark != nil {
		return seedState{}, errMark
	}

	return seedState{budgetID: budgetID, orgID: org.OrganizationID, outcomes: outcomes}, nil
}

// createUnlimitedBudget inserts a budget with every limit unset.
func createUnlimitedBudget(tx *gorm.DB, who access.Principal, now time.Time) (string, error) {
	budget := models.Budget{
		BudgetID:  uuid.NewString(),
		CreatedBy: who.AuditID(),
		UpdatedBy: who.AuditID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := tx.Model(&models.Budget{}).Create(budget.Payload()).Error; errCreate != nil {
		return "", fmt.Errorf("bootstrap: create budget: %w", errCreate)
	}
	return budget.BudgetID, nil
}

// upsertSystemOrganization creates the system organization or leaves an existing one untouched.
func upsertSystemOrganization(tx *gorm.DB, systemID, budgetID string, who access.Principal, now time.Time) (models.Organization, error) {
	org := models.Organization{
		OrganizationID:    systemID,
		OrganizationAlias: systemID,
		BudgetID:          budgetID,
		Models:            datatypes.JSON("[]"),
		CreatedBy:         who.AuditID(),
		UpdatedBy:         who.AuditID(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if errCreate := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organization_id"}},
		DoNothing: true,
	}).Create(&org).Error; errCreate != nil {
		return models.Organization{}, fmt.Errorf("bootstrap: upsert organization: %w", errCreate)
	}

	var stored models.Organization
	if errFind := tx.Where("organization_id = ?", systemID).Take(&stored).Error; errFind != nil {
		return models.Organization{}, fmt.Errorf("bootstrap: read organization: %w", errFind)
	}
	return stored, nil
}

// markDefaultsLoaded sets the sentinel to true, creating it when absent.
func markDefaultsLoaded(tx *gorm.DB, now time.Time) error {
	setting := models.Setting{
		Key:       internalsettings.DefaultDataLoadedKey,
		Value:     datatypes.JSON(internalsettings.LoadedPayload(true)),
		UpdatedAt: now,
	}
	if errUpsert := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error; errUpsert != nil {
		return fmt.Errorf("bootstrap: upsert %s setting: %w", internalsettings.DefaultDataLoadedKey, errUpsert)
	}
	return nil
}

// DefaultsLoaded reports whether the sentinel marks the defaults as loaded.
// A missing or malformed sentinel reports false; only query failures return an error.
func DefaultsLoaded(ctx context.Context, conn *gorm.DB) (bool, error) {
	if conn == nil {
		return false, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	// Read the raw payload so a malformed value cannot fail the scan.
	var row struct {
		Value []byte
	}
	errFind := conn.WithContext(ctx).Model(&models.Setting{}).
		Select("value").
		Where("key = ?", internalsettings.DefaultDataLoadedKey).
		Take(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("bootstrap: query %s setting: %w", internalsettings.DefaultDataLoadedKey, errFind)
	}
	return internalsettings.ParseLoaded(row.Value), nil
}
