package db

import (
	"fmt"

	"github.com/router-for-me/proxyseed/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// autoMigrateModels creates or updates the tables owned by this service.
func autoMigrateModels(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(
		&models.Setting{},
		&models.Budget{},
		&models.Organization{},
		&models.ProxyModel{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return nil
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := autoMigrateModels(conn); errAutoMigrate != nil {
		return errAutoMigrate
	}
	if errOrgIdx := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_proxy_models_org_id
		ON proxy_models ((model_info->>'org_id'))
	`).Error; errOrgIdx != nil {
		return fmt.Errorf("db: create proxy model org index: %w", errOrgIdx)
	}
	return nil
}

// migrateSQLite applies SQLite-specific schema updates and indexes.
func migrateSQLite(conn *gorm.DB) error {
	if errAutoMigrate := autoMigrateModels(conn); errAutoMigrate != nil {
		return errAutoMigrate
	}
	if errOrgIdx := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_proxy_models_org_id
		ON proxy_models (json_extract(model_info, '$.org_id'))
	`).Error; errOrgIdx != nil {
		return fmt.Errorf("db: create proxy model org index: %w", errOrgIdx)
	}
	return nil
}
