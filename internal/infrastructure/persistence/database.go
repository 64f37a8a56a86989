package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultSQLitePath = "crm.db"

// Database is the gorm handle plus the pool behind it
type Database struct {
	DB  *gorm.DB
	sql *sql.DB
}

// Option adjusts the gorm settings used by NewDatabase
type Option func(*gorm.Config)

// WithLogger routes gorm's SQL logging to l. The default is silent.
func WithLogger(l logger.Interface) Option {
	return func(c *gorm.Config) { c.Logger = l }
}

// WithNowFunc fixes the clock gorm stamps CreatedAt/UpdatedAt with
func WithNowFunc(now func() time.Time) Option {
	return func(c *gorm.Config) { c.NowFunc = now }
}

// NewDatabase opens a postgres or sqlite database, sizes the pool and pings it
func NewDatabase(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.Driver != "sqlite",
		TranslateError:         true,
	}
	for _, opt := range opts {
		opt(gormCfg)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	configurePool(pool, cfg)

	d := &Database{DB: db, sql: pool}
	if err := d.PingContext(context.Background()); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return d, nil
}

func openDialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = defaultSQLitePath
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func configurePool(pool *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.Driver == "sqlite" {
		// one writer at a time, and :memory: is per connection
		pool.SetMaxOpenConns(1)
		return
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

// AutoMigrate creates the company and document tables from the models. Only
// sqlite relies on it; postgres schemas come from the SQL migrations.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(
		&models.CompanyModel{},
		&models.DocumentModel{},
		&models.DocumentItemModel{},
	)
}

// SQL exposes the pool, for golang-migrate
func (d *Database) SQL() *sql.DB {
	return d.sql
}

// PingContext reports whether the database answers. It has the shape of a
// health check.
func (d *Database) PingContext(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Stats snapshots the connection pool
func (d *Database) Stats() sql.DBStats {
	return d.sql.Stats()
}

// Close closes the pool
func (d *Database) Close() error {
	return d.sql.Close()
}
