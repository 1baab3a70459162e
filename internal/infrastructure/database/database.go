package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/config"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database wraps the GORM connection
type Database struct {
	DB     *gorm.DB
	driver string
	logger *slog.Logger
}

// New opens the configured driver, tunes the pool and pings the server
func New(cfg *config.DatabaseConfig, appLogger *slog.Logger) (*Database, error) {
	if appLogger == nil {
		appLogger = slog.Default()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	case DriverPostgres, "":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.Database,
			cfg.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := Open(dialector, cfg, appLogger)
	if err != nil {
		return nil, err
	}

	appLogger.Info("database connection established",
		slog.String("driver", db.driver),
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("database", cfg.Database),
	)
	return db, nil
}

// Open connects through an explicit dialector; tests use it with in-memory sqlite
func Open(dialector gorm.Dialector, cfg *config.DatabaseConfig, appLogger *slog.Logger) (*Database, error) {
	if appLogger == nil {
		appLogger = slog.Default()
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.LogLevel == "debug" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if dialector.Name() == DriverSQLite {
		// sqlite serializes writers; one connection avoids "database is locked"
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
		sqlDB.SetMaxIdleConns(cfg.MinConnections)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.MaxConnIdleTime) * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		DB:     db,
		driver: dialector.Name(),
		logger: appLogger,
	}, nil
}

// Driver returns the dialect name in use
func (db *Database) Driver() string {
	return db.driver
}

// Close closes the database connection
func (db *Database) Close() error {
	db.logger.Info("closing database connection")
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks if the database is reachable
func (db *Database) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Health returns pool statistics, or status "down" when the server is unreachable
func (db *Database) Health(ctx context.Context) map[string]interface{} {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return map[string]interface{}{
			"status": "down",
			"error":  err.Error(),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return map[string]interface{}{
			"status": "down",
			"error":  err.Error(),
		}
	}

	stats := sqlDB.Stats()

	return map[string]interface{}{
		"status":           "up",
		"driver":           db.driver,
		"max_open_conns":   stats.MaxOpenConnections,
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration":    stats.WaitDuration.String(),
	}
}

// Models lists every table owned by the service, parents first
func Models() []interface{} {
	return []interface{}{
		&domain.Complaint{},
		&domain.AnalysisResult{},
		&domain.LegalArticle{},
		&domain.Recommendation{},
		&domain.AnalysisLog{},
	}
}

// AutoMigrate creates or updates the schema for all service models
func (db *Database) AutoMigrate() error {
	db.logger.Info("running auto migrations")
	if err := db.DB.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	db.logger.Info("migrations completed successfully")
	return nil
}
