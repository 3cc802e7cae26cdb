package api

import (
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/conversion"
	conversionhandler "github.com/FACorreiaa/backoffice-ingest/internal/domain/conversion/handler"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/assembler"
	importhandler "github.com/FACorreiaa/backoffice-ingest/internal/domain/import/handler"
	importrepo "github.com/FACorreiaa/backoffice-ingest/internal/domain/import/repository"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/schema"
	importservice "github.com/FACorreiaa/backoffice-ingest/internal/domain/import/service"

	"github.com/FACorreiaa/backoffice-ingest/pkg/config"
	"github.com/FACorreiaa/backoffice-ingest/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	ImportRepo     importrepo.ImportRepository
	ConversionRepo conversion.Repository

	// Services
	ConversionTables  *conversion.Tables
	ConversionService *conversion.Service
	ImportService     *importservice.ImportService

	// Handlers
	ImportHandler     *importhandler.ImportHandler
	ConversionHandler *conversionhandler.ConversionHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        d.Config.Database.MaxConns,
		MinConns:        d.Config.Database.MinConns,
		MaxConnLifetime: d.Config.Database.MaxConnLifetime,
		MaxConnIdleTime: d.Config.Database.MaxConnIdleTime,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.ImportRepo = importrepo.NewPostgresImportRepository(d.DB.Pool)
	d.ConversionRepo = conversion.NewPostgresRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	tables, err := LoadConversionTables(d.Config.Conversion.TablesPath)
	if err != nil {
		return err
	}
	d.ConversionTables = tables
	d.ConversionService = conversion.NewService(d.ConversionRepo, tables, d.Logger)
	d.ImportService = NewImportService(d.Config, d.ImportRepo, tables, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Config.Server.MaxUploadBytes, d.Logger)
	d.ConversionHandler = conversionhandler.NewConversionHandler(d.ConversionService, d.Logger)

	d.Logger.Info("handlers initialized")
	return nil
}

// LoadConversionTables returns the built-in tables, or the YAML file at path when set.
func LoadConversionTables(path string) (*conversion.Tables, error) {
	if path == "" {
		return conversion.DefaultTables(), nil
	}
	tables, err := conversion.LoadTables(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversion tables: %w", err)
	}
	return tables, nil
}

// NewImportService assembles the import pipeline shared by the server and the CLI.
func NewImportService(cfg *config.Config, repo importrepo.ImportRepository, tables *conversion.Tables, logger *slog.Logger) *importservice.ImportService {
	return importservice.NewImportService(
		repo,
		assembler.New(logger),
		schema.NewMapper(schema.DefaultRegistry(), logger),
		logger,
		importservice.WithBaseAmounts(tables),
		importservice.WithAllowedTables(cfg.Import.AllowedTables...),
		importservice.WithBatchSize(cfg.Import.BatchSize),
		importservice.WithProgressTracker(importservice.NewProgressTracker(cfg.Import.ProgressTTL)),
	)
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
