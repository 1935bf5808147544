package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/maxkalashnikow/telegramtobitrixsupportbot/core/config"
	coredatabase "github.com/maxkalashnikow/telegramtobitrixsupportbot/core/database"
	"github.com/maxkalashnikow/telegramtobitrixsupportbot/core/logger"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil when the submission archive database is disabled.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger and, when the archive database is enabled,
// connects to it and applies migrations.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if !opts.Config.Database.Enabled {
		return &Result{}, nil
	}

	dbCfg := databaseConfig(opts.Config.Database)

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(dbCfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	return &Result{DB: db}, nil
}

func databaseConfig(cfg coreconfig.DatabaseConfig) coredatabase.Config {
	return coredatabase.Config{
		Host:           cfg.Host,
		Port:           cfg.Port,
		User:           cfg.User,
		Password:       cfg.Password,
		Name:           cfg.Name,
		SSLMode:        cfg.SSLMode,
		MaxConnections: cfg.MaxConnections,
	}
}
