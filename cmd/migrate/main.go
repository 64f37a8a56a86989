// Command migrate applies and authors the SQL migrations of the document store.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/migration"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
		configPath     string
	)
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&configPath, "config", "", "Path to config.toml")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	cmd, ok := lookupCommand(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	env := &runEnv{
		path: resolveMigrationsPath(migrationsPath),
		args: args[1:],
		log:  log,
	}
	log.Info("Migration CLI started",
		zap.String("command", cmd.name),
		zap.String("migrations_path", env.path))

	if cmd.needsDB {
		m, closeDB, err := openMigrator(configPath, env.path, log)
		if err != nil {
			log.Fatal("Failed to open migrator", zap.Error(err))
		}
		defer closeDB()
		env.migrator = m
	}

	if err := cmd.run(env); err != nil {
		log.Fatal("Migration command failed", zap.String("command", cmd.name), zap.Error(err))
	}
}

// openMigrator connects with the configured database. The returned func
// closes the migrator and with it the connection.
func openMigrator(configPath, path string, log *zap.Logger) (*migration.Migrator, func(), error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	database, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	m, err := migration.New(database.SQL(), cfg.Database.Driver, path, log)
	if err != nil {
		_ = database.Close()
		return nil, nil, err
	}
	return m, func() { _ = m.Close() }, nil
}

// resolveMigrationsPath prefers an explicit path, then ./migrations, then
// the directory two levels above the executable
func resolveMigrationsPath(explicit string) string {
	path := explicit
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func printUsage() {
	fmt.Fprint(os.Stderr, `CRM Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
`)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-22s%s\n", c.usage, c.help)
	}
	fmt.Fprint(os.Stderr, `
Flags:
  -path string          Path to migrations directory (default: ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)
  -config string        Path to config.toml

Environment Variables:
  CRM_DATABASE_DRIVER, CRM_DATABASE_PATH, CRM_DATABASE_HOST, CRM_DATABASE_PORT,
  CRM_DATABASE_USER, CRM_DATABASE_PASSWORD, CRM_DATABASE_DBNAME, CRM_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate create add_document_notes "Free text notes on documents"
  migrate status
`)
}
