package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/crm/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

// migrator is the part of migration.Migrator the commands drive
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	GoTo(version uint) error
	Version() (uint, bool, error)
	Force(version int) error
}

var _ migrator = (*migration.Migrator)(nil)

type runEnv struct {
	path     string
	args     []string
	log      *zap.Logger
	migrator migrator
}

type command struct {
	name    string
	usage   string
	help    string
	needsDB bool
	run     func(env *runEnv) error
}

var commands = []command{
	{"up", "up", "Apply all pending migrations", true, func(e *runEnv) error { return e.migrator.Up() }},
	{"down", "down", "Roll back all migrations", true, func(e *runEnv) error { return e.migrator.Down() }},
	{"step", "step <n>", "Apply n migrations (positive=up, negative=down)", true, runStep},
	{"goto", "goto <version>", "Migrate to a specific version", true, runGoto},
	{"version", "version", "Show current migration version", true, runVersion},
	{"status", "status", "List migrations and whether they are applied", true, runStatus},
	{"force", "force <version>", "Force set migration version (use with caution)", true, runForce},
	{"create", "create <name> [desc]", "Create a new migration file pair", false, runCreate},
	{"list", "list", "List available migrations", false, runList},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func (e *runEnv) arg(i int, what string) (string, error) {
	if i >= len(e.args) {
		return "", fmt.Errorf("%s required", what)
	}
	return e.args[i], nil
}

func runStep(e *runEnv) error {
	raw, err := e.arg(0, "step count")
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n == 0 {
		return fmt.Errorf("invalid step count %q", raw)
	}
	return e.migrator.Steps(n)
}

func runGoto(e *runEnv) error {
	raw, err := e.arg(0, "version")
	if err != nil {
		return err
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid version %q", raw)
	}
	return e.migrator.GoTo(uint(v))
}

func runForce(e *runEnv) error {
	raw, err := e.arg(0, "version")
	if err != nil {
		return err
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < -1 {
		return fmt.Errorf("invalid version %q", raw)
	}
	e.log.Warn("Forcing migration version", zap.Int("version", v))
	return e.migrator.Force(v)
}

func runVersion(e *runEnv) error {
	version, dirty, err := e.migrator.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		e.log.Info("No migrations applied")
		return nil
	}
	e.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func runStatus(e *runEnv) error {
	names, err := migration.ListMigrations(e.path)
	if err != nil {
		return err
	}
	current, dirty, err := e.migrator.Version()
	if err != nil {
		return err
	}
	for _, line := range statusLines(names, current, dirty) {
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}

// statusLines marks each migration at or below current as applied. The
// current one is flagged when the database is dirty.
func statusLines(names []string, current uint, dirty bool) []string {
	lines := make([]string, 0, len(names))
	for _, name := range names {
		version, ok := migrationVersion(name)
		state := "pending"
		switch {
		case !ok:
			state = "unnumbered"
		case version == current && dirty:
			state = "dirty"
		case version <= current:
			state = "applied"
		}
		lines = append(lines, fmt.Sprintf("  %-10s %s", state, name))
	}
	return lines
}

func migrationVersion(name string) (uint, bool) {
	prefix, _, _ := strings.Cut(name, "_")
	v, err := strconv.ParseUint(prefix, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

func runCreate(e *runEnv) error {
	name, err := e.arg(0, "migration name")
	if err != nil {
		return err
	}
	description := ""
	if len(e.args) > 1 {
		description = e.args[1]
	}

	mf, err := migration.CreateMigration(e.path, name, description)
	if err != nil {
		return err
	}
	e.log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath))
	return nil
}

func runList(e *runEnv) error {
	names, err := migration.ListMigrations(e.path)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("no migrations found in " + e.path)
	}
	for _, name := range names {
		fmt.Fprintln(os.Stdout, "  -", name)
	}
	return nil
}
