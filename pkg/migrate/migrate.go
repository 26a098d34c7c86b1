package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where `create` writes new files; the same files ship
// embedded in the binary.
const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations exposes the embedded SQL files.
func Migrations() fs.FS {
	return embedded
}

// source picks the embedded files for DefaultDir (or an empty dir) and the
// filesystem for anything else, so operators can point at a checkout.
func source(dir string) (fs.FS, string) {
	if dir == "" || dir == DefaultDir {
		return embedded, embeddedDir
	}
	return os.DirFS(dir), "."
}

// withGoose points goose at dir and hands fn the root inside that FS.
func withGoose(db *sql.DB, dir string, fn func(root string) error) error {
	if db == nil {
		return errors.New("db is required")
	}
	fsys, root := source(dir)
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return fn(root)
}

// Run executes a goose command such as up, down, status or redo. goose
// prints status output to stdout itself.
func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	return withGoose(db, dir, func(root string) error {
		if err := goose.RunContext(ctx, command, db, root, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// MigrateToVersion moves the schema up or down until it reaches version,
// given as the YYYYMMDDHHMMSS prefix of a migration file.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil || len(version) != len(versionLayout) {
		return fmt.Errorf("invalid version %q: expected YYYYMMDDHHMMSS", version)
	}
	return withGoose(db, dir, func(root string) error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}
		step, name := goose.UpToContext, "up-to"
		switch {
		case current == target:
			return nil
		case current > target:
			step, name = goose.DownToContext, "down-to"
		}
		if err := step(ctx, db, root, target); err != nil {
			return fmt.Errorf("goose %s %d: %w", name, target, err)
		}
		return nil
	})
}
