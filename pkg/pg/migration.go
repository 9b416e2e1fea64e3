package pg

import (
	"database/sql"
	"io/fs"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending goose migration found in dir. When fsys is not nil
// dir is resolved inside it, which lets binaries ship migrations with go:embed.
func Migrate(cfg Config, fsys fs.FS, dir string) error {
	return runGoose(cfg, fsys, func(db *sql.DB) error {
		return goose.Up(db, dir)
	})
}

// Rollback reverts the most recent migration.
func Rollback(cfg Config, fsys fs.FS, dir string) error {
	return runGoose(cfg, fsys, func(db *sql.DB) error {
		return goose.Down(db, dir)
	})
}

func MigrationStatus(cfg Config, fsys fs.FS, dir string) error {
	return runGoose(cfg, fsys, func(db *sql.DB) error {
		return goose.Status(db, dir)
	})
}

func runGoose(cfg Config, fsys fs.FS, fn func(db *sql.DB) error) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	if fsys != nil {
		goose.SetBaseFS(fsys)
		defer goose.SetBaseFS(nil)
	}

	db, err := newSqlConnection(cfg)
	if err != nil {
		return errors.Wrap(err, "open migration connection")
	}
	defer db.Close()

	return fn(db)
}
