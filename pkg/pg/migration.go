package pg

import (
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/finvault/finance-tracker/pkg/logger"
)

// Migrate brings the hosted schema up to date. The migration SQL carries
// the native FK and unique constraints, so the hosted backend enforces
// what the validation layer re-checks for the other modes.
func Migrate(cfg Config, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatal(err)
	}

	db, err := newSqlConnection(cfg)
	if err != nil {
		return err
	}
	if err = goose.Up(db, dir); err != nil {
		logger.Fatal(err)
	}

	return nil
}
