package provider

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/finvault/finance-tracker/internal/model"
)

func setupGormDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.AccountCategory{},
		&model.Account{},
		&model.TransactionGroup{},
		&model.TransactionCategory{},
		&model.Transaction{},
		&model.Recurring{},
		&model.Configuration{},
	)
	require.NoError(t, err)

	return db
}
