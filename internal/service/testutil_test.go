package service

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kanto/showledger/internal/database"
	"github.com/kanto/showledger/internal/database/repository"
)

// newTestDB migrates and opens a throwaway sqlite database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	migrations, err := filepath.Abs("../database/migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dbPath, migrations))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func nullDec(t *testing.T, s string) decimal.NullDecimal {
	t.Helper()
	return decimal.NullDecimal{Decimal: d(t, s), Valid: true}
}

func mkRule(id, name string, keywords []string, cogs string, matchType string, priority int) repository.Rule {
	amount, _ := decimal.NewFromString(cogs)
	return repository.Rule{
		ID:         id,
		Name:       name,
		Keywords:   keywords,
		CogsAmount: amount,
		MatchType:  matchType,
		Priority:   priority,
		Active:     true,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func mkRow(date, item, buyer, gross string) ImportRow {
	day, _ := time.Parse(time.DateOnly, date)
	g, _ := decimal.NewFromString(gross)
	return ImportRow{Date: day, ItemName: item, Quantity: 1, Buyer: buyer, Gross: g}
}
