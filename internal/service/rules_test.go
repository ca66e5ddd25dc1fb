package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kanto/showledger/internal/database/repository"
)

func TestRuleValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := &RuleService{DB: db}
	ctx := context.Background()

	valid := RuleInput{
		Name:       "ETB",
		Keywords:   []string{"etb"},
		CogsAmount: d(t, "40.00"),
		MatchType:  repository.MatchContains,
		Active:     true,
	}

	cases := []struct {
		name   string
		mutate func(*RuleInput)
	}{
		{"no name", func(in *RuleInput) { in.Name = "  " }},
		{"no keywords", func(in *RuleInput) { in.Keywords = nil }},
		{"blank keywords", func(in *RuleInput) { in.Keywords = []string{"", "  "} }},
		{"zero amount", func(in *RuleInput) { in.CogsAmount = decimal.Zero }},
		{"negative amount", func(in *RuleInput) { in.CogsAmount = d(t, "-1") }},
		{"bad match type", func(in *RuleInput) { in.MatchType = "regex" }},
	}
	for _, tc := range cases {
		in := valid
		tc.mutate(&in)
		_, err := svc.Create(ctx, in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, tc.name)
	}

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cogs_rules").Scan(&count))
	require.Zero(t, count, "invalid rules must not persist")

	_, err := svc.Create(ctx, valid)
	require.NoError(t, err)
}

func TestRuleChangesReprocessStoredTransactions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	rules := &RuleService{DB: db}
	importer := &Importer{DB: db}

	// Import before any rule exists: no COGS.
	res, err := importer.ImportShow(ctx, ShowBatch{
		Name: "Friday Fiesta",
		Date: "2026-08-21",
		Rows: []ImportRow{mkRow("2026-08-21", "Surging Sparks ETB", "alice", "100.00")},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.CogsMissing)

	txRepo := repository.NewTransactionRepo(db)

	// Creating a matching rule retroactively costs the stored line.
	rule := seedRule(t, rules, "ETB", []string{"etb"}, "40.00", 85)
	txs, err := txRepo.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.True(t, txs[0].Cogs.Valid)
	require.True(t, txs[0].Cogs.Decimal.Equal(d(t, "40.00")))
	require.Equal(t, rule.ID, *txs[0].MatchedRuleID)

	// The show aggregate followed.
	show, err := repository.NewShowRepo(db).Get(ctx, res.ShowID)
	require.NoError(t, err)
	require.True(t, show.TotalCogs.Equal(d(t, "40.00")))

	// Updating the amount reflows.
	in := RuleInput{
		Name: rule.Name, Keywords: rule.Keywords, CogsAmount: d(t, "45.00"),
		MatchType: rule.MatchType, Priority: rule.Priority, Active: true,
	}
	_, err = rules.Update(ctx, rule.ID, in)
	require.NoError(t, err)
	txs, err = txRepo.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.True(t, txs[0].Cogs.Decimal.Equal(d(t, "45.00")))

	// Deleting clears rule-assigned costing.
	require.NoError(t, rules.Delete(ctx, rule.ID))
	txs, err = txRepo.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.False(t, txs[0].Cogs.Valid)
	require.Nil(t, txs[0].MatchedRuleID)

	show, err = repository.NewShowRepo(db).Get(ctx, res.ShowID)
	require.NoError(t, err)
	require.True(t, show.TotalCogs.IsZero())
	require.False(t, show.ROI.Valid)
}

func TestManualOverrideSurvivesRuleChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	rules := &RuleService{DB: db}
	importer := &Importer{DB: db}
	txSvc := &TransactionService{DB: db}

	res, err := importer.ImportShow(ctx, ShowBatch{
		Name: "Friday Fiesta",
		Date: "2026-08-21",
		Rows: []ImportRow{mkRow("2026-08-21", "Surging Sparks ETB", "alice", "100.00")},
	})
	require.NoError(t, err)

	txRepo := repository.NewTransactionRepo(db)
	txs, err := txRepo.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	id := txs[0].ID

	require.NoError(t, txSvc.SetManualCogs(ctx, id, d(t, "33.00")))

	// A rule that would match leaves the override alone.
	seedRule(t, rules, "ETB", []string{"etb"}, "40.00", 85)
	got, err := txSvc.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, got.Cogs.Decimal.Equal(d(t, "33.00")))
	require.Equal(t, repository.CogsSourceManual, *got.CogsSource)

	// Clearing hands the line back to the matcher.
	require.NoError(t, txSvc.ClearManualCogs(ctx, id))
	got, err = txSvc.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, got.Cogs.Decimal.Equal(d(t, "40.00")))
	require.Equal(t, repository.CogsSourceRule, *got.CogsSource)

	show, err := repository.NewShowRepo(db).Get(ctx, res.ShowID)
	require.NoError(t, err)
	require.True(t, show.TotalCogs.Equal(d(t, "40.00")))
}

func TestRuleDryRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	importer := &Importer{DB: db}

	_, err := importer.ImportShow(ctx, ShowBatch{
		Name: "Friday Fiesta",
		Date: "2026-08-21",
		Rows: []ImportRow{
			mkRow("2026-08-21", "Surging Sparks ETB", "alice", "100.00"),
			mkRow("2026-08-21", "Booster Bundle", "bob", "15.00"),
		},
	})
	require.NoError(t, err)

	svc := &RuleService{DB: db}
	matched, err := svc.Test(ctx, RuleInput{
		Name:       "ETB",
		Keywords:   []string{"etb"},
		CogsAmount: d(t, "40.00"),
		MatchType:  repository.MatchContains,
	}, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"Surging Sparks ETB"}, matched)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cogs_rules").Scan(&count))
	require.Zero(t, count, "dry run must not persist the rule")
}
