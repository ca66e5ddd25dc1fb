package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kanto/showledger/internal/database/repository"
)

func TestCoverageCountsUnmatchedInDenominatorOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	seedRule(t, &RuleService{DB: db}, "ETB", []string{"etb"}, "40.00", 85)

	importer := &Importer{DB: db}
	_, err := importer.ImportShow(ctx, ShowBatch{
		Name: "Friday Fiesta",
		Date: "2026-08-21",
		Rows: []ImportRow{
			mkRow("2026-08-21", "Surging Sparks ETB", "alice", "100.00"),
			mkRow("2026-08-21", "Mystery Pack", "bob", "20.00"), // no rule matches
		},
	})
	require.NoError(t, err)
	_, err = importer.ImportMarketplace(ctx, []ImportRow{
		mkRow("2026-08-22", "White Flare ETB", "carol", "95.00"),
	})
	require.NoError(t, err)

	svc := &ReportsService{DB: db}
	coverage, err := svc.Coverage(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, coverage.Total)
	require.Equal(t, 2, coverage.WithCogs)
	require.True(t, coverage.Percent().Round(2).Equal(d(t, "66.67")), "got %s", coverage.Percent())

	byType := map[string]repository.SaleTypeCoverage{}
	for _, c := range coverage.BySaleType {
		byType[c.SaleType] = c
	}
	require.Equal(t, 2, byType[repository.SaleTypeStream].Total)
	require.Equal(t, 1, byType[repository.SaleTypeStream].WithCogs)
	require.Equal(t, 1, byType[repository.SaleTypeMarketplace].Total)
	require.Equal(t, 1, byType[repository.SaleTypeMarketplace].WithCogs)
}

func TestRulePerformance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	rules := &RuleService{DB: db}
	etb := seedRule(t, rules, "ETB", []string{"etb"}, "40.00", 85)
	bundle := seedRule(t, rules, "Bundle", []string{"booster bundle"}, "15.00", 80)
	unused := seedRule(t, rules, "UPC", []string{"ultra premium"}, "110.00", 90)

	importer := &Importer{DB: db}
	_, err := importer.ImportShow(ctx, ShowBatch{
		Name: "Friday Fiesta",
		Date: "2026-08-21",
		Rows: []ImportRow{
			mkRow("2026-08-21", "Surging Sparks ETB", "alice", "100.00"),
			mkRow("2026-08-21", "White Flare ETB", "bob", "95.00"),
			mkRow("2026-08-21", "Phantasmal Flames Booster Bundle", "alice", "30.00"),
		},
	})
	require.NoError(t, err)

	perf, err := (&ReportsService{DB: db}).RulePerformance(ctx)
	require.NoError(t, err)
	require.Len(t, perf, 3)

	require.Equal(t, etb.ID, perf[0].Rule.ID)
	require.Equal(t, 2, perf[0].Matches)
	require.True(t, perf[0].TotalCogs.Equal(d(t, "80.00")))
	require.True(t, perf[0].TotalProfit.Equal(d(t, "115.00")))

	require.Equal(t, bundle.ID, perf[1].Rule.ID)
	require.Equal(t, 1, perf[1].Matches)

	require.Equal(t, unused.ID, perf[2].Rule.ID)
	require.Zero(t, perf[2].Matches, "dead rules still appear")
}

func TestSummary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	seedRule(t, &RuleService{DB: db}, "ETB", []string{"etb"}, "40.00", 85)

	importer := &Importer{DB: db}
	_, err := importer.ImportShow(ctx, ShowBatch{
		Name: "Friday Fiesta",
		Date: "2026-08-21",
		Rows: []ImportRow{
			mkRow("2026-08-21", "Surging Sparks ETB", "alice", "100.00"),
			mkRow("2026-08-21", "Mystery Pack", "bob", "20.00"),
		},
	})
	require.NoError(t, err)

	sum, err := (&ReportsService{DB: db}).Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Shows)
	require.Equal(t, 2, sum.Transactions)
	require.True(t, sum.TotalGross.Equal(d(t, "120.00")))
	require.True(t, sum.TotalCogs.Equal(d(t, "40.00")))
	require.True(t, sum.TotalProfit.Equal(d(t, "60.00")))
	require.True(t, sum.ROI.Valid)
	require.True(t, sum.ROI.Decimal.Equal(d(t, "150")))
}

func TestSummaryEmptyLedgerHasNoROI(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	sum, err := (&ReportsService{DB: db}).Summary(context.Background())
	require.NoError(t, err)
	require.Zero(t, sum.Transactions)
	require.False(t, sum.ROI.Valid)
}
