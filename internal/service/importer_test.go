package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kanto/showledger/internal/database/repository"
)

func seedRule(t *testing.T, svc *RuleService, name string, keywords []string, cogs string, priority int) repository.Rule {
	t.Helper()
	rule, err := svc.Create(context.Background(), RuleInput{
		Name:       name,
		Keywords:   keywords,
		CogsAmount: d(t, cogs),
		MatchType:  repository.MatchContains,
		Priority:   priority,
		Active:     true,
	})
	require.NoError(t, err)
	return rule
}

func TestImportShow(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db := newTestDB(t)

	seedRule(t, &RuleService{DB: db}, "ETB", []string{"etb", "elite trainer box"}, "40.00", 85)

	importer := &Importer{DB: db}
	batch := ShowBatch{
		Name: "Friday Fiesta",
		Date: "2026-08-21",
		Rows: []ImportRow{
			mkRow("2026-08-21", "Friday Fiesta - 🌀🧿 Elite Trainer Box - White Flare", "alice", "100.00"),
			mkRow("2026-08-21", "Surging Sparks ETB", "bob", "100.00"),
			mkRow("2026-08-21", "Mystery Pack", "alice", "20.00"),
		},
	}
	res, err := importer.ImportShow(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 3, res.Imported)
	require.Equal(t, 2, res.CogsAssigned)
	require.Equal(t, 1, res.CogsMissing)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "Mystery Pack")

	show, err := repository.NewShowRepo(db).Get(ctx, res.ShowID)
	require.NoError(t, err)
	require.NotNil(t, show)
	require.Equal(t, "WhatNot", show.Platform)
	require.Equal(t, 3, show.ItemCount)
	require.Equal(t, 2, show.UniqueBuyers)
	require.True(t, show.TotalGross.Equal(d(t, "220.00")), "got %s", show.TotalGross)
	require.True(t, show.TotalCogs.Equal(d(t, "80.00")))
	require.True(t, show.TotalProfit.Equal(d(t, "120.00")), "profit only sums costed lines")
	require.True(t, show.ROI.Valid)
	require.True(t, show.ROI.Decimal.Equal(d(t, "150")), "got %s", show.ROI.Decimal)

	// Same item name lands on the same product despite decorations.
	products, err := repository.NewProductRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)

	buyers, err := repository.NewBuyerRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, buyers, 2)
	for _, b := range buyers {
		if b.Username == "alice" {
			require.Equal(t, 2, b.TotalPurchases)
			require.True(t, b.RepeatBuyer)
			require.True(t, b.TotalSpent.Equal(d(t, "120.00")))
		} else {
			require.Equal(t, "bob", b.Username)
			require.False(t, b.RepeatBuyer)
		}
	}
}

func TestImportShowSharedProductAcrossShows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	importer := &Importer{DB: db}

	_, err := importer.ImportShow(ctx, ShowBatch{
		Name: "Show One", Date: "2026-08-01",
		Rows: []ImportRow{mkRow("2026-08-01", "Surging Sparks ETB", "alice", "95.00")},
	})
	require.NoError(t, err)
	_, err = importer.ImportShow(ctx, ShowBatch{
		Name: "Show Two", Date: "2026-08-08",
		Rows: []ImportRow{mkRow("2026-08-08", "🔥 Surging Sparks ETB 🔥", "bob", "105.00")},
	})
	require.NoError(t, err)

	products, err := repository.NewProductRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1, "normalization merges decorated names")
	require.Equal(t, 2, products[0].TimesSold)
	require.True(t, products[0].TotalGross.Equal(d(t, "200.00")))
	require.Equal(t, "2026-08-01", *products[0].FirstSold)
	require.Equal(t, "2026-08-08", *products[0].LastSold)
}

func TestImportShowDuplicateRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	importer := &Importer{DB: db}

	batch := ShowBatch{
		Name: "Friday Fiesta",
		Date: "2026-08-21",
		Rows: []ImportRow{mkRow("2026-08-21", "Surging Sparks ETB", "alice", "100.00")},
	}
	_, err := importer.ImportShow(ctx, batch)
	require.NoError(t, err)

	_, err = importer.ImportShow(ctx, batch)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "show", conflict.Entity)
	require.NotEmpty(t, conflict.ID)

	// Same name on a different date is a different show.
	batch.Date = "2026-08-28"
	_, err = importer.ImportShow(ctx, batch)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count))
	require.Equal(t, 2, count, "rejected import must not add rows")
}

func TestImportShowAllOrNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	importer := &Importer{DB: db}

	bad := mkRow("2026-08-21", "Surging Sparks ETB", "", "100.00") // no buyer
	_, err := importer.ImportShow(ctx, ShowBatch{
		Name: "Friday Fiesta",
		Date: "2026-08-21",
		Rows: []ImportRow{mkRow("2026-08-21", "Booster Bundle", "alice", "15.00"), bad},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	var shows, txs int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM shows").Scan(&shows))
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&txs))
	require.Zero(t, shows)
	require.Zero(t, txs)
}

func TestImportMarketplaceSheetCogsIsManual(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	importer := &Importer{DB: db}

	row := mkRow("2026-08-10", "Prismatic Evolutions Booster Bundle", "carol", "30.00")
	row.Cogs = nullDec(t, "18.50")
	res, err := importer.ImportMarketplace(ctx, []ImportRow{row})
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)
	require.Equal(t, 1, res.CogsAssigned)
	require.Empty(t, res.ShowID)

	txs, err := repository.NewTransactionRepo(db).List(ctx, repository.TransactionFilters{SaleType: repository.SaleTypeMarketplace})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Nil(t, txs[0].ShowID)
	require.True(t, txs[0].Cogs.Decimal.Equal(d(t, "18.50")))
	require.Equal(t, repository.CogsSourceManual, *txs[0].CogsSource)
	require.Nil(t, txs[0].MatchedRuleID)
}

func TestDeleteShowCascades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	importer := &Importer{DB: db}

	res, err := importer.ImportShow(ctx, ShowBatch{
		Name: "Friday Fiesta",
		Date: "2026-08-21",
		Rows: []ImportRow{
			mkRow("2026-08-21", "Surging Sparks ETB", "alice", "100.00"),
			mkRow("2026-08-21", "Booster Bundle", "alice", "15.00"),
		},
	})
	require.NoError(t, err)

	require.NoError(t, importer.DeleteShow(ctx, res.ShowID))

	var txs int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&txs))
	require.Zero(t, txs)

	// Product and buyer rollups drop to zero rather than lingering.
	products, err := repository.NewProductRepo(db).List(ctx)
	require.NoError(t, err)
	for _, p := range products {
		require.Zero(t, p.TimesSold)
		require.True(t, p.TotalGross.IsZero())
	}

	var nf *NotFoundError
	require.ErrorAs(t, importer.DeleteShow(ctx, res.ShowID), &nf)
}
