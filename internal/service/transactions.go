package service

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/kanto/showledger/internal/database"
	"github.com/kanto/showledger/internal/database/repository"
)

// TransactionService exposes the transaction query surface and manual COGS
// overrides.
type TransactionService struct {
	DB *sql.DB
}

func (s *TransactionService) List(ctx context.Context, f repository.TransactionFilters) ([]repository.Transaction, error) {
	return repository.NewTransactionRepo(s.DB).List(ctx, f)
}

func (s *TransactionService) Get(ctx context.Context, id string) (*repository.Transaction, error) {
	return repository.NewTransactionRepo(s.DB).Get(ctx, id)
}

// SetManualCogs overrides one transaction's COGS. The override sticks: rule
// changes will not reprocess it until it is cleared.
func (s *TransactionService) SetManualCogs(ctx context.Context, id string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return validationf("cogs amount must not be negative, got %s", amount)
	}
	return database.WithTx(s.DB, func(tx *sql.Tx) error {
		repo := repository.NewTransactionRepo(tx)
		t, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return &NotFoundError{Entity: "transaction", ID: id}
		}
		manual := repository.CogsSourceManual
		setCosting(t, amount)
		t.CogsSource = &manual
		t.MatchedRuleID = nil
		if err := repo.UpdateCosting(ctx, *t); err != nil {
			return err
		}
		return s.recomputeScopes(ctx, tx, *t)
	})
}

// ClearManualCogs removes an override and re-runs the matcher for the
// transaction.
func (s *TransactionService) ClearManualCogs(ctx context.Context, id string) error {
	return database.WithTx(s.DB, func(tx *sql.Tx) error {
		repo := repository.NewTransactionRepo(tx)
		t, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return &NotFoundError{Entity: "transaction", ID: id}
		}
		active, err := repository.NewRuleRepo(tx).List(ctx, true)
		if err != nil {
			return err
		}
		t.CogsSource = nil
		ApplyCosting(t, NewMatcher(active))
		if err := repo.UpdateCosting(ctx, *t); err != nil {
			return err
		}
		return s.recomputeScopes(ctx, tx, *t)
	})
}

// recomputeScopes refreshes the aggregates a single-transaction edit touches.
func (s *TransactionService) recomputeScopes(ctx context.Context, tx *sql.Tx, t repository.Transaction) error {
	agg := NewAggregator(tx)
	if t.ShowID != nil {
		if err := agg.RecomputeShow(ctx, *t.ShowID); err != nil {
			return err
		}
	}
	if t.ProductID != nil {
		if err := agg.RecomputeProducts(ctx, []string{*t.ProductID}); err != nil {
			return err
		}
	}
	if t.BuyerID != nil {
		if err := agg.RecomputeBuyers(ctx, []string{*t.BuyerID}); err != nil {
			return err
		}
	}
	return nil
}
