package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kanto/showledger/internal/database/repository"
)

var hundred = decimal.NewFromInt(100)

// NetFromParts computes net revenue from the fee breakdown.
func NetFromParts(gross, discount, commission, fee, paymentFee, shipping decimal.Decimal) decimal.Decimal {
	return gross.Sub(discount).Sub(commission).Sub(fee).Sub(paymentFee).Sub(shipping)
}

// ApplyCosting assigns cogs, profit and ROI on t from the matcher. The COGS
// amount is flat per line, not multiplied by quantity. Manual overrides are
// left untouched. When no active rule matches, any rule-assigned costing is
// cleared. Re-running with an unchanged rule set is a no-op.
// Returns whether t ends up with COGS assigned.
func ApplyCosting(t *repository.Transaction, m *Matcher) bool {
	if t.CogsSource != nil && *t.CogsSource == repository.CogsSourceManual {
		return t.Cogs.Valid
	}

	rule, ok := m.Match(t.ItemName)
	if !ok {
		t.Cogs = decimal.NullDecimal{}
		t.Profit = decimal.NullDecimal{}
		t.ROI = decimal.NullDecimal{}
		t.CogsSource = nil
		t.MatchedRuleID = nil
		return false
	}

	source := repository.CogsSourceRule
	ruleID := rule.ID
	setCosting(t, rule.CogsAmount)
	t.CogsSource = &source
	t.MatchedRuleID = &ruleID
	return true
}

// setCosting fills cogs/profit/roi from a known COGS amount.
func setCosting(t *repository.Transaction, cogs decimal.Decimal) {
	profit := t.Net.Sub(cogs)
	t.Cogs = decimal.NullDecimal{Decimal: cogs, Valid: true}
	t.Profit = decimal.NullDecimal{Decimal: profit, Valid: true}
	if cogs.IsPositive() {
		t.ROI = decimal.NullDecimal{Decimal: profit.Div(cogs).Mul(hundred), Valid: true}
	} else {
		t.ROI = decimal.NullDecimal{}
	}
}

// reprocessTransactions re-runs costing over every stored transaction with
// the given matcher and persists only the rows whose costing changed.
func reprocessTransactions(ctx context.Context, txRepo *repository.TransactionRepo, m *Matcher) (int, error) {
	all, err := txRepo.List(ctx, repository.TransactionFilters{})
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, t := range all {
		before := costingOf(t)
		ApplyCosting(&t, m)
		if costingOf(t) == before {
			continue
		}
		if err := txRepo.UpdateCosting(ctx, t); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// costingOf flattens the costing fields into a comparable value.
type costing struct {
	cogs, profit, roi string
	source, ruleID    string
}

func costingOf(t repository.Transaction) costing {
	c := costing{}
	if t.Cogs.Valid {
		c.cogs = t.Cogs.Decimal.String()
	}
	if t.Profit.Valid {
		c.profit = t.Profit.Decimal.String()
	}
	if t.ROI.Valid {
		c.roi = t.ROI.Decimal.String()
	}
	if t.CogsSource != nil {
		c.source = *t.CogsSource
	}
	if t.MatchedRuleID != nil {
		c.ruleID = *t.MatchedRuleID
	}
	return c
}
