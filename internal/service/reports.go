package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kanto/showledger/internal/database/repository"
)

// ReportsService derives read-only analytics from stored transactions.
type ReportsService struct {
	DB *sql.DB
}

// CoverageReport summarizes how much of the ledger carries COGS.
type CoverageReport struct {
	Total      int
	WithCogs   int
	BySaleType []repository.SaleTypeCoverage
}

// Percent returns coverage as 0-100, zero on an empty ledger.
func (c CoverageReport) Percent() decimal.Decimal {
	if c.Total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(c.WithCogs)).Div(decimal.NewFromInt(int64(c.Total))).Mul(hundred)
}

// Coverage reports COGS coverage overall and per sale type.
func (s *ReportsService) Coverage(ctx context.Context) (CoverageReport, error) {
	byType, err := repository.NewTransactionRepo(s.DB).Coverage(ctx)
	if err != nil {
		return CoverageReport{}, err
	}
	report := CoverageReport{BySaleType: byType}
	for _, c := range byType {
		report.Total += c.Total
		report.WithCogs += c.WithCogs
	}
	return report, nil
}

// RulePerformance is the match footprint of one rule.
type RulePerformance struct {
	Rule        repository.Rule
	Matches     int
	TotalCogs   decimal.Decimal
	TotalProfit decimal.Decimal
}

// RulePerformance reports, per rule, how many stored transactions it costed
// and the COGS and profit it accounts for. Rules with zero matches are
// included so dead rules stand out. Sorted by matches descending.
func (s *ReportsService) RulePerformance(ctx context.Context) ([]RulePerformance, error) {
	rules, err := repository.NewRuleRepo(s.DB).List(ctx, false)
	if err != nil {
		return nil, err
	}
	txs, err := repository.NewTransactionRepo(s.DB).List(ctx, repository.TransactionFilters{})
	if err != nil {
		return nil, err
	}

	byRule := map[string]*RulePerformance{}
	perf := make([]RulePerformance, len(rules))
	for i, r := range rules {
		perf[i] = RulePerformance{Rule: r}
		byRule[r.ID] = &perf[i]
	}
	for _, t := range txs {
		if t.MatchedRuleID == nil {
			continue
		}
		p, ok := byRule[*t.MatchedRuleID]
		if !ok {
			continue
		}
		p.Matches++
		if t.Cogs.Valid {
			p.TotalCogs = p.TotalCogs.Add(t.Cogs.Decimal)
		}
		if t.Profit.Valid {
			p.TotalProfit = p.TotalProfit.Add(t.Profit.Decimal)
		}
	}

	sort.SliceStable(perf, func(i, j int) bool { return perf[i].Matches > perf[j].Matches })
	return perf, nil
}

// Summary is the whole-ledger profit picture.
type Summary struct {
	Shows        int
	Transactions int
	TotalGross   decimal.Decimal
	TotalNet     decimal.Decimal
	TotalCogs    decimal.Decimal
	TotalProfit  decimal.Decimal
	ROI          decimal.NullDecimal
	Coverage     CoverageReport
}

// Summary aggregates every stored transaction into one overview.
func (s *ReportsService) Summary(ctx context.Context) (Summary, error) {
	shows, err := repository.NewShowRepo(s.DB).List(ctx)
	if err != nil {
		return Summary{}, err
	}
	txs, err := repository.NewTransactionRepo(s.DB).List(ctx, repository.TransactionFilters{})
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Shows: len(shows), Transactions: len(txs)}
	for _, t := range txs {
		sum.TotalGross = sum.TotalGross.Add(t.Gross)
		sum.TotalNet = sum.TotalNet.Add(t.Net)
		if t.Cogs.Valid {
			sum.TotalCogs = sum.TotalCogs.Add(t.Cogs.Decimal)
			sum.Coverage.WithCogs++
		}
		if t.Profit.Valid {
			sum.TotalProfit = sum.TotalProfit.Add(t.Profit.Decimal)
		}
	}
	sum.Coverage.Total = len(txs)
	if sum.TotalCogs.IsPositive() {
		sum.ROI = decimal.NullDecimal{Decimal: sum.TotalProfit.Div(sum.TotalCogs).Mul(hundred), Valid: true}
	}
	return sum, nil
}

// CatalogPerformance ties one catalog entry to the sales its keywords cover.
type CatalogPerformance struct {
	Item       repository.CatalogItem
	Matches    int
	TotalGross decimal.Decimal
	TotalNet   decimal.Decimal
}

// CatalogPerformance reports sales volume per catalog entry by substring
// matching each entry's keywords against normalized item names. First
// matching entry wins per transaction, in catalog list order.
func (s *ReportsService) CatalogPerformance(ctx context.Context) ([]CatalogPerformance, error) {
	items, err := repository.NewCatalogRepo(s.DB).List(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := repository.NewTransactionRepo(s.DB).List(ctx, repository.TransactionFilters{})
	if err != nil {
		return nil, err
	}

	perf := make([]CatalogPerformance, len(items))
	for i, item := range items {
		perf[i] = CatalogPerformance{Item: item}
	}
	for _, t := range txs {
		normalized := NormalizeItemName(t.ItemName)
		for i := range perf {
			if !catalogItemMatches(perf[i].Item, normalized) {
				continue
			}
			perf[i].Matches++
			perf[i].TotalGross = perf[i].TotalGross.Add(t.Gross)
			perf[i].TotalNet = perf[i].TotalNet.Add(t.Net)
			break
		}
	}

	sort.SliceStable(perf, func(i, j int) bool { return perf[i].Matches > perf[j].Matches })
	return perf, nil
}

func catalogItemMatches(item repository.CatalogItem, normalized string) bool {
	for _, kw := range item.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}
