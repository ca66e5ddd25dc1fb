package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kanto/showledger/internal/database"
	"github.com/kanto/showledger/internal/database/repository"
)

// RuleInput carries the editable fields of a COGS rule.
type RuleInput struct {
	Name       string
	Keywords   []string
	CogsAmount decimal.Decimal
	MatchType  string
	Priority   int
	Active     bool
	Category   string
	Notes      string
}

// RuleService manages the rule set. Every mutation retroactively reprocesses
// all transactions and recomputes every aggregate scope in the same storage
// transaction, so stored costing never lags the rule set.
type RuleService struct {
	DB *sql.DB
}

func (s *RuleService) Create(ctx context.Context, in RuleInput) (repository.Rule, error) {
	if err := validateRule(in); err != nil {
		return repository.Rule{}, err
	}
	rule := ruleFromInput(uuid.NewString(), in)
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		if err := repository.NewRuleRepo(tx).Insert(ctx, rule); err != nil {
			return err
		}
		return reprocessAndRecompute(ctx, tx)
	})
	if err != nil {
		return repository.Rule{}, err
	}
	return rule, nil
}

func (s *RuleService) Update(ctx context.Context, id string, in RuleInput) (repository.Rule, error) {
	if err := validateRule(in); err != nil {
		return repository.Rule{}, err
	}
	rule := ruleFromInput(id, in)
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		repo := repository.NewRuleRepo(tx)
		existing, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return &NotFoundError{Entity: "rule", ID: id}
		}
		rule.CreatedAt = existing.CreatedAt
		if err := repo.Update(ctx, rule); err != nil {
			return err
		}
		return reprocessAndRecompute(ctx, tx)
	})
	if err != nil {
		return repository.Rule{}, err
	}
	return rule, nil
}

func (s *RuleService) Delete(ctx context.Context, id string) error {
	return database.WithTx(s.DB, func(tx *sql.Tx) error {
		repo := repository.NewRuleRepo(tx)
		existing, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return &NotFoundError{Entity: "rule", ID: id}
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return reprocessAndRecompute(ctx, tx)
	})
}

func (s *RuleService) Get(ctx context.Context, id string) (*repository.Rule, error) {
	return repository.NewRuleRepo(s.DB).Get(ctx, id)
}

func (s *RuleService) List(ctx context.Context, activeOnly bool) ([]repository.Rule, error) {
	return repository.NewRuleRepo(s.DB).List(ctx, activeOnly)
}

// Test dry-runs a candidate rule against existing products without saving
// it, returning up to limit product names it would match.
func (s *RuleService) Test(ctx context.Context, in RuleInput, limit int) ([]string, error) {
	if err := validateRule(in); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rule := ruleFromInput("candidate", in)
	rule.Active = true
	m := NewMatcher([]repository.Rule{rule})

	products, err := repository.NewProductRepo(s.DB).List(ctx)
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, p := range products {
		if _, ok := m.Match(p.Name); ok {
			matched = append(matched, p.Name)
			if len(matched) >= limit {
				break
			}
		}
	}
	return matched, nil
}

func validateRule(in RuleInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return validationf("rule name required")
	}
	keywords := 0
	for _, kw := range in.Keywords {
		if strings.TrimSpace(kw) != "" {
			keywords++
		}
	}
	if keywords == 0 {
		return validationf("rule needs at least one keyword")
	}
	if !in.CogsAmount.IsPositive() {
		return validationf("cogs amount must be positive, got %s", in.CogsAmount)
	}
	if !ValidMatchType(in.MatchType) {
		return validationf("invalid match type %q", in.MatchType)
	}
	return nil
}

func ruleFromInput(id string, in RuleInput) repository.Rule {
	rule := repository.Rule{
		ID:         id,
		Name:       strings.TrimSpace(in.Name),
		Keywords:   in.Keywords,
		CogsAmount: in.CogsAmount,
		MatchType:  in.MatchType,
		Priority:   in.Priority,
		Active:     in.Active,
	}
	if in.Category != "" {
		c := in.Category
		rule.Category = &c
	}
	if in.Notes != "" {
		n := in.Notes
		rule.Notes = &n
	}
	return rule
}

// reprocessAndRecompute is the retroactive pass shared by all rule mutations.
func reprocessAndRecompute(ctx context.Context, tx *sql.Tx) error {
	rules := repository.NewRuleRepo(tx)
	active, err := rules.List(ctx, true)
	if err != nil {
		return err
	}
	m := NewMatcher(active)
	if _, err := reprocessTransactions(ctx, repository.NewTransactionRepo(tx), m); err != nil {
		return err
	}
	return NewAggregator(tx).RecomputeAll(ctx)
}
