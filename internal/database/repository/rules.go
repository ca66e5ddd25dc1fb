package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// RuleRepo stores keyword COGS rules.
type RuleRepo struct{ db DBTX }

func NewRuleRepo(db DBTX) *RuleRepo { return &RuleRepo{db: db} }

const ruleColumns = `id, name, keywords, cogs_amount, match_type, priority, active, category, notes, created_at, updated_at`

func (r *RuleRepo) Insert(ctx context.Context, rule Rule) error {
	kw, err := json.Marshal(rule.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO cogs_rules(id, name, keywords, cogs_amount, match_type, priority, active, category, notes, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, rule.ID, rule.Name, string(kw), rule.CogsAmount, rule.MatchType, rule.Priority, rule.Active, rule.Category, rule.Notes)
	return err
}

func (r *RuleRepo) Update(ctx context.Context, rule Rule) error {
	kw, err := json.Marshal(rule.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
	UPDATE cogs_rules
	SET name = ?, keywords = ?, cogs_amount = ?, match_type = ?, priority = ?, active = ?, category = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?
	`, rule.Name, string(kw), rule.CogsAmount, rule.MatchType, rule.Priority, rule.Active, rule.Category, rule.Notes, rule.ID)
	return err
}

func (r *RuleRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cogs_rules WHERE id = ?`, id)
	return err
}

func (r *RuleRepo) Get(ctx context.Context, id string) (*Rule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM cogs_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// List returns rules ordered by priority descending; on equal priority the
// oldest rule sorts first, then by id. activeOnly restricts to active rules.
func (r *RuleRepo) List(ctx context.Context, activeOnly bool) ([]Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM cogs_rules`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY priority DESC, created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func scanRule(row scanner) (Rule, error) {
	var rule Rule
	var kw string
	var category, notes sql.NullString
	if err := row.Scan(&rule.ID, &rule.Name, &kw, &rule.CogsAmount, &rule.MatchType,
		&rule.Priority, &rule.Active, &category, &notes, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
		return Rule{}, err
	}
	if err := json.Unmarshal([]byte(kw), &rule.Keywords); err != nil {
		return Rule{}, fmt.Errorf("unmarshal keywords: %w", err)
	}
	rule.Category = nullableStr(category)
	rule.Notes = nullableStr(notes)
	return rule, nil
}
