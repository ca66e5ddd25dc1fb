package repository

import (
	"context"
	"database/sql"
	"strings"
)

// TransactionFilters defines list filters.
type TransactionFilters struct {
	SaleType  string
	ShowID    string
	ProductID string
	BuyerID   string
	HasCogs   *bool
	Search    string
}

// TransactionRepo handles sales transactions.
type TransactionRepo struct{ db DBTX }

func NewTransactionRepo(db DBTX) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionColumns = `id, show_id, sale_type, sold_at, item_name, quantity, product_id, buyer_id,
 gross, discount, commission, fee, payment_fee, shipping, net,
 cogs, profit, roi, cogs_source, matched_rule_id, payment_status, row_number, notes, created_at, updated_at`

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, show_id, sale_type, sold_at, item_name, quantity, product_id, buyer_id,
	 gross, discount, commission, fee, payment_fee, shipping, net,
	 cogs, profit, roi, cogs_source, matched_rule_id, payment_status, row_number, notes,
	 created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`,
		t.ID, t.ShowID, t.SaleType, t.SoldAt, t.ItemName, t.Quantity, t.ProductID, t.BuyerID,
		t.Gross, t.Discount, t.Commission, t.Fee, t.PaymentFee, t.Shipping, t.Net,
		t.Cogs, t.Profit, t.ROI, t.CogsSource, t.MatchedRuleID, t.PaymentStatus, t.RowNumber, t.Notes)
	return err
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	var where []string
	var args []interface{}

	if f.SaleType != "" {
		where = append(where, "sale_type = ?")
		args = append(args, f.SaleType)
	}
	if f.ShowID != "" {
		where = append(where, "show_id = ?")
		args = append(args, f.ShowID)
	}
	if f.ProductID != "" {
		where = append(where, "product_id = ?")
		args = append(args, f.ProductID)
	}
	if f.BuyerID != "" {
		where = append(where, "buyer_id = ?")
		args = append(args, f.BuyerID)
	}
	if f.HasCogs != nil {
		if *f.HasCogs {
			where = append(where, "cogs IS NOT NULL")
		} else {
			where = append(where, "cogs IS NULL")
		}
	}
	if f.Search != "" {
		where = append(where, "item_name LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sold_at DESC, created_at DESC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateCosting overwrites the COGS-derived fields.
func (r *TransactionRepo) UpdateCosting(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE transactions
	SET cogs = ?, profit = ?, roi = ?, cogs_source = ?, matched_rule_id = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?
	`, t.Cogs, t.Profit, t.ROI, t.CogsSource, t.MatchedRuleID, t.ID)
	return err
}

// SaleTypeCoverage is the COGS coverage of one sale type.
type SaleTypeCoverage struct {
	SaleType string
	Total    int
	WithCogs int
}

// Coverage counts transactions with and without COGS per sale type.
func (r *TransactionRepo) Coverage(ctx context.Context) ([]SaleTypeCoverage, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT sale_type, COUNT(*), SUM(CASE WHEN cogs IS NOT NULL THEN 1 ELSE 0 END)
	FROM transactions
	GROUP BY sale_type
	ORDER BY sale_type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaleTypeCoverage
	for rows.Next() {
		var c SaleTypeCoverage
		if err := rows.Scan(&c.SaleType, &c.Total, &c.WithCogs); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var showID, productID, buyerID, cogsSource, ruleID, payStatus, notes sql.NullString
	var rowNum sql.NullInt64
	if err := row.Scan(&t.ID, &showID, &t.SaleType, &t.SoldAt, &t.ItemName, &t.Quantity, &productID, &buyerID,
		&t.Gross, &t.Discount, &t.Commission, &t.Fee, &t.PaymentFee, &t.Shipping, &t.Net,
		&t.Cogs, &t.Profit, &t.ROI, &cogsSource, &ruleID, &payStatus, &rowNum, &notes,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	t.ShowID = nullableStr(showID)
	t.ProductID = nullableStr(productID)
	t.BuyerID = nullableStr(buyerID)
	t.CogsSource = nullableStr(cogsSource)
	t.MatchedRuleID = nullableStr(ruleID)
	t.PaymentStatus = nullableStr(payStatus)
	t.RowNumber = nullableInt(rowNum)
	t.Notes = nullableStr(notes)
	return t, nil
}
