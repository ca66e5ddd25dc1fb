package repository

import (
	"context"
	"database/sql"
)

// BuyerRepo stores normalized buyers.
type BuyerRepo struct{ db DBTX }

func NewBuyerRepo(db DBTX) *BuyerRepo { return &BuyerRepo{db: db} }

const buyerColumns = `id, username, total_purchases, total_spent, avg_purchase_price,
 repeat_buyer, first_purchase, last_purchase, created_at, updated_at`

func (r *BuyerRepo) Insert(ctx context.Context, b Buyer) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO buyers(id, username, created_at, updated_at)
	VALUES(?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, b.ID, b.Username)
	return err
}

func (r *BuyerRepo) Get(ctx context.Context, id string) (*Buyer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+buyerColumns+` FROM buyers WHERE id = ?`, id)
	b, err := scanBuyer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BuyerRepo) FindByUsername(ctx context.Context, username string) (*Buyer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+buyerColumns+` FROM buyers WHERE username = ?`, username)
	b, err := scanBuyer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BuyerRepo) List(ctx context.Context) ([]Buyer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+buyerColumns+` FROM buyers ORDER BY CAST(total_spent AS REAL) DESC, username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Buyer
	for rows.Next() {
		b, err := scanBuyer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// IDs returns every buyer id.
func (r *BuyerRepo) IDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM buyers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UpdateAggregates overwrites the derived columns.
func (r *BuyerRepo) UpdateAggregates(ctx context.Context, b Buyer) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE buyers
	SET total_purchases = ?, total_spent = ?, avg_purchase_price = ?,
	    repeat_buyer = ?, first_purchase = ?, last_purchase = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?
	`, b.TotalPurchases, b.TotalSpent, b.AvgPurchasePrice,
		b.RepeatBuyer, b.FirstPurchase, b.LastPurchase, b.ID)
	return err
}

func scanBuyer(row scanner) (Buyer, error) {
	var b Buyer
	var first, last sql.NullString
	if err := row.Scan(&b.ID, &b.Username, &b.TotalPurchases, &b.TotalSpent, &b.AvgPurchasePrice,
		&b.RepeatBuyer, &first, &last, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return Buyer{}, err
	}
	b.FirstPurchase = nullableStr(first)
	b.LastPurchase = nullableStr(last)
	return b, nil
}
