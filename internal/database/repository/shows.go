package repository

import (
	"context"
	"database/sql"
)

// ShowRepo stores shows and their derived aggregates.
type ShowRepo struct{ db DBTX }

func NewShowRepo(db DBTX) *ShowRepo { return &ShowRepo{db: db} }

const showColumns = `id, name, show_date, platform, source_file, notes,
 total_gross, total_discounts, total_fees, total_net, total_cogs, total_profit, roi,
 item_count, unique_buyers, avg_sale_price, imported_at, created_at, updated_at`

func (r *ShowRepo) Insert(ctx context.Context, s Show) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO shows(id, name, show_date, platform, source_file, notes, imported_at, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, s.ID, s.Name, s.Date, s.Platform, s.SourceFile, s.Notes)
	return err
}

func (r *ShowRepo) Get(ctx context.Context, id string) (*Show, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id)
	s, err := scanShow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetByKey looks up a show by its identity key (name, date).
func (r *ShowRepo) GetByKey(ctx context.Context, name, date string) (*Show, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE name = ? AND show_date = ?`, name, date)
	s, err := scanShow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *ShowRepo) List(ctx context.Context) ([]Show, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+showColumns+` FROM shows ORDER BY show_date DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Show
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes the show; transactions cascade via foreign key.
func (r *ShowRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, id)
	return err
}

// UpdateAggregates overwrites the derived columns.
func (r *ShowRepo) UpdateAggregates(ctx context.Context, s Show) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE shows
	SET total_gross = ?, total_discounts = ?, total_fees = ?, total_net = ?,
	    total_cogs = ?, total_profit = ?, roi = ?, item_count = ?, unique_buyers = ?,
	    avg_sale_price = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?
	`, s.TotalGross, s.TotalDiscounts, s.TotalFees, s.TotalNet,
		s.TotalCogs, s.TotalProfit, s.ROI, s.ItemCount, s.UniqueBuyers,
		s.AvgSalePrice, s.ID)
	return err
}

func scanShow(row scanner) (Show, error) {
	var s Show
	var sourceFile, notes sql.NullString
	if err := row.Scan(&s.ID, &s.Name, &s.Date, &s.Platform, &sourceFile, &notes,
		&s.TotalGross, &s.TotalDiscounts, &s.TotalFees, &s.TotalNet, &s.TotalCogs, &s.TotalProfit, &s.ROI,
		&s.ItemCount, &s.UniqueBuyers, &s.AvgSalePrice, &s.ImportedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return Show{}, err
	}
	s.SourceFile = nullableStr(sourceFile)
	s.Notes = nullableStr(notes)
	return s, nil
}
