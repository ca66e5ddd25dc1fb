package repository

import (
	"context"
	"database/sql"
)

// ProductRepo stores normalized products.
type ProductRepo struct{ db DBTX }

func NewProductRepo(db DBTX) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `id, name, normalized_name, category, times_sold, total_quantity,
 total_gross, total_net, avg_sale_price, first_sold, last_sold, created_at, updated_at`

func (r *ProductRepo) Insert(ctx context.Context, p Product) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO products(id, name, normalized_name, category, created_at, updated_at)
	VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, p.ID, p.Name, p.NormalizedName, p.Category)
	return err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindByNormalized looks up a product by its normalized identity string.
func (r *ProductRepo) FindByNormalized(ctx context.Context, normalized string) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE normalized_name = ?`, normalized)
	p, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY CAST(total_gross AS REAL) DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// IDs returns every product id.
func (r *ProductRepo) IDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM products`)
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
func (r *ProductRepo) UpdateAggregates(ctx context.Context, p Product) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE products
	SET times_sold = ?, total_quantity = ?, total_gross = ?, total_net = ?,
	    avg_sale_price = ?, first_sold = ?, last_sold = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?
	`, p.TimesSold, p.TotalQuantity, p.TotalGross, p.TotalNet,
		p.AvgSalePrice, p.FirstSold, p.LastSold, p.ID)
	return err
}

func scanProduct(row scanner) (Product, error) {
	var p Product
	var category, firstSold, lastSold sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.NormalizedName, &category, &p.TimesSold, &p.TotalQuantity,
		&p.TotalGross, &p.TotalNet, &p.AvgSalePrice, &firstSold, &lastSold, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	p.Category = nullableStr(category)
	p.FirstSold = nullableStr(firstSold)
	p.LastSold = nullableStr(lastSold)
	return p, nil
}
