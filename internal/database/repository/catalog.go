package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// CatalogRepo stores master catalog entries.
type CatalogRepo struct{ db DBTX }

func NewCatalogRepo(db DBTX) *CatalogRepo { return &CatalogRepo{db: db} }

const catalogColumns = `id, name, category, image_url, image_ref, image_filename, keywords, created_at, updated_at`

func (r *CatalogRepo) Insert(ctx context.Context, item CatalogItem) error {
	kw, err := json.Marshal(item.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO catalog_items(id, name, category, image_url, image_ref, image_filename, keywords, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, item.ID, item.Name, item.Category, item.ImageURL, item.ImageRef, item.ImageFilename, string(kw))
	return err
}

func (r *CatalogRepo) Get(ctx context.Context, id string) (*CatalogItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+catalogColumns+` FROM catalog_items WHERE id = ?`, id)
	return oneCatalogItem(row)
}

// FindByRef looks up an entry by normalized image reference.
func (r *CatalogRepo) FindByRef(ctx context.Context, ref string) (*CatalogItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+catalogColumns+` FROM catalog_items WHERE image_ref = ?`, ref)
	return oneCatalogItem(row)
}

// FindByName looks up an entry by exact, case-sensitive name.
func (r *CatalogRepo) FindByName(ctx context.Context, name string) (*CatalogItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+catalogColumns+` FROM catalog_items WHERE name = ?`, name)
	return oneCatalogItem(row)
}

func (r *CatalogRepo) List(ctx context.Context) ([]CatalogItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+catalogColumns+` FROM catalog_items ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM catalog_items WHERE id = ?`, id)
	return err
}

func oneCatalogItem(row scanner) (*CatalogItem, error) {
	item, err := scanCatalogItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func scanCatalogItem(row scanner) (CatalogItem, error) {
	var item CatalogItem
	var kw string
	if err := row.Scan(&item.ID, &item.Name, &item.Category, &item.ImageURL, &item.ImageRef,
		&item.ImageFilename, &kw, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return CatalogItem{}, err
	}
	if err := json.Unmarshal([]byte(kw), &item.Keywords); err != nil {
		return CatalogItem{}, fmt.Errorf("unmarshal keywords: %w", err)
	}
	return item, nil
}
