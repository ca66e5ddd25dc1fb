package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kanto/showledger/internal/database"
	"github.com/kanto/showledger/internal/database/repository"
)

// ImportRow is one already-parsed sales line handed over by the spreadsheet
// import collaborator.
type ImportRow struct {
	Date          time.Time
	ItemName      string
	Quantity      int
	Buyer         string
	Gross         decimal.Decimal
	Discount      decimal.Decimal
	Commission    decimal.Decimal
	Fee           decimal.Decimal
	PaymentFee    decimal.Decimal
	Shipping      decimal.Decimal
	Net           decimal.NullDecimal // supplied upstream; computed from parts when absent
	Cogs          decimal.NullDecimal // supplied upstream (marketplace sheets); treated as manual
	PaymentStatus string
	Notes         string
}

// ShowBatch is a full show import: identity key plus its rows.
type ShowBatch struct {
	Name       string
	Date       string // YYYY-MM-DD
	Platform   string
	SourceFile string
	Notes      string
	Rows       []ImportRow
}

// ImportResult summarizes one import.
type ImportResult struct {
	ShowID       string
	Imported     int
	CogsAssigned int
	CogsMissing  int
	Warnings     []string
}

// Importer admits or rejects sales batches. Each import is all-or-nothing:
// a duplicate show identity or any structurally invalid row aborts the whole
// batch before anything persists.
type Importer struct {
	DB *sql.DB
}

// ImportShow imports one show batch. A show with the same (name, date) key
// causes a ConflictError; the existing show must be deleted first.
func (s *Importer) ImportShow(ctx context.Context, batch ShowBatch) (ImportResult, error) {
	if strings.TrimSpace(batch.Name) == "" {
		return ImportResult{}, validationf("show name required")
	}
	if _, err := time.Parse(time.DateOnly, batch.Date); err != nil {
		return ImportResult{}, validationf("show date %q: want YYYY-MM-DD", batch.Date)
	}
	if len(batch.Rows) == 0 {
		return ImportResult{}, validationf("batch has no rows")
	}
	if err := validateRows(batch.Rows); err != nil {
		return ImportResult{}, err
	}

	platform := batch.Platform
	if platform == "" {
		platform = "WhatNot"
	}

	var res ImportResult
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		shows := repository.NewShowRepo(tx)

		existing, err := shows.GetByKey(ctx, batch.Name, batch.Date)
		if err != nil {
			return err
		}
		if existing != nil {
			return &ConflictError{
				Entity: "show",
				ID:     existing.ID,
				Msg: fmt.Sprintf("show %q on %s already imported (id %s); delete it before re-importing",
					batch.Name, batch.Date, existing.ID),
			}
		}

		show := repository.Show{
			ID:       uuid.NewString(),
			Name:     batch.Name,
			Date:     batch.Date,
			Platform: platform,
		}
		if batch.SourceFile != "" {
			show.SourceFile = &batch.SourceFile
		}
		if batch.Notes != "" {
			show.Notes = &batch.Notes
		}
		if err := shows.Insert(ctx, show); err != nil {
			return err
		}

		res, err = s.insertRows(ctx, tx, &show.ID, repository.SaleTypeStream, batch.Rows)
		if err != nil {
			return err
		}
		res.ShowID = show.ID

		agg := NewAggregator(tx)
		return agg.RecomputeShow(ctx, show.ID)
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

// ImportMarketplace imports show-less marketplace orders.
func (s *Importer) ImportMarketplace(ctx context.Context, rows []ImportRow) (ImportResult, error) {
	if len(rows) == 0 {
		return ImportResult{}, validationf("batch has no rows")
	}
	if err := validateRows(rows); err != nil {
		return ImportResult{}, err
	}

	var res ImportResult
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		var err error
		res, err = s.insertRows(ctx, tx, nil, repository.SaleTypeMarketplace, rows)
		return err
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

// DeleteShow removes a show and, via cascade, its transactions, then rebuilds
// the product and buyer rollups the deletion touched.
func (s *Importer) DeleteShow(ctx context.Context, showID string) error {
	return database.WithTx(s.DB, func(tx *sql.Tx) error {
		shows := repository.NewShowRepo(tx)
		show, err := shows.Get(ctx, showID)
		if err != nil {
			return err
		}
		if show == nil {
			return &NotFoundError{Entity: "show", ID: showID}
		}
		if err := shows.Delete(ctx, showID); err != nil {
			return err
		}
		agg := NewAggregator(tx)
		if err := agg.RecomputeProducts(ctx, nil); err != nil {
			return err
		}
		return agg.RecomputeBuyers(ctx, nil)
	})
}

func (s *Importer) insertRows(ctx context.Context, tx *sql.Tx, showID *string, saleType string, rows []ImportRow) (ImportResult, error) {
	txRepo := repository.NewTransactionRepo(tx)
	rules := repository.NewRuleRepo(tx)

	active, err := rules.List(ctx, true)
	if err != nil {
		return ImportResult{}, err
	}
	m := NewMatcher(active)

	res := ImportResult{}
	products := map[string]string{} // normalized name -> id
	buyers := map[string]string{}   // username -> id
	var productIDs, buyerIDs []string

	for i, row := range rows {
		rowNum := i + 1
		productID, created, err := getOrCreateProduct(ctx, tx, products, row.ItemName)
		if err != nil {
			return ImportResult{}, fmt.Errorf("row %d product: %w", rowNum, err)
		}
		if created {
			productIDs = append(productIDs, productID)
		}
		buyerID, created, err := getOrCreateBuyer(ctx, tx, buyers, row.Buyer)
		if err != nil {
			return ImportResult{}, fmt.Errorf("row %d buyer: %w", rowNum, err)
		}
		if created {
			buyerIDs = append(buyerIDs, buyerID)
		}

		quantity := row.Quantity
		if quantity == 0 {
			quantity = 1
		}
		var net decimal.Decimal
		if row.Net.Valid {
			net = row.Net.Decimal
		} else {
			net = NetFromParts(row.Gross, row.Discount, row.Commission, row.Fee, row.PaymentFee, row.Shipping)
		}

		rn := rowNum
		t := repository.Transaction{
			ID:         uuid.NewString(),
			ShowID:     showID,
			SaleType:   saleType,
			SoldAt:     row.Date.UTC(),
			ItemName:   strings.TrimSpace(row.ItemName),
			Quantity:   quantity,
			ProductID:  &productID,
			BuyerID:    &buyerID,
			Gross:      row.Gross,
			Discount:   row.Discount,
			Commission: row.Commission,
			Fee:        row.Fee,
			PaymentFee: row.PaymentFee,
			Shipping:   row.Shipping,
			Net:        net,
			RowNumber:  &rn,
		}
		if row.PaymentStatus != "" {
			ps := row.PaymentStatus
			t.PaymentStatus = &ps
		}
		if row.Notes != "" {
			n := row.Notes
			t.Notes = &n
		}

		if row.Cogs.Valid && !row.Cogs.Decimal.IsZero() {
			// Sheet-supplied COGS wins over rules and survives reprocessing.
			manual := repository.CogsSourceManual
			setCosting(&t, row.Cogs.Decimal)
			t.CogsSource = &manual
			res.CogsAssigned++
		} else if ApplyCosting(&t, m) {
			res.CogsAssigned++
		} else {
			res.CogsMissing++
			res.Warnings = append(res.Warnings, fmt.Sprintf("row %d: no COGS rule matched %q", rowNum, t.ItemName))
		}

		if err := txRepo.Insert(ctx, t); err != nil {
			return ImportResult{}, fmt.Errorf("row %d insert: %w", rowNum, err)
		}
		res.Imported++
	}

	agg := NewAggregator(tx)
	if err := agg.RecomputeProducts(ctx, uniqueStrings(productIDs, products)); err != nil {
		return ImportResult{}, err
	}
	if err := agg.RecomputeBuyers(ctx, uniqueStrings(buyerIDs, buyers)); err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

// validateRows checks the whole batch before any write.
func validateRows(rows []ImportRow) error {
	for i, row := range rows {
		rowNum := i + 1
		if strings.TrimSpace(row.ItemName) == "" {
			return validationf("row %d: item name required", rowNum)
		}
		if strings.TrimSpace(row.Buyer) == "" {
			return validationf("row %d: buyer required", rowNum)
		}
		if row.Date.IsZero() {
			return validationf("row %d: date required", rowNum)
		}
		if row.Quantity < 0 {
			return validationf("row %d: negative quantity", rowNum)
		}
		if row.Gross.IsNegative() {
			return validationf("row %d: negative gross", rowNum)
		}
	}
	return nil
}

func getOrCreateProduct(ctx context.Context, tx *sql.Tx, cache map[string]string, itemName string) (id string, created bool, err error) {
	normalized := NormalizeItemName(itemName)
	if id, ok := cache[normalized]; ok {
		return id, false, nil
	}
	repo := repository.NewProductRepo(tx)
	existing, err := repo.FindByNormalized(ctx, normalized)
	if err != nil {
		return "", false, err
	}
	if existing != nil {
		cache[normalized] = existing.ID
		return existing.ID, false, nil
	}
	p := repository.Product{
		ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte("product:"+normalized)).String(),
		Name:           strings.TrimSpace(itemName),
		NormalizedName: normalized,
	}
	if err := repo.Insert(ctx, p); err != nil {
		return "", false, err
	}
	cache[normalized] = p.ID
	return p.ID, true, nil
}

func getOrCreateBuyer(ctx context.Context, tx *sql.Tx, cache map[string]string, username string) (id string, created bool, err error) {
	username = strings.TrimSpace(username)
	if id, ok := cache[username]; ok {
		return id, false, nil
	}
	repo := repository.NewBuyerRepo(tx)
	existing, err := repo.FindByUsername(ctx, username)
	if err != nil {
		return "", false, err
	}
	if existing != nil {
		cache[username] = existing.ID
		return existing.ID, false, nil
	}
	b := repository.Buyer{
		ID:       uuid.NewSHA1(uuid.NameSpaceOID, []byte("buyer:"+username)).String(),
		Username: username,
	}
	if err := repo.Insert(ctx, b); err != nil {
		return "", false, err
	}
	cache[username] = b.ID
	return b.ID, true, nil
}

// uniqueStrings merges newly created ids with every id touched by the batch.
func uniqueStrings(created []string, cache map[string]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, id := range created {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range cache {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
