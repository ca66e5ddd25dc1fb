package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kanto/showledger/internal/database/repository"
)

// Aggregator recomputes show, product and buyer rollups as full rescans over
// the current transaction set. Aggregates are caches: after any recompute
// they equal the sum over stored transactions, never a delta-maintained
// approximation.
type Aggregator struct {
	shows        *repository.ShowRepo
	transactions *repository.TransactionRepo
	products     *repository.ProductRepo
	buyers       *repository.BuyerRepo
}

// NewAggregator builds an aggregator over q, which may be a *sql.DB or the
// *sql.Tx of the triggering operation.
func NewAggregator(q repository.DBTX) *Aggregator {
	return &Aggregator{
		shows:        repository.NewShowRepo(q),
		transactions: repository.NewTransactionRepo(q),
		products:     repository.NewProductRepo(q),
		buyers:       repository.NewBuyerRepo(q),
	}
}

// RecomputeShow rebuilds one show's aggregate columns.
func (a *Aggregator) RecomputeShow(ctx context.Context, showID string) error {
	show, err := a.shows.Get(ctx, showID)
	if err != nil {
		return err
	}
	if show == nil {
		return &NotFoundError{Entity: "show", ID: showID}
	}

	txs, err := a.transactions.List(ctx, repository.TransactionFilters{ShowID: showID})
	if err != nil {
		return err
	}

	s := *show
	s.TotalGross = decimal.Zero
	s.TotalDiscounts = decimal.Zero
	s.TotalFees = decimal.Zero
	s.TotalNet = decimal.Zero
	s.TotalCogs = decimal.Zero
	s.TotalProfit = decimal.Zero
	s.ROI = decimal.NullDecimal{}
	s.AvgSalePrice = decimal.Zero

	buyers := map[string]struct{}{}
	for _, t := range txs {
		s.TotalGross = s.TotalGross.Add(t.Gross)
		s.TotalDiscounts = s.TotalDiscounts.Add(t.Discount)
		s.TotalFees = s.TotalFees.Add(t.Commission).Add(t.Fee).Add(t.PaymentFee).Add(t.Shipping)
		s.TotalNet = s.TotalNet.Add(t.Net)
		if t.Cogs.Valid {
			s.TotalCogs = s.TotalCogs.Add(t.Cogs.Decimal)
		}
		if t.Profit.Valid {
			s.TotalProfit = s.TotalProfit.Add(t.Profit.Decimal)
		}
		if t.BuyerID != nil {
			buyers[*t.BuyerID] = struct{}{}
		}
	}
	s.ItemCount = len(txs)
	s.UniqueBuyers = len(buyers)
	if len(txs) > 0 {
		s.AvgSalePrice = s.TotalGross.Div(decimal.NewFromInt(int64(len(txs))))
	}
	if s.TotalCogs.IsPositive() {
		s.ROI = decimal.NullDecimal{Decimal: s.TotalProfit.Div(s.TotalCogs).Mul(hundred), Valid: true}
	}

	return a.shows.UpdateAggregates(ctx, s)
}

// RecomputeProducts rebuilds aggregates for the given product ids; with no
// ids it rescans every product.
func (a *Aggregator) RecomputeProducts(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		all, err := a.products.IDs(ctx)
		if err != nil {
			return err
		}
		ids = all
	}
	for _, id := range ids {
		if err := a.recomputeProduct(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) recomputeProduct(ctx context.Context, id string) error {
	p, err := a.products.Get(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return &NotFoundError{Entity: "product", ID: id}
	}

	txs, err := a.transactions.List(ctx, repository.TransactionFilters{ProductID: id})
	if err != nil {
		return err
	}

	prod := *p
	prod.TimesSold = len(txs)
	prod.TotalQuantity = 0
	prod.TotalGross = decimal.Zero
	prod.TotalNet = decimal.Zero
	prod.AvgSalePrice = decimal.Zero
	prod.FirstSold = nil
	prod.LastSold = nil

	var first, last time.Time
	for _, t := range txs {
		prod.TotalQuantity += t.Quantity
		prod.TotalGross = prod.TotalGross.Add(t.Gross)
		prod.TotalNet = prod.TotalNet.Add(t.Net)
		if first.IsZero() || t.SoldAt.Before(first) {
			first = t.SoldAt
		}
		if t.SoldAt.After(last) {
			last = t.SoldAt
		}
	}
	if len(txs) > 0 {
		prod.AvgSalePrice = prod.TotalGross.Div(decimal.NewFromInt(int64(len(txs))))
		f := first.Format(time.DateOnly)
		l := last.Format(time.DateOnly)
		prod.FirstSold = &f
		prod.LastSold = &l
	}
	return a.products.UpdateAggregates(ctx, prod)
}

// RecomputeBuyers rebuilds aggregates for the given buyer ids; with no ids
// it rescans every buyer.
func (a *Aggregator) RecomputeBuyers(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		all, err := a.buyers.IDs(ctx)
		if err != nil {
			return err
		}
		ids = all
	}
	for _, id := range ids {
		if err := a.recomputeBuyer(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) recomputeBuyer(ctx context.Context, id string) error {
	b, err := a.buyers.Get(ctx, id)
	if err != nil {
		return err
	}
	if b == nil {
		return &NotFoundError{Entity: "buyer", ID: id}
	}

	txs, err := a.transactions.List(ctx, repository.TransactionFilters{BuyerID: id})
	if err != nil {
		return err
	}

	buyer := *b
	buyer.TotalPurchases = len(txs)
	buyer.TotalSpent = decimal.Zero
	buyer.AvgPurchasePrice = decimal.Zero
	buyer.RepeatBuyer = len(txs) > 1
	buyer.FirstPurchase = nil
	buyer.LastPurchase = nil

	var first, last time.Time
	for _, t := range txs {
		buyer.TotalSpent = buyer.TotalSpent.Add(t.Gross)
		if first.IsZero() || t.SoldAt.Before(first) {
			first = t.SoldAt
		}
		if t.SoldAt.After(last) {
			last = t.SoldAt
		}
	}
	if len(txs) > 0 {
		buyer.AvgPurchasePrice = buyer.TotalSpent.Div(decimal.NewFromInt(int64(len(txs))))
		f := first.Format(time.DateOnly)
		l := last.Format(time.DateOnly)
		buyer.FirstPurchase = &f
		buyer.LastPurchase = &l
	}
	return a.buyers.UpdateAggregates(ctx, buyer)
}

// RecomputeAll rescans every show, product and buyer scope.
func (a *Aggregator) RecomputeAll(ctx context.Context) error {
	shows, err := a.shows.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range shows {
		if err := a.RecomputeShow(ctx, s.ID); err != nil {
			return err
		}
	}
	if err := a.RecomputeProducts(ctx, nil); err != nil {
		return err
	}
	return a.RecomputeBuyers(ctx, nil)
}
