package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale types.
const (
	SaleTypeStream      = "stream"
	SaleTypeMarketplace = "marketplace"
)

// Rule match types.
const (
	MatchContains   = "contains"
	MatchStartsWith = "starts_with"
	MatchEndsWith   = "ends_with"
	MatchExact      = "exact"
)

// COGS sources.
const (
	CogsSourceRule   = "rule"
	CogsSourceManual = "manual"
)

// Rule represents a keyword COGS rule row.
type Rule struct {
	ID         string
	Name       string
	Keywords   []string
	CogsAmount decimal.Decimal
	MatchType  string
	Priority   int
	Active     bool
	Category   *string
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Show represents a live-stream sales session with derived aggregates.
type Show struct {
	ID             string
	Name           string
	Date           string // YYYY-MM-DD, part of the identity key
	Platform       string
	SourceFile     *string
	Notes          *string
	TotalGross     decimal.Decimal
	TotalDiscounts decimal.Decimal
	TotalFees      decimal.Decimal
	TotalNet       decimal.Decimal
	TotalCogs      decimal.Decimal
	TotalProfit    decimal.Decimal
	ROI            decimal.NullDecimal
	ItemCount      int
	UniqueBuyers   int
	AvgSalePrice   decimal.Decimal
	ImportedAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Transaction represents a single sale line.
type Transaction struct {
	ID            string
	ShowID        *string
	SaleType      string
	SoldAt        time.Time
	ItemName      string
	Quantity      int
	ProductID     *string
	BuyerID       *string
	Gross         decimal.Decimal
	Discount      decimal.Decimal
	Commission    decimal.Decimal
	Fee           decimal.Decimal
	PaymentFee    decimal.Decimal
	Shipping      decimal.Decimal
	Net           decimal.Decimal
	Cogs          decimal.NullDecimal
	Profit        decimal.NullDecimal
	ROI           decimal.NullDecimal
	CogsSource    *string
	MatchedRuleID *string
	PaymentStatus *string
	RowNumber     *int
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Product represents a normalized product with derived aggregates.
type Product struct {
	ID             string
	Name           string
	NormalizedName string
	Category       *string
	TimesSold      int
	TotalQuantity  int
	TotalGross     decimal.Decimal
	TotalNet       decimal.Decimal
	AvgSalePrice   decimal.Decimal
	FirstSold      *string
	LastSold       *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Buyer represents a normalized buyer with derived aggregates.
type Buyer struct {
	ID               string
	Username         string
	TotalPurchases   int
	TotalSpent       decimal.Decimal
	AvgPurchasePrice decimal.Decimal
	RepeatBuyer      bool
	FirstPurchase    *string
	LastPurchase     *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CatalogItem represents a master catalog entry.
type CatalogItem struct {
	ID            string
	Name          string
	Category      string
	ImageURL      string
	ImageRef      string // image URL with trailing query params stripped
	ImageFilename string
	Keywords      []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
