package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kanto/showledger/internal/service"
)

// Seller export column headers. Date, Item Name, Quantity, Buyer, Gross Sale
// Price and Net Earnings must be present; the fee breakdown and COGS are
// optional.
var requiredColumns = []string{"Date", "Item Name", "Quantity", "Buyer", "Gross Sale Price", "Net Earnings"}

// dateLayouts are tried in order when parsing the Date column.
var dateLayouts = []string{
	time.DateOnly,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
}

// parseSalesCSV reads a seller CSV export into import rows. Header names are
// matched after trimming; money cells may carry currency symbols and
// thousands separators.
func parseSalesCSV(path string, loc *time.Location) ([]service.ImportRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s: want a header row and at least one data row", path)
	}

	cols := map[string]int{}
	for i, h := range records[0] {
		cols[strings.TrimSpace(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := cols[col]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", path, col)
		}
	}

	cell := func(record []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []service.ImportRow
	for n, record := range records[1:] {
		rowNum := n + 2 // 1-based, counting the header

		itemName := cell(record, "Item Name")
		if itemName == "" {
			continue // blank padding row
		}

		date, err := parseDate(cell(record, "Date"), loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		quantity := 1
		if q := cell(record, "Quantity"); q != "" {
			if parsed, err := strconv.Atoi(q); err == nil {
				quantity = parsed
			}
		}

		row := service.ImportRow{
			Date:       date,
			ItemName:   itemName,
			Quantity:   quantity,
			Buyer:      cell(record, "Buyer"),
			Gross:      parseMoney(cell(record, "Gross Sale Price")),
			Discount:   parseMoney(cell(record, "Discount")),
			Commission: parseMoney(cell(record, "WhatNot Commission")),
			Fee:        parseMoney(cell(record, "WhatNot Fee")),
			PaymentFee: parseMoney(cell(record, "Payment Processing Fee")),
			Shipping:   parseMoney(cell(record, "Shipping")),
		}
		if net := cell(record, "Net Earnings"); net != "" {
			row.Net = decimal.NullDecimal{Decimal: parseMoney(net), Valid: true}
		}
		if cogs := cell(record, "COGS"); cogs != "" {
			row.Cogs = decimal.NullDecimal{Decimal: parseMoney(cogs), Valid: true}
		}
		if status := cell(record, "Payment Status"); status != "" {
			row.PaymentStatus = status
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseMoney tolerates currency symbols and thousands separators; anything
// unparseable counts as zero, matching how spreadsheet blanks behave.
func parseMoney(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, "$", ""), ",", ""))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
