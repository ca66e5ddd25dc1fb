package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestParseSalesCSV(t *testing.T) {
	t.Parallel()

	path := writeCSV(t,
		"Date,Item Name,Quantity,Buyer,Gross Sale Price,Discount,WhatNot Commission,WhatNot Fee,Payment Processing Fee,Shipping,Net Earnings,COGS",
		`2026-08-21,Surging Sparks ETB,1,alice,"$100.00",5.00,8.00,2.00,2.90,4.50,77.60,`,
		`2026-08-21,"Booster Bundle, Sealed",2,bob,"$1,500.00",0,0,0,0,0,,18.50`,
		",,,,,,,,,,,", // blank padding row
	)

	rows, err := parseSalesCSV(path, time.UTC)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	require.Equal(t, "Surging Sparks ETB", first.ItemName)
	require.Equal(t, "alice", first.Buyer)
	require.Equal(t, 1, first.Quantity)
	require.Equal(t, "2026-08-21", first.Date.Format(time.DateOnly))
	require.Equal(t, "100", first.Gross.String())
	require.Equal(t, "77.6", first.Net.Decimal.String())
	require.True(t, first.Net.Valid)
	require.False(t, first.Cogs.Valid)

	second := rows[1]
	require.Equal(t, "Booster Bundle, Sealed", second.ItemName)
	require.Equal(t, 2, second.Quantity)
	require.Equal(t, "1500", second.Gross.String(), "thousands separator stripped")
	require.True(t, second.Cogs.Valid)
	require.Equal(t, "18.5", second.Cogs.Decimal.String())
}

func TestParseSalesCSVMissingColumn(t *testing.T) {
	t.Parallel()

	path := writeCSV(t,
		"Date,Item Name,Quantity,Gross Sale Price,Net Earnings",
		"2026-08-21,ETB,1,100,90",
	)
	_, err := parseSalesCSV(path, time.UTC)
	require.Error(t, err)
	require.Contains(t, err.Error(), `"Buyer"`)
}

func TestParseSalesCSVDateFormats(t *testing.T) {
	t.Parallel()

	path := writeCSV(t,
		"Date,Item Name,Quantity,Buyer,Gross Sale Price,Net Earnings",
		"08/21/2026,ETB,1,alice,100,90",
	)
	rows, err := parseSalesCSV(path, time.UTC)
	require.NoError(t, err)
	require.Equal(t, "2026-08-21", rows[0].Date.Format(time.DateOnly))

	bad := writeCSV(t,
		"Date,Item Name,Quantity,Buyer,Gross Sale Price,Net Earnings",
		"soon,ETB,1,alice,100,90",
	)
	_, err = parseSalesCSV(bad, time.UTC)
	require.Error(t, err)
}
