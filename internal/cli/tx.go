package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/kanto/showledger/internal/database/repository"
	"github.com/kanto/showledger/internal/service"
)

type txCmd struct {
	show     string
	saleType string
	search   string
	missing  bool
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list transactions" }
func (*txCmd) Usage() string {
	return `tx [-show <id>] [-type stream|marketplace] [-search <text>] [-missing]

  Lists transactions, optionally filtered. -missing shows only lines with no
  COGS assigned, which is the worklist for new rules.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.show, "show", "", "Filter by show id")
	f.StringVar(&c.saleType, "type", "", "Filter by sale type (stream or marketplace)")
	f.StringVar(&c.search, "search", "", "Filter by item name substring")
	f.BoolVar(&c.missing, "missing", false, "Only transactions without COGS")
}

func (c *txCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	filters := repository.TransactionFilters{
		ShowID:   c.show,
		SaleType: c.saleType,
		Search:   c.search,
	}
	if c.missing {
		hasCogs := false
		filters.HasCogs = &hasCogs
	}

	svc := &service.TransactionService{DB: e.db}
	txs, err := svc.List(ctx, filters)
	if err != nil {
		return fail(err)
	}
	if len(txs) == 0 {
		fmt.Println("No matching transactions.")
		return subcommands.ExitSuccess
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-10s  %-40s  %3s  %9s  %9s  %9s  %-6s  %s",
		"DATE", "ITEM", "QTY", "GROSS", "COGS", "PROFIT", "SRC", "ID")))
	for _, t := range txs {
		cogs, profit, src := dimStyle.Render("-"), dimStyle.Render("-"), ""
		if t.Cogs.Valid {
			cogs = e.money(t.Cogs.Decimal)
		}
		if t.Profit.Valid {
			profit = signed(e.money(t.Profit.Decimal), t.Profit.Decimal.IsNegative())
		}
		if t.CogsSource != nil {
			src = *t.CogsSource
		}
		fmt.Printf("%-10s  %-40s  %3d  %9s  %9s  %9s  %-6s  %s\n",
			t.SoldAt.Format(time.DateOnly), truncate(t.ItemName, 40), t.Quantity,
			e.money(t.Gross), cogs, profit, src, t.ID)
	}
	return subcommands.ExitSuccess
}

type cogsCmd struct {
	amount string
	clear  bool
}

func (*cogsCmd) Name() string     { return "cogs" }
func (*cogsCmd) Synopsis() string { return "set or clear a manual COGS override" }
func (*cogsCmd) Usage() string {
	return `cogs -amount <n> <transaction-id>
cogs -clear <transaction-id>

  Sets a manual COGS override on one transaction, or clears it. Overrides
  survive rule changes; clearing re-runs the rule matcher for the line.
`
}

func (c *cogsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "", "COGS amount to set")
	f.BoolVar(&c.clear, "clear", false, "Clear the override and re-match")
}

func (c *cogsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return fail(fmt.Errorf("want exactly one transaction id"))
	}
	if c.clear == (c.amount != "") {
		return fail(fmt.Errorf("pass either -amount or -clear"))
	}
	id := f.Arg(0)

	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	svc := &service.TransactionService{DB: e.db}
	if c.clear {
		if err := svc.ClearManualCogs(ctx, id); err != nil {
			return fail(err)
		}
		fmt.Printf("Cleared override on %s\n", id)
		return subcommands.ExitSuccess
	}

	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		return fail(fmt.Errorf("amount %q: %w", c.amount, err))
	}
	if err := svc.SetManualCogs(ctx, id, amount); err != nil {
		return fail(err)
	}
	fmt.Printf("Set manual COGS %s on %s\n", e.money(amount), id)
	return subcommands.ExitSuccess
}
