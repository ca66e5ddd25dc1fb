package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/kanto/showledger/internal/service"
)

type reportCmd struct {
	catalog bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "overall profit and COGS coverage report" }
func (*reportCmd) Usage() string {
	return `report [-catalog]

  Prints the whole-ledger summary: totals, ROI and COGS coverage per sale
  type. -catalog adds per-catalog-entry sales volume.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.catalog, "catalog", false, "Include catalog entry performance")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	svc := &service.ReportsService{DB: e.db}
	sum, err := svc.Summary(ctx)
	if err != nil {
		return fail(err)
	}
	coverage, err := svc.Coverage(ctx)
	if err != nil {
		return fail(err)
	}

	fmt.Println(titleStyle.Render("Ledger summary"))
	fmt.Printf("  Shows:        %d\n", sum.Shows)
	fmt.Printf("  Transactions: %d\n", sum.Transactions)
	fmt.Printf("  Gross:        %s\n", e.money(sum.TotalGross))
	fmt.Printf("  Net:          %s\n", e.money(sum.TotalNet))
	fmt.Printf("  COGS:         %s\n", e.money(sum.TotalCogs))
	fmt.Printf("  Profit:       %s\n", signed(e.money(sum.TotalProfit), sum.TotalProfit.IsNegative()))
	if sum.ROI.Valid {
		fmt.Printf("  ROI:          %s%%\n", sum.ROI.Decimal.StringFixed(1))
	} else {
		fmt.Printf("  ROI:          %s\n", dimStyle.Render("n/a (no COGS recorded)"))
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("COGS coverage"))
	fmt.Printf("  Overall: %d/%d (%s%%)\n", coverage.WithCogs, coverage.Total, coverage.Percent().StringFixed(1))
	for _, st := range coverage.BySaleType {
		pct := service.CoverageReport{Total: st.Total, WithCogs: st.WithCogs}.Percent()
		fmt.Printf("  %-12s %d/%d (%s%%)\n", st.SaleType+":", st.WithCogs, st.Total, pct.StringFixed(1))
	}

	if c.catalog {
		perf, err := svc.CatalogPerformance(ctx)
		if err != nil {
			return fail(err)
		}
		fmt.Println()
		fmt.Println(titleStyle.Render("Catalog performance"))
		for _, p := range perf {
			fmt.Printf("  %-45s  %5d sold  %10s gross\n",
				truncate(p.Item.Name, 45), p.Matches, e.money(p.TotalGross))
		}
	}
	return subcommands.ExitSuccess
}

type rulePerfCmd struct{}

func (*rulePerfCmd) Name() string     { return "ruleperf" }
func (*rulePerfCmd) Synopsis() string { return "per-rule match counts and totals" }
func (*rulePerfCmd) Usage() string {
	return `ruleperf

  Shows how many stored transactions each rule costed and the COGS and
  profit it accounts for. Rules with zero matches are candidates for
  cleanup.
`
}

func (*rulePerfCmd) SetFlags(*flag.FlagSet) {}

func (c *rulePerfCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	svc := &service.ReportsService{DB: e.db}
	perf, err := svc.RulePerformance(ctx)
	if err != nil {
		return fail(err)
	}
	if len(perf) == 0 {
		fmt.Println("No rules defined.")
		return subcommands.ExitSuccess
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%7s  %-25s  %10s  %10s  %s",
		"MATCHES", "RULE", "COGS", "PROFIT", "ID")))
	for _, p := range perf {
		name := p.Rule.Name
		if !p.Rule.Active {
			name = dimStyle.Render(name + " (off)")
		}
		fmt.Printf("%7d  %-25s  %10s  %10s  %s\n",
			p.Matches, name, e.money(p.TotalCogs),
			signed(e.money(p.TotalProfit), p.TotalProfit.IsNegative()), p.Rule.ID)
	}
	return subcommands.ExitSuccess
}
