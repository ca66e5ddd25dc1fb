package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/kanto/showledger/internal/database/repository"
	"github.com/kanto/showledger/internal/service"
)

type showsCmd struct{}

func (*showsCmd) Name() string     { return "shows" }
func (*showsCmd) Synopsis() string { return "list imported shows with their totals" }
func (*showsCmd) Usage() string {
	return `shows

  Lists every imported show with its aggregate totals.
`
}

func (*showsCmd) SetFlags(*flag.FlagSet) {}

func (c *showsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	shows, err := repository.NewShowRepo(e.db).List(ctx)
	if err != nil {
		return fail(err)
	}
	if len(shows) == 0 {
		fmt.Println("No shows imported yet.")
		return subcommands.ExitSuccess
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-10s  %-30s  %5s  %10s  %10s  %10s  %8s  %s",
		"DATE", "NAME", "ITEMS", "GROSS", "COGS", "PROFIT", "ROI", "ID")))
	for _, s := range shows {
		roi := dimStyle.Render("-")
		if s.ROI.Valid {
			roi = s.ROI.Decimal.StringFixed(1) + "%"
		}
		fmt.Printf("%-10s  %-30s  %5d  %10s  %10s  %10s  %8s  %s\n",
			s.Date, truncate(s.Name, 30), s.ItemCount,
			e.money(s.TotalGross), e.money(s.TotalCogs),
			signed(e.money(s.TotalProfit), s.TotalProfit.IsNegative()),
			roi, s.ID)
	}
	return subcommands.ExitSuccess
}

type showRmCmd struct{}

func (*showRmCmd) Name() string     { return "show-rm" }
func (*showRmCmd) Synopsis() string { return "delete a show and all its transactions" }
func (*showRmCmd) Usage() string {
	return `show-rm <show-id>

  Deletes a show and every transaction imported with it, then rebuilds the
  product and buyer rollups. Needed before re-importing a corrected file.
`
}

func (*showRmCmd) SetFlags(*flag.FlagSet) {}

func (c *showRmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return fail(fmt.Errorf("want exactly one show id"))
	}

	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	importer := &service.Importer{DB: e.db}
	if err := importer.DeleteShow(ctx, f.Arg(0)); err != nil {
		return fail(err)
	}
	fmt.Printf("Deleted show %s\n", f.Arg(0))
	return subcommands.ExitSuccess
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
