package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/kanto/showledger/internal/service"
)

type marketplaceCmd struct{}

func (*marketplaceCmd) Name() string     { return "marketplace" }
func (*marketplaceCmd) Synopsis() string { return "import marketplace orders from a CSV" }
func (*marketplaceCmd) Usage() string {
	return `marketplace <file.csv>

  Imports marketplace (non-show) orders. A COGS column in the sheet is kept
  as a manual override; other rows are costed by the active rules.
`
}

func (*marketplaceCmd) SetFlags(*flag.FlagSet) {}

func (c *marketplaceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return fail(fmt.Errorf("want exactly one CSV file argument"))
	}

	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	loc, err := time.LoadLocation(e.cfg.Import.Timezone)
	if err != nil {
		return fail(fmt.Errorf("timezone %q: %w", e.cfg.Import.Timezone, err))
	}
	rows, err := parseSalesCSV(f.Arg(0), loc)
	if err != nil {
		return fail(err)
	}

	importer := &service.Importer{DB: e.db}
	res, err := importer.ImportMarketplace(ctx, rows)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Imported %d marketplace orders\n", res.Imported)
	fmt.Printf("COGS assigned: %d, missing: %d\n", res.CogsAssigned, res.CogsMissing)
	for _, w := range res.Warnings {
		fmt.Println(dimStyle.Render("  " + w))
	}
	return subcommands.ExitSuccess
}
