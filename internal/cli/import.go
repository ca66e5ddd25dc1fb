package cli

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/subcommands"

	"github.com/kanto/showledger/internal/service"
)

type importCmd struct {
	name     string
	date     string
	platform string
	notes    string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a show's sales CSV" }
func (*importCmd) Usage() string {
	return `import -name <show name> -date <YYYY-MM-DD> <file.csv>

  Imports one show's seller CSV export. The import is all-or-nothing: a show
  with the same name and date, or any invalid row, aborts the whole file.
  Rules assign COGS during import; unmatched items are reported.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Show name (required)")
	f.StringVar(&c.date, "date", "", "Show date, YYYY-MM-DD (required)")
	f.StringVar(&c.platform, "platform", "", "Sales platform (default WhatNot)")
	f.StringVar(&c.notes, "notes", "", "Free-form note on the show")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return fail(fmt.Errorf("want exactly one CSV file argument"))
	}
	path := f.Arg(0)

	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	loc, err := time.LoadLocation(e.cfg.Import.Timezone)
	if err != nil {
		return fail(fmt.Errorf("timezone %q: %w", e.cfg.Import.Timezone, err))
	}
	rows, err := parseSalesCSV(path, loc)
	if err != nil {
		return fail(err)
	}

	importer := &service.Importer{DB: e.db}
	res, err := importer.ImportShow(ctx, service.ShowBatch{
		Name:       c.name,
		Date:       c.date,
		Platform:   c.platform,
		SourceFile: filepath.Base(path),
		Notes:      c.notes,
		Rows:       rows,
	})
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Imported %d transactions into show %s\n", res.Imported, res.ShowID)
	fmt.Printf("COGS assigned: %d, missing: %d\n", res.CogsAssigned, res.CogsMissing)
	for _, w := range res.Warnings {
		fmt.Println(dimStyle.Render("  " + w))
	}
	return subcommands.ExitSuccess
}
