package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/kanto/showledger/internal/service"
)

type catalogAddCmd struct {
	name     string
	category string
	keywords string
}

func (*catalogAddCmd) Name() string     { return "catalog-add" }
func (*catalogAddCmd) Synopsis() string { return "add a master catalog entry from an image URL" }
func (*catalogAddCmd) Usage() string {
	return `catalog-add [-name <name>] [-category <cat>] <image-url>

  Adds a catalog entry. Name, category and keywords are derived from the
  image filename unless given. The same underlying image (query params
  ignored) or the same name is rejected as a duplicate.
`
}

func (c *catalogAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Display name (default: derived from filename)")
	f.StringVar(&c.category, "category", "", "Category (default: detected from name)")
	f.StringVar(&c.keywords, "keywords", "", "Comma-separated keywords (default: generated)")
}

func (c *catalogAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return fail(fmt.Errorf("want exactly one image URL"))
	}

	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	var keywords []string
	for _, kw := range strings.Split(c.keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	svc := &service.CatalogService{DB: e.db}
	res, err := svc.Add(ctx, f.Arg(0), c.name, c.category, keywords)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Added %q [%s] (id %s)\n", res.Item.Name, res.Item.Category, res.Item.ID)
	for _, hint := range res.NearDups {
		fmt.Println(dimStyle.Render("  similar existing entry: " + hint))
	}
	return subcommands.ExitSuccess
}

type catalogCmd struct{}

func (*catalogCmd) Name() string     { return "catalog" }
func (*catalogCmd) Synopsis() string { return "list the master catalog" }
func (*catalogCmd) Usage() string {
	return `catalog

  Lists catalog entries with their categories and keywords.
`
}

func (*catalogCmd) SetFlags(*flag.FlagSet) {}

func (c *catalogCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	svc := &service.CatalogService{DB: e.db}
	items, err := svc.List(ctx)
	if err != nil {
		return fail(err)
	}
	if len(items) == 0 {
		fmt.Println("Catalog is empty.")
		return subcommands.ExitSuccess
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-45s  %-18s  %-40s  %s", "NAME", "CATEGORY", "KEYWORDS", "ID")))
	for _, item := range items {
		fmt.Printf("%-45s  %-18s  %-40s  %s\n",
			truncate(item.Name, 45), item.Category,
			truncate(strings.Join(item.Keywords, ", "), 40), item.ID)
	}
	return subcommands.ExitSuccess
}

type catalogRmCmd struct{}

func (*catalogRmCmd) Name() string     { return "catalog-rm" }
func (*catalogRmCmd) Synopsis() string { return "delete a catalog entry" }
func (*catalogRmCmd) Usage() string {
	return `catalog-rm <catalog-id>
`
}

func (*catalogRmCmd) SetFlags(*flag.FlagSet) {}

func (c *catalogRmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return fail(fmt.Errorf("want exactly one catalog id"))
	}

	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	svc := &service.CatalogService{DB: e.db}
	if err := svc.Delete(ctx, f.Arg(0)); err != nil {
		return fail(err)
	}
	fmt.Printf("Deleted catalog entry %s\n", f.Arg(0))
	return subcommands.ExitSuccess
}
