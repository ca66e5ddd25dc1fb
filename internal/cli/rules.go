package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/kanto/showledger/internal/service"
)

// ruleFlags are the editable rule fields shared by rule-add and rule-set.
type ruleFlags struct {
	name      string
	keywords  string
	amount    string
	matchType string
	priority  int
	inactive  bool
	category  string
	notes     string
}

func (r *ruleFlags) register(f *flag.FlagSet) {
	f.StringVar(&r.name, "name", "", "Rule name (required)")
	f.StringVar(&r.keywords, "keywords", "", "Comma-separated keywords (required)")
	f.StringVar(&r.amount, "amount", "", "COGS amount per line (required)")
	f.StringVar(&r.matchType, "match", "contains", "Match type: contains, starts_with, ends_with, exact")
	f.IntVar(&r.priority, "priority", 0, "Higher priority rules are checked first")
	f.BoolVar(&r.inactive, "inactive", false, "Create the rule disabled")
	f.StringVar(&r.category, "category", "", "Product category label")
	f.StringVar(&r.notes, "notes", "", "Free-form note")
}

func (r *ruleFlags) input() (service.RuleInput, error) {
	amount, err := decimal.NewFromString(r.amount)
	if err != nil {
		return service.RuleInput{}, fmt.Errorf("amount %q: %w", r.amount, err)
	}
	var keywords []string
	for _, kw := range strings.Split(r.keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return service.RuleInput{
		Name:       r.name,
		Keywords:   keywords,
		CogsAmount: amount,
		MatchType:  r.matchType,
		Priority:   r.priority,
		Active:     !r.inactive,
		Category:   r.category,
		Notes:      r.notes,
	}, nil
}

type ruleAddCmd struct{ ruleFlags }

func (*ruleAddCmd) Name() string     { return "rule-add" }
func (*ruleAddCmd) Synopsis() string { return "create a COGS rule" }
func (*ruleAddCmd) Usage() string {
	return `rule-add -name <name> -keywords <k1,k2> -amount <n> [-match contains] [-priority n]

  Creates a keyword COGS rule and reprocesses every stored transaction with
  the updated rule set.
`
}

func (c *ruleAddCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *ruleAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := c.input()
	if err != nil {
		return fail(err)
	}

	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	svc := &service.RuleService{DB: e.db}
	rule, err := svc.Create(ctx, in)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Created rule %q (id %s)\n", rule.Name, rule.ID)
	return subcommands.ExitSuccess
}

type rulesCmd struct {
	all bool
}

func (*rulesCmd) Name() string     { return "rules" }
func (*rulesCmd) Synopsis() string { return "list COGS rules" }
func (*rulesCmd) Usage() string {
	return `rules [-all]

  Lists active rules in matching order. -all includes disabled rules.
`
}

func (c *rulesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "Include disabled rules")
}

func (c *rulesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	svc := &service.RuleService{DB: e.db}
	rules, err := svc.List(ctx, !c.all)
	if err != nil {
		return fail(err)
	}
	if len(rules) == 0 {
		fmt.Println("No rules defined.")
		return subcommands.ExitSuccess
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%4s  %-25s  %-11s  %8s  %-40s  %s",
		"PRI", "NAME", "MATCH", "COGS", "KEYWORDS", "ID")))
	for _, r := range rules {
		name := r.Name
		if !r.Active {
			name = dimStyle.Render(name + " (off)")
		}
		fmt.Printf("%4d  %-25s  %-11s  %8s  %-40s  %s\n",
			r.Priority, name, r.MatchType, e.money(r.CogsAmount),
			truncate(strings.Join(r.Keywords, ", "), 40), r.ID)
	}
	return subcommands.ExitSuccess
}

type ruleSetCmd struct{ ruleFlags }

func (*ruleSetCmd) Name() string     { return "rule-set" }
func (*ruleSetCmd) Synopsis() string { return "replace a rule's fields" }
func (*ruleSetCmd) Usage() string {
	return `rule-set -name <name> -keywords <k1,k2> -amount <n> [...] <rule-id>

  Replaces every field of an existing rule, then reprocesses all stored
  transactions.
`
}

func (c *ruleSetCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *ruleSetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return fail(fmt.Errorf("want exactly one rule id"))
	}
	in, err := c.input()
	if err != nil {
		return fail(err)
	}

	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	svc := &service.RuleService{DB: e.db}
	rule, err := svc.Update(ctx, f.Arg(0), in)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Updated rule %q\n", rule.Name)
	return subcommands.ExitSuccess
}

type ruleRmCmd struct{}

func (*ruleRmCmd) Name() string     { return "rule-rm" }
func (*ruleRmCmd) Synopsis() string { return "delete a rule" }
func (*ruleRmCmd) Usage() string {
	return `rule-rm <rule-id>

  Deletes a rule. Transactions it had costed are re-matched against the
  remaining rules; manual overrides are untouched.
`
}

func (*ruleRmCmd) SetFlags(*flag.FlagSet) {}

func (c *ruleRmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return fail(fmt.Errorf("want exactly one rule id"))
	}

	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	svc := &service.RuleService{DB: e.db}
	if err := svc.Delete(ctx, f.Arg(0)); err != nil {
		return fail(err)
	}
	fmt.Printf("Deleted rule %s\n", f.Arg(0))
	return subcommands.ExitSuccess
}

type ruleTestCmd struct {
	ruleFlags
	limit int
}

func (*ruleTestCmd) Name() string     { return "rule-test" }
func (*ruleTestCmd) Synopsis() string { return "dry-run a rule against known products" }
func (*ruleTestCmd) Usage() string {
	return `rule-test -name <name> -keywords <k1,k2> -amount <n> [-match contains]

  Shows which known products a candidate rule would match, without saving it.
`
}

func (c *ruleTestCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.IntVar(&c.limit, "limit", 20, "Maximum matches to show")
}

func (c *ruleTestCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := c.input()
	if err != nil {
		return fail(err)
	}

	e, err := openEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	svc := &service.RuleService{DB: e.db}
	matched, err := svc.Test(ctx, in, c.limit)
	if err != nil {
		return fail(err)
	}
	if len(matched) == 0 {
		fmt.Println("No products would match.")
		return subcommands.ExitSuccess
	}
	fmt.Printf("Would match %d product(s):\n", len(matched))
	for _, name := range matched {
		fmt.Println("  " + name)
	}
	return subcommands.ExitSuccess
}
