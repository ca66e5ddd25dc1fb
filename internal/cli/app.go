// Package cli implements the showledger command line interface.
package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/kanto/showledger/internal/config"
	"github.com/kanto/showledger/internal/database"
	"github.com/kanto/showledger/internal/service"
)

// Commands lists every registered subcommand. A main package registers these
// on a commander and executes the selected one.
var Commands = []subcommands.Command{
	&importCmd{},
	&marketplaceCmd{},
	&showsCmd{},
	&showRmCmd{},
	&txCmd{},
	&cogsCmd{},
	&ruleAddCmd{},
	&rulesCmd{},
	&ruleSetCmd{},
	&ruleRmCmd{},
	&ruleTestCmd{},
	&catalogAddCmd{},
	&catalogCmd{},
	&catalogRmCmd{},
	&reportCmd{},
	&rulePerfCmd{},
}

// env bundles what every command needs: the open database and the loaded
// configuration.
type env struct {
	db  *sql.DB
	cfg config.Config
}

// openEnv loads config, ensures the data directory exists, opens the database
// and brings the schema up to date.
func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrationsWithDB(db, cfg.Database.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &env{db: db, cfg: cfg}, nil
}

func (e *env) close() { _ = e.db.Close() }

// money renders a decimal with the configured currency symbol.
func (e *env) money(d decimal.Decimal) string {
	return e.cfg.UI.CurrencySymbol + d.StringFixed(2)
}

// fail prints err and picks the exit status from the error taxonomy: bad
// input is a usage error, conflicts and missing entities are plain failures.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

// Styles shared by tabular output.
var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	gainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// signed styles a money amount red when negative, green otherwise.
func signed(s string, negative bool) string {
	if negative {
		return lossStyle.Render(s)
	}
	return gainStyle.Render(s)
}
