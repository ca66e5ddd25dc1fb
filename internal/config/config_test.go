package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHOWLEDGER_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Contains(t, cfg.Database.Path, "showledger.db")
	require.Equal(t, "internal/database/migrations", cfg.Database.MigrationsPath)
	require.Equal(t, "America/New_York", cfg.Import.Timezone)
	require.Equal(t, "$", cfg.UI.CurrencySymbol)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SHOWLEDGER_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("SHOWLEDGER_DATABASE_PATH", "/tmp/elsewhere.db")
	t.Setenv("SHOWLEDGER_UI_CURRENCY_SYMBOL", "£")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/elsewhere.db", cfg.Database.Path)
	require.Equal(t, "£", cfg.UI.CurrencySymbol)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("SHOWLEDGER_CONFIG", path)

	want := Config{
		Database: DatabaseConfig{Path: "/data/ledger.db", MigrationsPath: "/data/migrations"},
		Import:   ImportConfig{Timezone: "Australia/Melbourne"},
		UI:       UIConfig{CurrencySymbol: "A$", DateFormat: "02/01/2006"},
	}
	require.NoError(t, Save(want))

	got, err := Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}
