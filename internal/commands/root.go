package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/bookkeep/internal/buildinfo"
	"github.com/insightdelivered/bookkeep/internal/config"
	"github.com/insightdelivered/bookkeep/internal/vault"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "bookkeep",
		Short:   "Unlock e-wallet PDF statements and extract transactions to CSV",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newExtractCommand())
	rootCmd.AddCommand(newUnlockCommand())
	rootCmd.AddCommand(newPasswordsCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}

// loadProject reads bookkeep.yaml from the workspace directory, falling back
// to the built-in defaults when no file exists yet.
func loadProject(dir string) (*config.Config, error) {
	cfg, err := config.Load(filepath.Join(dir, config.DefaultFile))
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolve anchors a config-relative path at the workspace directory.
func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// openVault opens the workspace vault.
func openVault(dir string, cfg *config.Config) (*vault.Vault, error) {
	return vault.Open(resolve(dir, cfg.Vault.Store), resolve(dir, cfg.Vault.Key))
}

// vaultCandidates returns the stored passwords of the named categories. A
// workspace without a vault yields no candidates, which is all an
// unprotected statement needs; a vault that exists but cannot open is an
// error.
func vaultCandidates(dir string, cfg *config.Config, categories []string) ([]string, error) {
	if _, err := os.Stat(resolve(dir, cfg.Vault.Store)); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	v, err := openVault(dir, cfg)
	if err != nil {
		return nil, err
	}
	return v.Passwords(categories...)
}
