package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/bookkeep/internal/config"
	"github.com/insightdelivered/bookkeep/internal/vault"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [directory]",
		Short: "Set up a statement workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir)
		},
	}
}

func runInit(dir string) error {
	cfg := config.Default()

	// Create directory structure.
	for _, d := range []string{cfg.Dirs.Input, cfg.Dirs.Output} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write bookkeep.yaml.
	if err := config.Save(filepath.Join(dir, config.DefaultFile), cfg); err != nil {
		return err
	}

	// Generate the vault key and an empty store.
	if _, err := vault.Create(resolve(dir, cfg.Vault.Store), resolve(dir, cfg.Vault.Key)); err != nil {
		return fmt.Errorf("creating vault: %w", err)
	}

	// Statements and the vault key never belong in version control.
	gitignore := cfg.Dirs.Input + "/\n" + cfg.Dirs.Output + "/\n" + cfg.Vault.Key + "\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	fmt.Printf("Initialized bookkeep workspace at %s\n", dir)
	fmt.Printf("Drop PDF statements into %s/ and run: bookkeep extract\n", cfg.Dirs.Input)
	return nil
}
