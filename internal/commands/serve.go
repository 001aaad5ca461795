package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/bookkeep/internal/api"
)

func newServeCommand() *cobra.Command {
	var dir string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP convert API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runServe(absDir, addr)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

func runServe(dir, addr string) error {
	cfg, err := loadProject(dir)
	if err != nil {
		return err
	}

	// The vault is optional here; without one only request-supplied
	// passwords are tried.
	if _, err := os.Stat(resolve(dir, cfg.Vault.Store)); !errors.Is(err, os.ErrNotExist) {
		v, err := openVault(dir, cfg)
		if err != nil {
			return fmt.Errorf("opening vault: %w", err)
		}
		api.PasswordSource = v.Lookup()
	}

	rules, err := projectRules(dir, cfg)
	if err != nil {
		return err
	}
	api.Rules = rules

	fmt.Printf("bookkeep API listening on %s\n", addr)
	return api.NewApp().Listen(addr)
}
