package commands

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/bookkeep/internal/vault"
)

func newPasswordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passwords",
		Short: "Manage the candidate password vault",
	}
	cmd.AddCommand(newPasswordsInitCommand())
	cmd.AddCommand(newPasswordsAddCommand())
	cmd.AddCommand(newPasswordsListCommand())
	cmd.AddCommand(newPasswordsShowCommand())
	return cmd
}

func newPasswordsInitCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty vault with a fresh key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			cfg, err := loadProject(absDir)
			if err != nil {
				return err
			}

			v, err := vault.Create(resolve(absDir, cfg.Vault.Store), resolve(absDir, cfg.Vault.Key))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vault created with categories: %s\n",
				strings.Join(v.Categories(), ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	return cmd
}

func newPasswordsAddCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "add <category> [password]",
		Short: "Seal a candidate password into a category",
		Long: `Add seals a password into the vault under a category, creating the
category if needed. Without a password argument the password is read from
stdin, which keeps it out of shell history.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			cfg, err := loadProject(absDir)
			if err != nil {
				return err
			}

			password := ""
			if len(args) == 2 {
				password = args[1]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading password from stdin: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			v, err := openVault(absDir, cfg)
			if err != nil {
				return err
			}
			if err := v.Add(args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added to %s (%d entries)\n", args[0], v.Count(args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	return cmd
}

func newPasswordsListCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories and entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			cfg, err := loadProject(absDir)
			if err != nil {
				return err
			}

			v, err := openVault(absDir, cfg)
			if err != nil {
				return err
			}
			for _, c := range v.Categories() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %d\n", c, v.Count(c))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	return cmd
}

func newPasswordsShowCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "show <category>",
		Short: "Print the passwords of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			cfg, err := loadProject(absDir)
			if err != nil {
				return err
			}

			v, err := openVault(absDir, cfg)
			if err != nil {
				return err
			}
			passwords, err := v.Passwords(args[0])
			if err != nil {
				return err
			}
			for _, pw := range passwords {
				fmt.Fprintln(cmd.OutOrStdout(), pw)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	return cmd
}
