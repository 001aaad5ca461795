package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/bookkeep/internal/extractor"
	"github.com/insightdelivered/bookkeep/internal/writer"
)

func newUnlockCommand() *cobra.Command {
	var dir string
	var categories []string
	var dumpText bool

	cmd := &cobra.Command{
		Use:   "unlock <file.pdf>",
		Short: "Report whether the stored passwords open a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runUnlock(cmd.OutOrStdout(), absDir, args[0], categories, dumpText)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "vault categories to try (default: all)")
	cmd.Flags().BoolVar(&dumpText, "dump-text", false, "write the recovered text into the output directory")

	return cmd
}

func runUnlock(out io.Writer, dir, path string, categories []string, dumpText bool) error {
	cfg, err := loadProject(dir)
	if err != nil {
		return err
	}
	candidates, err := vaultCandidates(dir, cfg, categories)
	if err != nil {
		return err
	}

	st, err := extractor.Probe(path, candidates)
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	switch {
	case !st.Encrypted:
		fmt.Fprintf(out, "%s: not protected, %d pages\n", name, st.Pages)
	case st.Candidate > 0:
		fmt.Fprintf(out, "%s: unlocked with stored candidate %d of %d, %d pages\n",
			name, st.Candidate, len(candidates), st.Pages)
	case st.Unlocked:
		fmt.Fprintf(out, "%s: protected but opens with an empty password, %d pages\n", name, st.Pages)
	default:
		return fmt.Errorf("%s: none of the %d candidates opened it", name, len(candidates))
	}

	if !dumpText {
		return nil
	}

	doc, err := extractor.Open(path, candidates)
	if err != nil {
		return err
	}
	defer doc.Close()

	text, err := doc.CombinedText()
	if err != nil {
		return err
	}

	outDir := resolve(dir, cfg.Dirs.Output)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, dumpPath, err := writer.NextFreePath(outDir, strings.TrimSuffix(name, filepath.Ext(name)), ".txt")
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("writing %q: %w", dumpPath, err)
	}
	fmt.Fprintf(out, "recovered text -> %s\n", dumpPath)
	return nil
}
