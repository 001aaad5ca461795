package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/bookkeep/internal/config"
	"github.com/insightdelivered/bookkeep/internal/extractor"
	"github.com/insightdelivered/bookkeep/internal/models"
	"github.com/insightdelivered/bookkeep/internal/parser"
	"github.com/insightdelivered/bookkeep/internal/writer"
)

func newExtractCommand() *cobra.Command {
	var dir string
	var categories []string
	var withSummary bool

	cmd := &cobra.Command{
		Use:   "extract [file.pdf ...]",
		Short: "Extract transactions from PDF statements to CSV",
		Long: `Extract converts PDF statements into CSV files in the output directory.
Files can be named explicitly; with no arguments every PDF in the input
directory is processed. Protected files are unlocked with the vault's
candidate passwords.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runExtract(absDir, args, categories, withSummary)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "vault categories to try (default: all)")
	cmd.Flags().BoolVar(&withSummary, "summary", false, "write a <name>_summary.csv next to each CSV")

	return cmd
}

func runExtract(dir string, args, categories []string, withSummary bool) error {
	cfg, err := loadProject(dir)
	if err != nil {
		return err
	}

	files := args
	if len(files) == 0 {
		files, err = scanForPDFs(resolve(dir, cfg.Dirs.Input))
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no PDF files in %s", resolve(dir, cfg.Dirs.Input))
	}

	candidates, err := vaultCandidates(dir, cfg, categories)
	if err != nil {
		return err
	}

	rules, err := projectRules(dir, cfg)
	if err != nil {
		return err
	}

	outDir := resolve(dir, cfg.Dirs.Output)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	pipeline := parser.NewExtractor(rules)
	if cfg.Limits.MaxTextBytes > 0 {
		pipeline.MaxBytes = cfg.Limits.MaxTextBytes
	}

	// One bad statement never takes the batch down.
	w := &writer.CSVWriter{}
	succeeded := 0
	for _, path := range files {
		if err := extractOne(w, pipeline, path, candidates, outDir, withSummary); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(path), err)
			continue
		}
		succeeded++
	}

	if succeeded == 0 {
		return fmt.Errorf("all %d statements failed", len(files))
	}
	return nil
}

func extractOne(w *writer.CSVWriter, pipeline *parser.Extractor, path string, candidates []string, outDir string, withSummary bool) error {
	pages, err := extractor.ExtractText(path, candidates)
	if err != nil {
		return err
	}

	records, summary, err := pipeline.ExtractPages(pages)
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	csvPath, err := w.WriteToDir(outDir, base, records)
	if err != nil {
		return &models.ParseError{Code: models.CodeIOError, Detail: err.Error()}
	}

	report := fmt.Sprintf("%s: %d transactions -> %s", name, summary.Parsed, csvPath)
	if summary.Failed > 0 {
		report += fmt.Sprintf(", %d skipped", summary.Failed)
	}
	if summary.Flagged > 0 {
		report += fmt.Sprintf(", %d flagged for review", summary.Flagged)
	}
	fmt.Println(report)

	if withSummary {
		sumPath, err := w.WriteSummaryFile(csvPath, writer.Tally(records))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: totals: %v\n", name, err)
		} else {
			fmt.Printf("%s: totals -> %s\n", name, sumPath)
		}
	}
	return nil
}

// scanForPDFs lists the PDF files directly under dir, in name order.
func scanForPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func projectRules(dir string, cfg *config.Config) (*parser.Ruleset, error) {
	if cfg.RulesFile == "" {
		return nil, nil
	}
	return parser.LoadRuleset(resolve(dir, cfg.RulesFile))
}
