package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/KaramelBytes/eda-cli/internal/pipeline"
	"github.com/KaramelBytes/eda-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaOutputPath  string
	anaOutDir      string
	anaModel       string
	anaHost        string
	anaRequire     bool
	anaNoInsights  bool
	anaDelimiter   string
	anaDecimal     string
	anaThousands   string
	anaSheetName   string
	anaFailOnEmpty bool
	anaFormat      string
)

// analyzeJSON is the --format json view of a run.
type analyzeJSON struct {
	RunID      string   `json:"run_id"`
	File       string   `json:"file"`
	Report     string   `json:"report"`
	Insight    string   `json:"insight"`
	Images     []string `json:"images"`
	Warnings   []string `json:"warnings"`
	DurationMs int64    `json:"duration_ms"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run the full EDA pipeline on a CSV/TSV/XLSX file",
	Example: `  eda analyze sales.csv
  eda analyze sales.csv --out-dir plots --output report.txt
  eda analyze export.csv --delimiter ';' --decimal comma --thousands .
  eda analyze book.xlsx --sheet Q3 --no-insights`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		format := strings.ToLower(strings.TrimSpace(anaFormat))
		if format != "text" && format != "json" {
			return fmt.Errorf("unsupported --format: %s (use text|json)", anaFormat)
		}
		if anaRequire && anaNoInsights {
			return fmt.Errorf("--require-insights and --no-insights are mutually exclusive")
		}
		opt := baseLoadOptions()
		if err := applyLocaleFlags(&opt, anaDelimiter, anaDecimal, anaThousands); err != nil {
			return err
		}
		opt.Sheet = anaSheetName

		p := buildPipeline(runOverrides{
			model:           anaModel,
			host:            anaHost,
			outDir:          anaOutDir,
			requireInsights: anaRequire,
			skipInsights:    anaNoInsights,
			failOnEmpty:     anaFailOnEmpty,
			load:            opt,
		})

		ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), os.Interrupt)
		defer stop()
		res, err := p.Run(ctx, path)
		if err != nil {
			if pipeline.IsModelUnavailable(err) {
				return fmt.Errorf("%w (is `ollama serve` running and the model pulled? see `eda models`)", err)
			}
			return err
		}

		var out []byte
		if format == "json" {
			warnings := res.Warnings
			if warnings == nil {
				warnings = []string{}
			}
			out, err = utils.PrettyJSON(analyzeJSON{
				RunID:      res.RunID,
				File:       res.File,
				Report:     res.Report,
				Insight:    res.Insight,
				Images:     res.Images,
				Warnings:   warnings,
				DurationMs: res.Duration.Milliseconds(),
			})
			if err != nil {
				return err
			}
		} else {
			out = []byte(res.Report)
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", anaOutputPath)
			if len(res.Images) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %d image(s)\n", len(res.Images))
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report (atomic replace)")
	analyzeCmd.Flags().StringVar(&anaOutDir, "out-dir", "", "directory for generated images (overrides output_dir)")
	analyzeCmd.Flags().StringVarP(&anaModel, "model", "m", "", "Ollama model for insights (overrides model)")
	analyzeCmd.Flags().StringVar(&anaHost, "ollama-host", "", "Ollama base URL (overrides ollama_host)")
	analyzeCmd.Flags().BoolVar(&anaRequire, "require-insights", false, "fail the run when the model is unavailable")
	analyzeCmd.Flags().BoolVar(&anaNoInsights, "no-insights", false, "skip the model call entirely")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (auto if omitted)")
	analyzeCmd.Flags().StringVar(&anaDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	analyzeCmd.Flags().StringVar(&anaThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet", "", "XLSX: sheet name to analyze (first sheet if omitted)")
	analyzeCmd.Flags().BoolVar(&anaFailOnEmpty, "fail-on-empty", false, "fail when a column has no values to impute from")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "text", "output format: text|json")
}

// contextOrBackground keeps commands runnable when invoked without ExecuteContext.
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
