package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/KaramelBytes/eda-cli/internal/ai"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var modelsHost string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models installed in the local Ollama runtime",
	Example: `  eda models
  eda models --ollama-host http://gpu-box:11434`,
	RunE: func(cmd *cobra.Command, args []string) error {
		host := firstNonEmpty(modelsHost, cfg.OllamaHost, ai.DefaultOllamaHost)
		want := firstNonEmpty(cfg.Model, ai.DefaultModel)

		ctx, cancel := context.WithTimeout(contextOrBackground(cmd.Context()), 10*time.Second)
		defer cancel()
		var lister ai.ModelLister = newOllama(host)
		installed, err := lister.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("list models at %s: %w", host, err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"", "model", "params", "size", "context"})
		found := false
		for _, m := range installed {
			mark := ""
			if m.Name == want {
				mark = "*"
				found = true
			}
			ctxTokens := "?"
			if mi, ok := ai.LookupModel(m.Name); ok {
				ctxTokens = fmt.Sprintf("%d", mi.ContextTokens)
			}
			t.AppendRow(table.Row{mark, m.Name, m.ParameterSize, humanBytes(m.Size), ctxTokens})
		}
		t.Render()

		if found {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Configured model %s is installed\n", want)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: configured model %s is not installed (run: ollama pull %s)\n", want, want)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVar(&modelsHost, "ollama-host", "", "Ollama base URL (overrides ollama_host)")
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
