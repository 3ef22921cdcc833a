package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/eda-cli/internal/ai"
	"github.com/KaramelBytes/eda-cli/internal/analysis"
	"github.com/KaramelBytes/eda-cli/internal/pipeline"
	"github.com/KaramelBytes/eda-cli/internal/viz"
)

// runOverrides carries per-command flag values that take precedence over config.
type runOverrides struct {
	model           string
	host            string
	outDir          string
	requireInsights bool
	skipInsights    bool
	failOnEmpty     bool
	load            analysis.LoadOptions
}

// newOllama builds an Ollama client with the configured timeout and retry policy.
func newOllama(host string) *ai.OllamaClient {
	return ai.NewOllamaClient(host, time.Duration(cfg.HTTPTimeoutSec)*time.Second, ai.RetryPolicy{
		Attempts:  cfg.RetryMaxAttempts,
		BaseDelay: time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:  time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
	})
}

// buildPipeline wires loader options, renderer and insight generator from config and
// overrides.
func buildPipeline(o runOverrides) *pipeline.Pipeline {
	model := firstNonEmpty(o.model, cfg.Model, ai.DefaultModel)
	host := firstNonEmpty(o.host, cfg.OllamaHost, ai.DefaultOllamaHost)
	outDir := firstNonEmpty(o.outDir, cfg.OutputDir, ".")

	deps := pipeline.Deps{
		Renderer: viz.NewRenderer(outDir),
		Logger:   logger,
	}
	if !o.skipInsights {
		deps.Insighter = &ai.InsightGenerator{
			Runtime: newOllama(host),
			Model:   model,
			Host:    host,
			Timeout: time.Duration(cfg.InsightTimeoutSec) * time.Second,
			Logger:  logger,
		}
	}
	return pipeline.New(pipeline.Config{
		Load:            o.load,
		Impute:          analysis.ImputeOptions{FailOnEmpty: o.failOnEmpty || cfg.FailOnEmptyColumn},
		RequireInsights: o.requireInsights || cfg.RequireInsights,
		SkipInsights:    o.skipInsights,
	}, deps)
}

// baseLoadOptions merges config-level loader settings onto the defaults.
func baseLoadOptions() analysis.LoadOptions {
	opt := analysis.DefaultLoadOptions()
	opt.Delimiter = cfg.DelimiterRune()
	opt.MissingValues = append(opt.MissingValues, cfg.MissingValues...)
	return opt
}

// applyLocaleFlags interprets the --delimiter, --decimal and --thousands values.
func applyLocaleFlags(opt *analysis.LoadOptions, delimiter, decimal, thousands string) error {
	switch delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", `\t`, "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|":
		opt.Delimiter = '|'
	default:
		return fmt.Errorf("unsupported --delimiter: %s (use ','|';'|'|'|'tab')", delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", decimal)
	}
	switch strings.ToLower(strings.TrimSpace(thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", thousands)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
