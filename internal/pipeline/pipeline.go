// Package pipeline runs one exploratory analysis end to end:
// load, impute, summarize, visualize, then ask the model for insights.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/eda-cli/internal/ai"
	"github.com/KaramelBytes/eda-cli/internal/analysis"
	"github.com/KaramelBytes/eda-cli/internal/logging"
	"github.com/KaramelBytes/eda-cli/internal/viz"
)

// Section headers of the assembled report.
const (
	HeaderSummary  = "[SUMMARY]"
	HeaderMissing  = "[MISSING VALUES]"
	HeaderInsights = "[AI INSIGHTS]"
	HeaderNotes    = "[NOTES]"
)

// Insighter turns a statistics block into natural-language insights.
type Insighter interface {
	Generate(ctx context.Context, stats string) (string, error)
}

// Renderer draws images for a table.
type Renderer interface {
	Render(t *analysis.Table) (*viz.Output, error)
}

// Config controls a pipeline run.
type Config struct {
	Load   analysis.LoadOptions
	Impute analysis.ImputeOptions
	// RequireInsights turns an insight failure into a run failure instead of a note.
	RequireInsights bool
	// SkipInsights leaves the model out entirely.
	SkipInsights bool
}

// Deps are the pipeline's collaborators. Insighter may be nil when SkipInsights is set.
type Deps struct {
	Renderer  Renderer
	Insighter Insighter
	Logger    *slog.Logger
}

// Result is the outcome of one run.
type Result struct {
	RunID    string
	File     string
	Report   string
	Images   []string
	Summary  *analysis.Summary
	Insight  string
	Warnings []string
	Duration time.Duration
}

// Pipeline is stateless between runs; one value can serve many calls.
type Pipeline struct {
	cfg  Config
	deps Deps
}

// New builds a Pipeline.
func New(cfg Config, deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, deps: deps}
}

// Run analyses the file at path. File and imputation errors abort the run; visualization
// failures become notes; insight failures become notes unless RequireInsights is set.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), File: filepath.Base(path)}
	ctx = logging.WithRunID(ctx, res.RunID)
	log := p.deps.Logger

	tbl, err := analysis.Load(path, p.cfg.Load)
	if err != nil {
		log.ErrorContext(ctx, "load failed", "file", path, "error", err)
		return nil, err
	}
	log.InfoContext(ctx, "table loaded", "file", res.File, "rows", tbl.Rows, "columns", len(tbl.Columns))

	imp, err := analysis.Impute(tbl, p.cfg.Impute)
	if err != nil {
		log.ErrorContext(ctx, "imputation failed", "error", err)
		return nil, err
	}
	for name, n := range imp.Filled {
		log.DebugContext(ctx, "imputed column", "column", name, "cells", n, "value", imp.FillValues[name])
	}
	for _, name := range imp.Skipped {
		res.Warnings = append(res.Warnings, fmt.Sprintf("column %q has no values; left unimputed", name))
	}

	res.Summary = analysis.Summarize(tbl)
	stats := res.Summary.StatisticsText()

	if p.deps.Renderer != nil {
		out, err := p.deps.Renderer.Render(tbl)
		if out != nil {
			res.Images = out.Paths
			for _, f := range out.Failures {
				res.Warnings = append(res.Warnings, "visualization failed: "+f.Error())
			}
		}
		if err != nil {
			var ve *viz.VisualizationError
			if !errors.As(err, &ve) {
				// output directory problems: nothing could be drawn
				res.Warnings = append(res.Warnings, "visualization failed: "+err.Error())
			}
			log.WarnContext(ctx, "visualization incomplete", "error", err, "images", len(res.Images))
		}
	}

	switch {
	case p.cfg.SkipInsights:
		res.Insight = "(insights skipped)"
	case p.deps.Insighter == nil:
		res.Insight = "(insights unavailable: no model configured)"
		res.Warnings = append(res.Warnings, "insights unavailable: no model configured")
	default:
		text, err := p.deps.Insighter.Generate(ctx, stats)
		if err != nil {
			if p.cfg.RequireInsights {
				log.ErrorContext(ctx, "insights failed", "error", err)
				return nil, err
			}
			log.WarnContext(ctx, "insights unavailable; continuing with statistics only", "error", err)
			res.Insight = fmt.Sprintf("(insights unavailable: %v)", err)
			res.Warnings = append(res.Warnings, "insights unavailable: "+err.Error())
		} else {
			res.Insight = text
		}
	}

	res.Report = FormatReport(res.File, stats, res.Summary.MissingText(), res.Insight, res.Warnings)
	res.Duration = time.Since(start)
	log.InfoContext(ctx, "analysis complete", "file", res.File, "images", len(res.Images),
		"warnings", len(res.Warnings), "duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

// FormatReport assembles the report under fixed section headers. The notes section is
// present only when there are warnings.
func FormatReport(file, stats, missing, insight string, warnings []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "EDA Complete: %s\n\n", file)
	fmt.Fprintf(&b, "%s\n%s\n\n", HeaderSummary, strings.TrimRight(stats, "\n"))
	fmt.Fprintf(&b, "%s\n%s\n\n", HeaderMissing, strings.TrimRight(missing, "\n"))
	fmt.Fprintf(&b, "%s\n%s\n", HeaderInsights, strings.TrimRight(insight, "\n"))
	if len(warnings) > 0 {
		fmt.Fprintf(&b, "\n%s\n", HeaderNotes)
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

// IsModelUnavailable reports whether err came from the insight step.
func IsModelUnavailable(err error) bool {
	var mu *ai.ModelUnavailableError
	return errors.As(err, &mu)
}
