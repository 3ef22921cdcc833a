// Package viz renders histograms and correlation heatmaps for analysed tables.
package viz

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/eda-cli/internal/analysis"
)

const (
	DefaultBins     = 30
	HeatmapFileName = "heatmap.png"
	heatmapColumn   = "heatmap"
)

// Renderer writes PNG images for a table into OutputDir.
type Renderer struct {
	OutputDir string
	Bins      int
	Width     vg.Length
	Height    vg.Length
}

// NewRenderer returns a Renderer with the default bin count and image size.
func NewRenderer(outputDir string) *Renderer {
	return &Renderer{OutputDir: outputDir, Bins: DefaultBins, Width: 6 * vg.Inch, Height: 4 * vg.Inch}
}

// Output lists the produced images and the ones that failed.
type Output struct {
	// Paths holds histograms in column order followed by the heatmap, if any.
	Paths    []string
	Failures []*VisualizationError
}

// Render draws one histogram per numeric column and, when at least one numeric column
// exists, the correlation heatmap. A failure on one image does not stop the others; the
// returned error combines every failure and is nil when all images were written.
func (r *Renderer) Render(t *analysis.Table) (*Output, error) {
	out := &Output{}
	numeric := t.NumericColumns()
	if len(numeric) == 0 {
		return out, nil
	}
	dir := r.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return out, fmt.Errorf("create output dir: %w", err)
	}

	var errs error
	record := func(column, path string, err error) {
		if err != nil {
			ve := &VisualizationError{Column: column, Path: path, Err: err}
			out.Failures = append(out.Failures, ve)
			errs = multierr.Append(errs, ve)
			return
		}
		out.Paths = append(out.Paths, path)
	}

	for _, c := range numeric {
		path := filepath.Join(dir, HistogramFileName(c.Name))
		record(c.Name, path, r.histogram(c, path))
	}
	path := filepath.Join(dir, HeatmapFileName)
	record(heatmapColumn, path, r.heatmap(analysis.Correlation(t), path))
	return out, errs
}

func (r *Renderer) size() (vg.Length, vg.Length) {
	w, h := r.Width, r.Height
	if w <= 0 {
		w = 6 * vg.Inch
	}
	if h <= 0 {
		h = 4 * vg.Inch
	}
	return w, h
}

func (r *Renderer) bins() int {
	if r.Bins <= 0 {
		return DefaultBins
	}
	return r.Bins
}

// HistogramFileName derives the image name for a column: "<column>_hist.png" with
// path separators and other characters unsafe in file names replaced by '_'.
func HistogramFileName(column string) string {
	return sanitize(column) + "_hist.png"
}

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "column"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			b.WriteByte('_')
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "." || s == ".." {
		return strings.Repeat("_", len(s))
	}
	return s
}
