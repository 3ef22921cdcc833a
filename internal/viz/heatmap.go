package viz

import (
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/eda-cli/internal/analysis"
)

// corrGrid adapts a correlation matrix to plotter.GridXYZ. Row 0 of the matrix is drawn
// at the top.
type corrGrid struct {
	m *analysis.CorrMatrix
}

func (g corrGrid) Dims() (c, r int)   { n := len(g.m.Columns); return n, n }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }
func (g corrGrid) Z(c, r int) float64 { return g.m.Values[g.row(r)][c] }
func (g corrGrid) row(r int) int      { return len(g.m.Columns) - 1 - r }

func (r *Renderer) heatmap(m *analysis.CorrMatrix, path string) error {
	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)

	g := corrGrid{m: m}
	hm := plotter.NewHeatMap(g, cm.Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 200}

	p := plot.New()
	p.Title.Text = "Correlation Heatmap"
	p.Add(hm)

	n := len(m.Columns)
	lbl := plotter.XYLabels{XYs: make(plotter.XYs, 0, n*n), Labels: make([]string, 0, n*n)}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			lbl.XYs = append(lbl.XYs, plotter.XY{X: float64(j), Y: float64(n - 1 - i)})
			lbl.Labels = append(lbl.Labels, annotation(m.Values[i][j]))
		}
	}
	labels, err := plotter.NewLabels(lbl)
	if err != nil {
		return err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	reversed := make([]string, n)
	for i, name := range m.Columns {
		reversed[n-1-i] = name
	}
	p.NominalX(m.Columns...)
	p.NominalY(reversed...)

	w, h := r.size()
	return p.Save(w, h, path)
}

func annotation(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
