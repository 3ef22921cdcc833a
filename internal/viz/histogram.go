package viz

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/eda-cli/internal/analysis"
)

const kdePoints = 200

var (
	histFill = color.RGBA{R: 76, G: 114, B: 176, A: 160}
	kdeColor = color.RGBA{R: 31, G: 64, B: 122, A: 255}
)

func (r *Renderer) histogram(c *analysis.Column, path string) error {
	vals := c.PresentNumbers()
	if len(vals) > 0 && math.IsInf(floats.Max(vals)-floats.Min(vals), 0) {
		return ErrRangeOverflow
	}
	p := plot.New()
	p.Title.Text = "Distribution of " + c.Name
	p.X.Label.Text = c.Name
	p.Y.Label.Text = "Count"

	h, err := plotter.NewHist(plotter.Values(vals), r.bins())
	if err != nil {
		return err
	}
	h.FillColor = histFill
	h.LineStyle.Color = color.White
	p.Add(h)

	if curve := kdeCurve(vals, h.Width); curve != nil {
		l, err := plotter.NewLine(curve)
		if err != nil {
			return err
		}
		l.Color = kdeColor
		l.Width = vg.Points(2)
		p.Add(l)
	}

	w, ht := r.size()
	return p.Save(w, ht, path)
}

// kdeCurve evaluates a Gaussian kernel density estimate over the data range, scaled to
// histogram counts (n * binWidth). Bandwidth follows Scott's rule. Returns nil when the
// density is undefined (fewer than two points or zero variance).
func kdeCurve(vals []float64, binWidth float64) plotter.XYs {
	n := len(vals)
	if n < 2 {
		return nil
	}
	sd := stat.StdDev(vals, nil)
	if sd == 0 || math.IsNaN(sd) {
		return nil
	}
	bw := sd * math.Pow(float64(n), -0.2)
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	scale := float64(n) * binWidth
	norm := 1 / (float64(n) * bw * math.Sqrt(2*math.Pi))
	pts := make(plotter.XYs, kdePoints)
	step := (hi - lo) / float64(kdePoints-1)
	for i := range pts {
		x := lo + float64(i)*step
		var d float64
		for _, v := range vals {
			u := (x - v) / bw
			d += math.Exp(-0.5 * u * u)
		}
		pts[i].X = x
		pts[i].Y = d * norm * scale
	}
	return pts
}
