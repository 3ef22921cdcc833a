package viz

import (
	"errors"
	"fmt"
)

// ErrRangeOverflow is returned for a column whose max minus min is not a finite float64.
var ErrRangeOverflow = errors.New("value range overflows float64; cannot bin histogram")

// VisualizationError reports a failed image. Column is "heatmap" for the correlation plot.
type VisualizationError struct {
	Column string
	Path   string
	Err    error
}

func (e *VisualizationError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Column, e.Err)
}

func (e *VisualizationError) Unwrap() error { return e.Err }
