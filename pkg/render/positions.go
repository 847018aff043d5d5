package render

import (
	"gonum.org/v1/plot"

	"github.com/yourusername/graph-generation-service/pkg/table"
)

// mapX places the x values of rows on the plot axis. Numeric columns keep
// their values. Any other column gets one slot per distinct label in order of
// first appearance, and the returned ticks name the slots. Null x rows map to
// NaN and should be skipped by the caller.
func mapX(col *table.Column, rows []int) ([]float64, []plot.Tick) {
	xs := make([]float64, len(rows))
	if col.IsNumeric() {
		for i, r := range rows {
			if v, ok := col.Float(r); ok {
				xs[i] = v
			} else {
				xs[i] = nan
			}
		}
		return xs, nil
	}

	slots := make(map[string]int)
	var ticks []plot.Tick
	for i, r := range rows {
		if col.IsNull(r) {
			xs[i] = nan
			continue
		}
		label := col.Label(r)
		slot, ok := slots[label]
		if !ok {
			slot = len(slots)
			slots[label] = slot
			ticks = append(ticks, plot.Tick{Value: float64(slot), Label: label})
		}
		xs[i] = float64(slot)
	}
	return xs, ticks
}

// applyTicks installs nominal ticks on the x axis when mapX produced any
func applyTicks(p *plot.Plot, ticks []plot.Tick) {
	if len(ticks) == 0 {
		return
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	rotateXTicks(p)
	p.X.Min = -0.5
	p.X.Max = float64(len(ticks)) - 0.5
}
