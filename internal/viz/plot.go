// Package viz renders trajectories and stability series in the terminal:
// static asciigraph plots and an interactive replay view.
package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// SeparationPlot renders the moon-planet separation series with the
// escape threshold drawn as a second series, sized for a standard
// terminal.
func SeparationPlot(sep []float64, threshold *float64, dt float64) string {
	series := downsample(sep, 120)
	data := [][]float64{series}
	if threshold != nil {
		flat := make([]float64, len(series))
		for i := range flat {
			flat[i] = *threshold
		}
		data = append(data, flat)
	}

	graph := asciigraph.PlotMany(data,
		asciigraph.Height(16),
		asciigraph.Width(120),
		asciigraph.Caption(fmt.Sprintf("moon-planet separation (AU) over %.3g yr", float64(len(sep))*dt)),
	)

	var b strings.Builder
	b.WriteString(graph)
	b.WriteString("\n")
	return b.String()
}

// SweepPlot renders max separation per Hill fraction.
func SweepPlot(fractions, maxSep []float64) string {
	if len(maxSep) == 0 {
		return ""
	}
	graph := asciigraph.Plot(maxSep,
		asciigraph.Height(12),
		asciigraph.Width(100),
		asciigraph.Caption(fmt.Sprintf("max separation (AU), am_hill %.3g..%.3g",
			fractions[0], fractions[len(fractions)-1])),
	)
	return graph + "\n"
}

// downsample thins a series to at most n points, keeping endpoints.
func downsample(s []float64, n int) []float64 {
	if len(s) <= n || n < 2 {
		return s
	}
	out := make([]float64, n)
	step := float64(len(s)-1) / float64(n-1)
	for i := range out {
		out[i] = s[int(float64(i)*step)]
	}
	return out
}
