package export

import (
	"fmt"
	"strings"

	"github.com/exolab/exomoon/internal/dynamics"
)

// OrbitSVG draws the star, planet, and moon paths in the barycentric
// plane as a standalone SVG. All three series share one coordinate
// frame so the hierarchy is visible at a glance.
func OrbitSVG(traj *dynamics.Trajectory, width, height int) string {
	series := []struct {
		pts   []dynamics.Vec3
		color string
	}{
		{traj.Star, "#ffd75f"},
		{traj.Planet, "#5fafff"},
		{traj.Moon, "#ff5f87"},
	}

	minX, maxX := traj.Star[0][0], traj.Star[0][0]
	minY, maxY := traj.Star[0][1], traj.Star[0][1]
	for _, s := range series {
		for _, p := range s.pts {
			minX = min(minX, p[0])
			maxX = max(maxX, p[0])
			minY = min(minY, p[1])
			maxY = max(maxY, p[1])
		}
	}

	var sb strings.Builder
	writeHeader(&sb, width, height)
	for _, s := range series {
		writePath(&sb, s.pts, s.color, width, height, minX, maxX, minY, maxY)
	}
	sb.WriteString("</svg>")
	return sb.String()
}

// MoonLocalSVG draws the moon's path in the planet-centred frame, where
// a bound orbit closes on itself and an escape spirals out.
func MoonLocalSVG(traj *dynamics.Trajectory, width, height int) string {
	rel := make([]dynamics.Vec3, traj.Steps())
	for i := range rel {
		rel[i] = traj.Moon[i].Sub(traj.Planet[i])
	}

	minX, maxX := rel[0][0], rel[0][0]
	minY, maxY := rel[0][1], rel[0][1]
	for _, p := range rel {
		minX = min(minX, p[0])
		maxX = max(maxX, p[0])
		minY = min(minY, p[1])
		maxY = max(maxY, p[1])
	}

	var sb strings.Builder
	writeHeader(&sb, width, height)
	writePath(&sb, rel, "#ff5f87", width, height, minX, maxX, minY, maxY)
	sb.WriteString("</svg>")
	return sb.String()
}

func writeHeader(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

func writePath(sb *strings.Builder, pts []dynamics.Vec3, color string, width, height int, minX, maxX, minY, maxY float64) {
	if len(pts) < 2 {
		return
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	padX := rangeX * 0.1
	padY := rangeY * 0.1
	loX, spanX := minX-padX, rangeX+2*padX
	loY, spanY := minY-padY, rangeY+2*padY

	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.2" d="M`, color)
	for i, p := range pts {
		x := (p[0] - loX) / spanX * float64(width)
		y := float64(height) - (p[1]-loY)/spanY*float64(height)
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}
