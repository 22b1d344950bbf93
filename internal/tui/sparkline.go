package tui

import (
	"github.com/NimbleMarkets/ntcharts/sparkline"

	"minetrack/internal/telemetry"
)

// renderSparkline draws the last width samples as a one-row bar chart
// scaled to their maximum.
func renderSparkline(samples []telemetry.Sample, width int) string {
	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}
	if len(samples) == 0 {
		return ""
	}
	sl := sparkline.New(len(samples), 1)
	for _, s := range samples {
		sl.Push(float64(s.Value))
	}
	sl.Draw()
	return sl.View()
}
