package registry

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatCount renders n with comma thousands separators.
func FormatCount(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// FormatTrend renders a trend delta with an explicit sign, e.g. "+3".
func FormatTrend(delta int) string {
	if delta >= 0 {
		return "+" + FormatCount(delta)
	}
	return FormatCount(delta)
}
