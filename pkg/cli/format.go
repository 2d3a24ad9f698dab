package cli

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration in milliseconds, e.g. "850ms", "12.4s",
// "3m5.0s" or "2h14m".
func FormatDuration(ms float64) string {
	d := time.Duration(ms * float64(time.Millisecond))
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		mins := int(d / time.Minute)
		return fmt.Sprintf("%dm%.1fs", mins, (d - time.Duration(mins)*time.Minute).Seconds())
	default:
		hours := int(d / time.Hour)
		return fmt.Sprintf("%dh%dm", hours, int((d-time.Duration(hours)*time.Hour)/time.Minute))
	}
}

// FormatBytes formats a byte count with binary units.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMGT"[exp])
}
