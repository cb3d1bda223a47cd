package app

import (
	"fmt"
	"math"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders a size with 1024-based units, e.g. 1536 -> "1.5 KB"
func FormatBytes(n float64) string {
	if n <= 0 || math.IsNaN(n) {
		return "0 B"
	}
	if n < 1024 {
		return fmt.Sprintf("%d B", int64(n))
	}

	unit := 0
	for n >= 1024 && unit < len(byteUnits)-1 {
		n /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", n, byteUnits[unit])
}

// FormatSpeed renders a transfer rate in bytes per second
func FormatSpeed(bytesPerSec float64) string {
	return FormatBytes(bytesPerSec) + "/s"
}

// FormatETA renders seconds as MM:SS; unknown or zero is "--:--"
func FormatETA(seconds int) string {
	if seconds <= 0 {
		return "--:--"
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
