package entity

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var sizeUnits = [...]string{"B", "KB", "MB", "GB", "TB", "PB"}

// timeLayout is the fixed format used when human-readable rendering is off.
const timeLayout = "2006-01-02 15:04:05"

// FormatSize renders a byte count with binary (1024-based) scaling: the
// value is divided by 1024 until it drops below 1024 or PB is reached, then
// rounded to two decimals with trailing zeros trimmed.
func FormatSize(bytes int64) string {
	v := float64(bytes)
	unit := 0
	for v >= 1024 && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[unit]
}

// formatTime renders a timestamp either as a natural-language duration
// ("3 hours ago") or as a fixed absolute datetime.
func formatTime(t time.Time, humanReadable bool) string {
	if humanReadable {
		return humanize.Time(t)
	}
	return t.Format(timeLayout)
}

// classifyType derives a coarse object classification from a MIME type.
// The primary component decides: image/video/audio/text map to themselves,
// application types report the subtype's final slash-separated segment, and
// everything else is unknown.
func classifyType(mime string) string {
	primary, rest, ok := strings.Cut(mime, "/")
	if !ok {
		return "unknown"
	}
	switch primary {
	case "image", "video", "audio", "text":
		return primary
	case "application":
		if idx := strings.LastIndexByte(rest, '/'); idx >= 0 {
			return rest[idx+1:]
		}
		return rest
	default:
		return "unknown"
	}
}
