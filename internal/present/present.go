// Package present renders metadata and progress for humans.
package present

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/vm-affekt/mediagrab/internal/app"
)

const unknown = "unknown"

// Duration formats seconds as h:mm:ss or m:ss.
func Duration(seconds *float64) string {
	if seconds == nil || *seconds < 0 {
		return unknown
	}
	total := int64(math.Round(*seconds))
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func Views(count *int64) string {
	if count == nil {
		return unknown
	}
	return humanize.Comma(*count)
}

func Text(s *string) string {
	if s == nil || *s == "" {
		return unknown
	}
	return *s
}

func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func Bytes(n int64) string {
	if n < 0 {
		return unknown
	}
	return humanize.IBytes(uint64(n))
}

// Card is a plain text summary of info.
func Card(info *app.VideoInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title:    %s\n", info.Title)
	fmt.Fprintf(&b, "Uploader: %s\n", Text(info.Uploader))
	fmt.Fprintf(&b, "Duration: %s\n", Duration(info.Duration))
	fmt.Fprintf(&b, "Views:    %s\n", Views(info.ViewCount))
	fmt.Fprintf(&b, "Formats:  %d\n", len(info.Formats))
	return b.String()
}

// HTMLCard is Card for Telegram's HTML parse mode.
func HTMLCard(info *app.VideoInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(info.Title))
	fmt.Fprintf(&b, "Uploader: <i>%s</i>\n", html.EscapeString(Text(info.Uploader)))
	fmt.Fprintf(&b, "Duration: %s\n", Duration(info.Duration))
	fmt.Fprintf(&b, "Views: %s\n", Views(info.ViewCount))
	fmt.Fprintf(&b, "Available formats: %d", len(info.Formats))
	return b.String()
}

// Bar renders a progress bar of the given width, e.g. [#####-----].
func Bar(percent float64, width int) string {
	if width < 3 {
		return ""
	}
	inner := width - 2
	filled := int(math.Round(percent / 100 * float64(inner)))
	if filled < 0 {
		filled = 0
	}
	if filled > inner {
		filled = inner
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", inner-filled) + "]"
}
