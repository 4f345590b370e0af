package ytdlp

import (
	"fmt"

	"github.com/vm-affekt/mediagrab/internal/app"
)

const (
	bestVideoExpression     = "best[ext=mp4]/best"
	boundedVideoExpressionF = "best[height<=%[1]s][ext=mp4]/best[height<=%[1]s]"
)

// SelectFormatExpression returns the -f selector for the given format and quality.
// A pre-combined mp4 stream is preferred, then any pre-combined stream within the same
// height bound. Unknown qualities fall back to 360p instead of failing.
// For mp3 there is no selector: audio extraction is driven by encode flags.
func SelectFormatExpression(format app.Format, quality app.Quality) string {
	if format == app.FormatMP3 {
		return ""
	}
	switch quality {
	case app.QualityBest:
		return bestVideoExpression
	case app.Quality1080p, app.Quality720p, app.Quality480p:
		return fmt.Sprintf(boundedVideoExpressionF, string(quality))
	default:
		return fmt.Sprintf(boundedVideoExpressionF, string(app.Quality360p))
	}
}
