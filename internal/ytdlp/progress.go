package ytdlp

import (
	"regexp"
	"strconv"

	"github.com/vm-affekt/mediagrab/internal/app"
)

var percentRegex = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

const noPercentYet = -1

// ProgressDecoder turns yt-dlp output chunks into progress events.
// It suppresses a percent equal to the last emitted one, but does not enforce monotonicity.
// One decoder serves exactly one download and is not safe for concurrent use.
type ProgressDecoder struct {
	lastEmitted float64
}

func NewProgressDecoder() *ProgressDecoder {
	return &ProgressDecoder{lastEmitted: noPercentYet}
}

// Feed processes every percent value of chunk in order of appearance.
func (d *ProgressDecoder) Feed(chunk string) []app.ProgressEvent {
	var events []app.ProgressEvent
	for _, m := range percentRegex.FindAllStringSubmatch(chunk, -1) {
		percent, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if percent == d.lastEmitted {
			continue
		}
		d.lastEmitted = percent
		events = append(events, app.ProgressEvent{Percent: percent})
	}
	return events
}

// LastEmitted returns the last emitted percent and false if nothing was emitted yet.
func (d *ProgressDecoder) LastEmitted() (float64, bool) {
	return d.lastEmitted, d.lastEmitted != noPercentYet
}
