package ytdlp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vm-affekt/mediagrab/internal/app"
)

// rawMetadata lists the only fields we take from the --dump-json document.
type rawMetadata struct {
	Title     *string           `json:"title"`
	Thumbnail *string           `json:"thumbnail"`
	Duration  *float64          `json:"duration"`
	Uploader  *string           `json:"uploader"`
	ViewCount *int64            `json:"view_count"`
	Formats   []json.RawMessage `json:"formats"`
}

// DecodeMetadata parses exactly one JSON document into VideoInfo.
// Failures are returned as *app.DecodeError.
func DecodeMetadata(doc []byte) (*app.VideoInfo, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(doc), []byte("{")) {
		return nil, &app.DecodeError{Err: errors.New("metadata is not a JSON object")}
	}
	dec := json.NewDecoder(bytes.NewReader(doc))
	var raw rawMetadata
	if err := dec.Decode(&raw); err != nil {
		return nil, &app.DecodeError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &app.DecodeError{Err: fmt.Errorf("unexpected data after metadata document at offset %d", dec.InputOffset())}
	}

	info := &app.VideoInfo{
		ThumbnailURL: raw.Thumbnail,
		Duration:     raw.Duration,
		Uploader:     raw.Uploader,
		ViewCount:    raw.ViewCount,
		Formats:      raw.Formats,
	}
	if raw.Title != nil {
		info.Title = *raw.Title
	}
	if info.Formats == nil {
		info.Formats = []json.RawMessage{}
	}
	return info, nil
}
