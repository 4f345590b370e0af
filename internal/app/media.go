package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Format is the kind of media the user wants to end up with.
type Format string

const (
	FormatVideo Format = "video"
	FormatMP3   Format = "mp3"
)

func (f Format) Validate() error {
	switch f {
	case FormatVideo, FormatMP3:
		return nil
	}
	return fmt.Errorf("%q is unknown format", string(f))
}

// Quality is a height bound for video downloads. It is ignored for mp3.
type Quality string

const (
	QualityBest  Quality = "best"
	Quality1080p Quality = "1080"
	Quality720p  Quality = "720"
	Quality480p  Quality = "480"
	Quality360p  Quality = "360"
)

var knownQualities = map[Quality]struct{}{
	QualityBest:  {},
	Quality1080p: {},
	Quality720p:  {},
	Quality480p:  {},
	Quality360p:  {},
}

// Known reports whether q is one of the predefined qualities.
// Unknown values are still accepted by the format policy (they fall back to 360p).
func (q Quality) Known() bool {
	_, ok := knownQualities[q]
	return ok
}

var ErrInvalidRequest = errors.New("invalid download request")

// DownloadRequest is a user's selection for a single download.
type DownloadRequest struct {
	URL       string
	OutputDir string
	Format    Format
	Quality   Quality
}

func (r DownloadRequest) Validate() error {
	if err := ValidateAbsoluteURL(r.URL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if r.OutputDir == "" || !filepath.IsAbs(r.OutputDir) {
		return fmt.Errorf("%w: output directory %q is not an absolute path", ErrInvalidRequest, r.OutputDir)
	}
	if err := r.Format.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// ValidateAbsoluteURL checks that link is a non-empty absolute URL with a host.
func ValidateAbsoluteURL(link string) error {
	if strings.TrimSpace(link) == "" {
		return errors.New("url is empty")
	}
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("failed to parse url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("url %q is not absolute", link)
	}
	return nil
}

// InvocationPlan is the exact command line for the external downloader.
type InvocationPlan struct {
	ExecutablePath string
	Arguments      []string
}

type ProgressEvent struct {
	Percent float64
}

// VideoInfo is the projection of the downloader's metadata document.
// Optional fields are nil when the document does not report them.
type VideoInfo struct {
	Title        string            `json:"title"`
	ThumbnailURL *string           `json:"thumbnail,omitempty"`
	Duration     *float64          `json:"duration,omitempty"`
	Uploader     *string           `json:"uploader,omitempty"`
	ViewCount    *int64            `json:"view_count,omitempty"`
	Formats      []json.RawMessage `json:"formats"`
}

type SessionState int

const (
	SessionIdle = SessionState(iota)
	SessionRunning
	SessionSucceeded
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionRunning:
		return "running"
	case SessionSucceeded:
		return "succeeded"
	case SessionFailed:
		return "failed"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}
