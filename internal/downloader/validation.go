package downloader

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/vm-affekt/mediagrab/internal/app"
)

var youtubeHosts = map[string]struct{}{
	"youtube.com":       {},
	"www.youtube.com":   {},
	"m.youtube.com":     {},
	"music.youtube.com": {},
	"youtu.be":          {},
}

// NormalizeLink trims the text a user pasted and adds https:// when the scheme is missing.
func NormalizeLink(text string) string {
	link := strings.TrimSpace(text)
	if link != "" && !strings.Contains(link, "://") {
		link = "https://" + link
	}
	return link
}

// ValidateLink checks that link is an absolute http(s) URL with a dotted host.
// YouTube links must also contain a video id, other hosts are left to yt-dlp.
func ValidateLink(link string) error {
	if err := app.ValidateAbsoluteURL(link); err != nil {
		return err
	}
	u, _ := url.Parse(link)
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	// plain words turn into single label hosts after NormalizeLink
	if !strings.Contains(u.Hostname(), ".") {
		return fmt.Errorf("url host %q is not a domain name", u.Hostname())
	}
	if !isYoutubeHost(u.Hostname()) {
		return nil
	}
	if _, err := youtube.ExtractVideoID(link); err != nil {
		return fmt.Errorf("failed to extract video id from link: %w", err)
	}
	return nil
}

// youtubeVideoID returns the video id for YouTube links and "" for anything else.
func youtubeVideoID(link string) string {
	u, err := url.Parse(link)
	if err != nil || !isYoutubeHost(u.Hostname()) {
		return ""
	}
	id, err := youtube.ExtractVideoID(link)
	if err != nil {
		return ""
	}
	return id
}

func isYoutubeHost(host string) bool {
	_, ok := youtubeHosts[strings.ToLower(host)]
	return ok
}
