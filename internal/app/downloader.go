package app

import (
	"context"
)

// ProgressFunc receives progress events of a running download, in order.
type ProgressFunc func(ProgressEvent)

// DownloadService is the core consumed by every front-end.
type DownloadService interface {
	// FetchInfo returns metadata of the media behind link.
	FetchInfo(ctx context.Context, link string) (*VideoInfo, error)
	// Download blocks until the external downloader exits. onProgress may be nil.
	Download(ctx context.Context, req DownloadRequest, onProgress ProgressFunc) error
}
