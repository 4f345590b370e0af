package maind

import (
	"context"
	"html"
	"time"

	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/downloader"
	"github.com/vm-affekt/mediagrab/internal/logging"
	"github.com/vm-affekt/mediagrab/internal/present"
)

type dialog struct {
	rup             app.ReqUserProvider
	downloadService app.DownloadService
	fetchTimeout    time.Duration
}

func New(rup app.ReqUserProvider, downloadService app.DownloadService, fetchTimeout time.Duration) app.Dialog {
	return &dialog{
		rup:             rup,
		downloadService: downloadService,
		fetchTimeout:    fetchTimeout,
	}
}

func (d *dialog) OnEnter(ctx context.Context) error {
	log := logging.FromContextS(ctx)
	log.Info("User entered to main dialog")
	return nil
}

func (d *dialog) OnMessage(ctx context.Context, text string, msgID int) error {
	log := logging.FromContextS(ctx)
	link := downloader.NormalizeLink(text)
	if err := downloader.ValidateLink(link); err != nil {
		return app.
			NewUserError("Send a link to a video (YouTube or any other site yt-dlp supports) to download it").
			WithCause(err)
	}

	fetchCtx := ctx
	if d.fetchTimeout > 0 {
		var cancel func()
		fetchCtx, cancel = context.WithTimeout(ctx, d.fetchTimeout)
		defer cancel()
	}
	info, err := d.downloadService.FetchInfo(fetchCtx, link)
	if err != nil {
		return app.
			NewUserErrorf("Failed to get information about this video:\n<code>%s</code>", html.EscapeString(err.Error())).
			WithCause(err)
	}

	card := present.HTMLCard(info)
	sent := false
	if info.ThumbnailURL != nil && *info.ThumbnailURL != "" {
		if err := d.rup.SendPhotoURL(ctx, *info.ThumbnailURL, card); err != nil {
			log.Warnf("Failed to send thumbnail, falling back to text card: %v", err)
		} else {
			sent = true
		}
	}
	if !sent {
		if _, err := app.SendMessagef(ctx, d.rup, card); err != nil {
			return err
		}
	}

	downloadDlg, err := d.rup.RedirectToDialog(ctx, app.DialogDownload)
	if err != nil {
		return err
	}
	return downloadDlg.OnMessage(ctx, link, msgID)
}
