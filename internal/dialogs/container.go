package dialogs

import (
	"time"

	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/dialogs/download"
	"github.com/vm-affekt/mediagrab/internal/dialogs/maind"
)

// Container is DI-container of app
type Container struct {
	downloadService app.DownloadService
	fetchTimeout    time.Duration
	downloadOpts    download.Options
}

func NewContainer(downloadService app.DownloadService, fetchTimeout time.Duration, downloadOpts download.Options) *Container {
	return &Container{
		downloadService: downloadService,
		fetchTimeout:    fetchTimeout,
		downloadOpts:    downloadOpts,
	}
}

func (c *Container) CreateDialog(id app.DialogID, rup app.ReqUserProvider) app.Dialog {
	switch id {
	case app.DialogMain:
		return maind.New(rup, c.downloadService, c.fetchTimeout)
	case app.DialogDownload:
		return download.New(rup, c.downloadService, c.downloadOpts)
	}
	return nil
}
