package download

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/dialogs/progress"
	"github.com/vm-affekt/mediagrab/internal/downloader"
	"github.com/vm-affekt/mediagrab/internal/logging"
	"github.com/vm-affekt/mediagrab/internal/platform"
	"github.com/vm-affekt/mediagrab/internal/present"
)

const (
	btnMP3    = "MP3"
	btnBest   = "Best"
	btn1080p  = "1080p"
	btn720p   = "720p"
	btn480p   = "480p"
	btn360p   = "360p"
	btnCancel = "Cancel"
	btnStatus = "Status"
)

type choice struct {
	label   string
	format  app.Format
	quality app.Quality
}

var choices = map[string]choice{
	btnMP3:   {label: "audio (mp3)", format: app.FormatMP3, quality: app.QualityBest},
	btnBest:  {label: "video (best quality)", format: app.FormatVideo, quality: app.QualityBest},
	btn1080p: {label: "video (1080p)", format: app.FormatVideo, quality: app.Quality1080p},
	btn720p:  {label: "video (720p)", format: app.FormatVideo, quality: app.Quality720p},
	btn480p:  {label: "video (480p)", format: app.FormatVideo, quality: app.Quality480p},
	btn360p:  {label: "video (360p)", format: app.FormatVideo, quality: app.Quality360p},
}

var keyboardChoose = tgbotapi.NewOneTimeReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnMP3),
		tgbotapi.NewKeyboardButton(btnBest),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btn1080p),
		tgbotapi.NewKeyboardButton(btn720p),
		tgbotapi.NewKeyboardButton(btn480p),
		tgbotapi.NewKeyboardButton(btn360p),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnCancel),
	),
)

var keyboardOnWait = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnCancel),
		tgbotapi.NewKeyboardButton(btnStatus),
	),
)

const (
	defaultUploadMaxFileSizeMB  = 48
	defaultProgressEditInterval = 3 * time.Second
)

type Options struct {
	// DownloadDir is the parent of per-download session directories.
	DownloadDir string
	// Timeout of zero means no limit.
	Timeout             time.Duration
	UploadMaxFileSizeMB int64
	// ProgressEditInterval limits how often the progress message is edited.
	ProgressEditInterval time.Duration
}

type dialog struct {
	rup               app.ReqUserProvider
	downloadService   app.DownloadService
	opts              Options
	uploadMaxFileSize int64

	statusMx         sync.Mutex
	link             string
	status           *downloadStatus
	messagesToDelete messagesToDelete
}

type downloadStatus struct {
	choice
	progressCounter *progress.Counter
	cancel          func()
	cancelled       bool
}

type messagesToDelete struct {
	mu  sync.Mutex
	ids []int
}

func (mtd *messagesToDelete) addMessage(id int) {
	mtd.mu.Lock()
	defer mtd.mu.Unlock()
	mtd.ids = append(mtd.ids, id)
}

func (mtd *messagesToDelete) getIDs() []int {
	mtd.mu.Lock()
	defer mtd.mu.Unlock()
	return append([]int(nil), mtd.ids...)
}

func New(rup app.ReqUserProvider, downloadService app.DownloadService, opts Options) app.Dialog {
	maxMB := opts.UploadMaxFileSizeMB
	if maxMB <= 0 {
		maxMB = defaultUploadMaxFileSizeMB
	}
	if opts.ProgressEditInterval <= 0 {
		opts.ProgressEditInterval = defaultProgressEditInterval
	}
	return &dialog{
		rup:               rup,
		downloadService:   downloadService,
		opts:              opts,
		uploadMaxFileSize: megabytesToBytes(maxMB),
	}
}

func (d *dialog) OnEnter(ctx context.Context) error {
	log := logging.FromContextS(ctx)
	log.Info("User entered to download dialog")
	return nil
}

// OnMessage expects the link first (forwarded by the main dialog), then a format choice.
// While a download runs only Status and Cancel are accepted.
func (d *dialog) OnMessage(ctx context.Context, text string, msgID int) error {
	if st := d.currentStatus(); st != nil {
		d.messagesToDelete.addMessage(msgID)
		return d.onDownloading(ctx, st, text)
	}

	text = strings.TrimSpace(text)
	link := d.getLink()
	if c, ok := choices[text]; ok && link != "" {
		d.messagesToDelete.addMessage(msgID)
		return d.startDownload(ctx, link, c)
	}
	if text == btnCancel {
		if _, err := app.SendMessagef(ctx, d.rup, "Okay. Send another link whenever you want."); err != nil {
			return err
		}
		_, err := d.rup.RedirectToDialog(ctx, app.DialogMain)
		return err
	}

	newLink := downloader.NormalizeLink(text)
	if err := downloader.ValidateLink(newLink); err != nil {
		_, err := d.rup.SendMessageWithKeyboardf(ctx, &keyboardChoose, "Choose a format on the keyboard below.")
		return err
	}
	if link == "" {
		d.setLink(newLink)
		_, err := d.rup.SendMessageWithKeyboardf(ctx, &keyboardChoose, "Choose what to download:")
		return err
	}

	// a different link starts over
	mainDlg, err := d.rup.RedirectToDialog(ctx, app.DialogMain)
	if err != nil {
		return err
	}
	return mainDlg.OnMessage(ctx, text, msgID)
}

func (d *dialog) getLink() string {
	d.statusMx.Lock()
	defer d.statusMx.Unlock()
	return d.link
}

func (d *dialog) setLink(link string) {
	d.statusMx.Lock()
	defer d.statusMx.Unlock()
	d.link = link
}

func (d *dialog) currentStatus() *downloadStatus {
	d.statusMx.Lock()
	defer d.statusMx.Unlock()
	return d.status
}

func (d *dialog) sendMsgWithKeyboardThenDeletef(ctx context.Context, text string, vals ...interface{}) (err error) {
	msgID, err := d.rup.SendMessageWithKeyboardf(ctx, &keyboardOnWait, text, vals...)
	if err != nil {
		return err
	}
	d.messagesToDelete.addMessage(msgID)
	return nil
}

func (d *dialog) onDownloading(ctx context.Context, st *downloadStatus, text string) error {
	text = strings.TrimSpace(text)
	switch text {
	case btnCancel:
		if err := d.stopDownloading(ctx, st); err != nil {
			return fmt.Errorf("failed to stop downloading: %w", err)
		}
		return nil
	case btnStatus:
		return d.printStatus(ctx, st)
	}
	if err := downloader.ValidateLink(downloader.NormalizeLink(text)); err == nil {
		return d.sendMsgWithKeyboardThenDeletef(ctx, "You can't download another video until the current download finishes. You can cancel it.")
	}
	// any other text gets the status as well
	return d.printStatus(ctx, st)
}

func (d *dialog) printStatus(ctx context.Context, st *downloadStatus) error {
	if err := d.printCurrentDownloadStatus(ctx, st); err != nil {
		return fmt.Errorf("failed to print current download status: %w", err)
	}
	return nil
}

func (d *dialog) printCurrentDownloadStatus(ctx context.Context, st *downloadStatus) error {
	log := logging.FromContextS(ctx)
	log.Info("User requested progress status of downloading.")
	pc := st.progressCounter
	if !pc.Started() {
		return d.sendMsgWithKeyboardThenDeletef(ctx, "The download of %s is starting, no progress yet...", st.label)
	}
	var estimatedTimeS string
	estimatedTime, err := pc.EstimatedTime()
	if err != nil {
		log.Warnf("Failed to count estimated time by reason: %v", err)
		estimatedTimeS = "???"
	} else {
		estimatedTimeS = estimatedTime.Round(time.Second).String()
	}
	return d.sendMsgWithKeyboardThenDeletef(ctx, "Downloaded <b>%s</b> of %s\nElapsed: <i>%s</i>\nApproximately left: <b>%s</b>",
		present.Percent(pc.Percentage()), st.label, pc.Elapsed().Round(time.Second), estimatedTimeS)
}

func (d *dialog) stopDownloading(ctx context.Context, st *downloadStatus) error {
	log := logging.FromContextS(ctx)
	log.Info("User requested to stop downloading!")
	d.statusMx.Lock()
	st.cancelled = true
	d.statusMx.Unlock()
	st.cancel()
	return d.sendMsgWithKeyboardThenDeletef(ctx, "Cancelling the download...")
}

func (d *dialog) startDownload(msgCtx context.Context, link string, c choice) error {
	// The download outlives the message that started it.
	baseCtx := logging.CopyContext(msgCtx, context.Background())
	var (
		dlCtx  context.Context
		cancel func()
	)
	if d.opts.Timeout > 0 {
		dlCtx, cancel = context.WithTimeout(baseCtx, d.opts.Timeout)
	} else {
		dlCtx, cancel = context.WithCancel(baseCtx)
	}
	st := &downloadStatus{
		choice:          c,
		progressCounter: progress.NewCounter(),
		cancel:          cancel,
	}

	d.statusMx.Lock()
	if d.status != nil {
		d.statusMx.Unlock()
		cancel()
		return nil
	}
	d.status = st
	d.statusMx.Unlock()

	progressMsgID, err := d.rup.SendMessageWithKeyboardf(baseCtx, &keyboardOnWait,
		"Downloading %s... You can check the status or cancel the download with the keyboard.", c.label)
	if err != nil {
		d.clearStatus()
		cancel()
		return err
	}
	go d.run(baseCtx, dlCtx, link, st, progressMsgID)
	return nil
}

func (d *dialog) clearStatus() {
	d.statusMx.Lock()
	defer d.statusMx.Unlock()
	d.status = nil
}

func (d *dialog) isCancelled(st *downloadStatus) bool {
	d.statusMx.Lock()
	defer d.statusMx.Unlock()
	return st.cancelled
}

// run performs the download and always ends by returning the user to the main dialog.
// Messages are sent with ctx, which is not cancelled together with dlCtx.
func (d *dialog) run(ctx, dlCtx context.Context, link string, st *downloadStatus, progressMsgID int) {
	log := logging.FromContextS(ctx)
	startT := time.Now()
	defer func() {
		st.cancel()
		log.Infof("Elapsed time of downloading %q is %v", link, time.Since(startT).String())
		d.clearStatus()
		if err := d.rup.DeleteMessages(ctx, d.messagesToDelete.getIDs()...); err != nil {
			log.Warnf("Failed to delete messages: %v", err)
		}
		if _, err := d.rup.RedirectToDialog(ctx, app.DialogMain); err != nil {
			log.Errorf("Failed to return user to main dialog: %v", err)
		}
	}()
	if err := d.download(ctx, dlCtx, link, st, progressMsgID); err != nil {
		log.Errorf("Failed to download %q: %v", link, err)
		_, _ = app.SendMessagef(ctx, d.rup, d.failureText(st, err))
	}
}

func (d *dialog) failureText(st *downloadStatus, err error) string {
	switch {
	case d.isCancelled(st):
		return "Download cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("The download of %s took longer than %s and was stopped.", st.label, d.opts.Timeout)
	}
	return fmt.Sprintf("Failed to download %s.\n\nError text:\n<code>%s</code>", st.label, html.EscapeString(err.Error()))
}

func (d *dialog) download(ctx, dlCtx context.Context, link string, st *downloadStatus, progressMsgID int) error {
	log := logging.FromContextS(ctx)

	sessionDir := filepath.Join(d.opts.DownloadDir, uuid.NewString())
	if err := platform.EnsureDir(sessionDir); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(sessionDir); err != nil {
			log.Warnf("Failed to remove session directory %q: %v", sessionDir, err)
		}
	}()

	req := app.DownloadRequest{
		URL:       link,
		OutputDir: sessionDir,
		Format:    st.format,
		Quality:   st.quality,
	}
	stopEdits := d.startProgressEdits(ctx, st.progressCounter, progressMsgID)
	err := d.downloadService.Download(dlCtx, req, st.progressCounter.Observe)
	stopEdits()
	if err != nil {
		return err
	}

	files, err := platform.ListFiles(sessionDir)
	if err != nil {
		return fmt.Errorf("failed to list downloaded files: %w", err)
	}
	if len(files) == 0 {
		return errors.New("yt-dlp finished without producing a file")
	}
	if err := d.rup.EditMessagef(ctx, progressMsgID, "Downloaded %s. Uploading to Telegram...", st.label); err != nil {
		log.Warnf("Failed to edit progress message: %v", err)
	}

	uploaded := 0
	for _, path := range files {
		ctx := logging.NewContextS(ctx, "file", filepath.Base(path))
		fi, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat downloaded file: %w", err)
		}
		if fi.Size() > d.uploadMaxFileSize {
			logging.FromContextS(ctx).Warnf("File is too big to upload: %d bytes", fi.Size())
			if _, err := app.SendMessagef(ctx, d.rup, "File <b>%s</b> is %s, but bots can upload at most %s to Telegram. Try a lower quality.",
				html.EscapeString(filepath.Base(path)), present.Bytes(fi.Size()), present.Bytes(d.uploadMaxFileSize)); err != nil {
				return err
			}
			continue
		}
		if err := d.rup.SendFile(ctx, path, st.format == app.FormatMP3); err != nil {
			return fmt.Errorf("failed to upload %q: %w", filepath.Base(path), err)
		}
		uploaded++
	}

	log.Infof("Successfully downloaded! Uploaded %d of %d files", uploaded, len(files))
	if uploaded == 0 {
		return nil
	}
	_, err = app.SendMessagef(ctx, d.rup, "Done! Your %s is above.", st.label)
	return err
}

// startProgressEdits periodically edits the progress message until the returned stop func is called.
func (d *dialog) startProgressEdits(ctx context.Context, pc *progress.Counter, msgID int) (stop func()) {
	log := logging.FromContextS(ctx)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(d.opts.ProgressEditInterval)
		defer ticker.Stop()
		last := -1.0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			if !pc.Started() {
				continue
			}
			p := pc.Percentage()
			if p == last {
				continue
			}
			last = p
			if err := d.rup.EditMessagef(ctx, msgID, "Downloading: <b>%s</b>\n<code>%s</code>", present.Percent(p), present.Bar(p, 22)); err != nil {
				log.Warnf("Failed to edit progress message: %v", err)
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

const oneMB = 1048576

func megabytesToBytes(mbs int64) int64 {
	return mbs * oneMB
}
