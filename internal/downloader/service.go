package downloader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/logging"
	"github.com/vm-affekt/mediagrab/internal/platform"
	"github.com/vm-affekt/mediagrab/internal/procrunner"
	"github.com/vm-affekt/mediagrab/internal/ytdlp"
)

const (
	genericFetchError    = "failed to fetch video info"
	genericDownloadError = "failed to download media"
)

// Service runs yt-dlp for the two user facing operations: fetch info and download.
// Operations are independent, so a fetch and a download may run at the same time.
type Service struct {
	planner *ytdlp.Planner
	runner  procrunner.Runner
}

var _ app.DownloadService = (*Service)(nil)

func New(planner *ytdlp.Planner, runner procrunner.Runner) *Service {
	return &Service{
		planner: planner,
		runner:  runner,
	}
}

// session is one fetch or download, from planning to its terminal state.
type session struct {
	id        string
	operation string
	state     app.SessionState
	startedAt time.Time
}

func newSession(operation string) *session {
	return &session{
		id:        uuid.NewString(),
		operation: operation,
		state:     app.SessionIdle,
		startedAt: time.Now(),
	}
}

func (s *session) begin(ctx context.Context, link string) context.Context {
	fields := []interface{}{
		"session_id", s.id,
		"operation", s.operation,
		"link", link,
	}
	if id := youtubeVideoID(link); id != "" {
		fields = append(fields, "video_id", id)
	}
	ctx = logging.NewContextS(ctx, fields...)
	s.state = app.SessionRunning
	logging.FromContextS(ctx).Infow("Session "+s.operation+" started", "state", s.state.String())
	return ctx
}

// finish moves the session into its terminal state and logs the outcome.
func (s *session) finish(ctx context.Context, err error) error {
	s.state = app.SessionSucceeded
	if err != nil {
		s.state = app.SessionFailed
	}
	log := logging.FromContextS(ctx).With(
		"state", s.state.String(),
		"elapsed", time.Since(s.startedAt).String(),
	)
	if err != nil {
		log.Warnf("Session %s failed: %v", s.operation, err)
		return err
	}
	log.Infof("Session %s succeeded", s.operation)
	return nil
}

// FetchInfo runs yt-dlp in metadata mode and decodes its single JSON document.
func (s *Service) FetchInfo(ctx context.Context, link string) (*app.VideoInfo, error) {
	sess := newSession("fetch_info")
	ctx = sess.begin(ctx, link)

	if err := app.ValidateAbsoluteURL(link); err != nil {
		return nil, sess.finish(ctx, fmt.Errorf("%w: %v", app.ErrInvalidRequest, err))
	}
	plan := s.planner.PlanMetadataFetch(link)
	h, err := s.runner.Run(ctx, plan.ExecutablePath, plan.Arguments)
	if err != nil {
		return nil, sess.finish(ctx, err)
	}

	var stdout strings.Builder
	stderr, exit := drain(h, func(chunk string) {
		stdout.WriteString(chunk)
	})
	if err := exitError(ctx, exit, stderr, genericFetchError); err != nil {
		return nil, sess.finish(ctx, err)
	}

	info, err := ytdlp.DecodeMetadata([]byte(stdout.String()))
	if err != nil {
		return nil, sess.finish(ctx, err)
	}
	logging.FromContextS(ctx).Infow("Got video metadata",
		"title", info.Title,
		"formats", len(info.Formats),
	)
	return info, sess.finish(ctx, nil)
}

// Download runs yt-dlp for req and forwards every new progress percent to onProgress
// as soon as it is decoded. It returns after the process has exited.
func (s *Service) Download(ctx context.Context, req app.DownloadRequest, onProgress app.ProgressFunc) error {
	sess := newSession("download")
	ctx = sess.begin(ctx, req.URL)
	log := logging.FromContextS(ctx)

	plan, err := s.planner.PlanDownload(req)
	if err != nil {
		return sess.finish(ctx, err)
	}
	if err := platform.CheckWritableDir(req.OutputDir); err != nil {
		return sess.finish(ctx, fmt.Errorf("%w: %v", app.ErrInvalidRequest, err))
	}
	log.Infow("Starting download",
		"format", req.Format,
		"quality", req.Quality,
		"output_dir", req.OutputDir,
	)

	h, err := s.runner.Run(ctx, plan.ExecutablePath, plan.Arguments)
	if err != nil {
		return sess.finish(ctx, err)
	}

	decoder := ytdlp.NewProgressDecoder()
	stderr, exit := drain(h, func(chunk string) {
		for _, ev := range decoder.Feed(chunk) {
			if onProgress != nil {
				onProgress(ev)
			}
		}
	})
	if stderr != "" {
		log.Warnf("yt-dlp stderr: %s", stderr)
	}
	if last, ok := decoder.LastEmitted(); ok {
		log = log.With("last_percent", last)
	}
	if err := exitError(ctx, exit, stderr, genericDownloadError); err != nil {
		return sess.finish(ctx, err)
	}
	log.Info("Download finished")
	return sess.finish(ctx, nil)
}

// drain reads both streams until the process exits. onStdout is called for every stdout
// chunk in order; stderr is accumulated and returned.
func drain(h *procrunner.Handle, onStdout func(string)) (string, procrunner.Exit) {
	var stderr strings.Builder
	outCh, errCh := h.Stdout(), h.Stderr()
	for outCh != nil || errCh != nil {
		select {
		case chunk, ok := <-outCh:
			if !ok {
				outCh = nil
				continue
			}
			onStdout(chunk)
		case chunk, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			stderr.WriteString(chunk)
		}
	}
	return strings.TrimSpace(stderr.String()), h.Wait()
}

func exitError(ctx context.Context, exit procrunner.Exit, stderr, genericMsg string) error {
	if ctxErr := ctx.Err(); ctxErr != nil && exit.Code != 0 {
		return fmt.Errorf("yt-dlp was interrupted: %w", ctxErr)
	}
	if exit.Code == 0 && exit.Err == nil {
		return nil
	}
	msg := stderr
	if msg == "" {
		msg = genericMsg
	}
	return &app.ProcessError{ExitCode: exit.Code, Message: msg}
}
