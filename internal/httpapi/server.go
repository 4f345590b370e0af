// Package httpapi exposes the download service over HTTP. Download progress is
// streamed to the client as Server-Sent Events.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/logging"
	"github.com/vm-affekt/mediagrab/internal/platform"
)

const (
	eventProgress = "progress"
	eventDone     = "done"
	eventFailed   = "failed"
)

type Options struct {
	DefaultDownloadDir string
	FetchTimeout       time.Duration
	// DownloadTimeout of zero means the download lives as long as the client connection.
	DownloadTimeout time.Duration
}

type Handler struct {
	downloadService app.DownloadService
	opts            Options
	openFolder      func(dir string) error
}

func New(downloadService app.DownloadService, opts Options) *Handler {
	return &Handler{
		downloadService: downloadService,
		opts:            opts,
		openFolder:      platform.OpenFolder,
	}
}

// Router builds the gin engine with all API routes.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/info", h.GetInfo)
		api.POST("/download", h.Download)
		api.GET("/default-download-path", h.DefaultDownloadPath)
		api.POST("/open-folder", h.OpenFolder)
		api.GET("/health", h.Health)
	}
	return router
}

// failure is the body of every failed operation.
type failure struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind"`
	Error   string `json:"error"`
}

func newFailure(err error) failure {
	return failure{
		Success: false,
		Kind:    app.FailureKind(err),
		Error:   err.Error(),
	}
}

func statusOf(err error) int {
	switch app.FailureKind(err) {
	case "invalid":
		return http.StatusBadRequest
	case "process", "decode":
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, err error) {
	logging.FromContextS(c.Request.Context()).Warnf("Request failed: %v", err)
	c.JSON(statusOf(err), newFailure(err))
}

// GetInfo handles GET /api/info?url=
func (h *Handler) GetInfo(c *gin.Context) {
	link := c.Query("url")
	if err := app.ValidateAbsoluteURL(link); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", app.ErrInvalidRequest, err))
		return
	}

	ctx := c.Request.Context()
	if h.opts.FetchTimeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, h.opts.FetchTimeout)
		defer cancel()
	}
	info, err := h.downloadService.FetchInfo(ctx, link)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

type downloadBody struct {
	URL        string `json:"url" binding:"required"`
	OutputPath string `json:"outputPath"`
	Format     string `json:"format" binding:"required"`
	Quality    string `json:"quality"`
}

func (b downloadBody) request(defaultDir string) (app.DownloadRequest, error) {
	req := app.DownloadRequest{
		URL:       b.URL,
		OutputDir: b.OutputPath,
		Format:    app.Format(b.Format),
		Quality:   app.Quality(b.Quality),
	}
	if req.OutputDir == "" {
		req.OutputDir = defaultDir
	}
	if req.Quality == "" {
		req.Quality = app.QualityBest
	}
	if req.Format == app.FormatVideo && !req.Quality.Known() {
		return req, fmt.Errorf("%w: %q is unknown quality", app.ErrInvalidRequest, b.Quality)
	}
	return req, req.Validate()
}

type sseEvent struct {
	name string
	data interface{}
}

// Download handles POST /api/download. The request is validated before the
// stream starts, so invalid bodies get a plain JSON 400.
func (h *Handler) Download(c *gin.Context) {
	var body downloadBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", app.ErrInvalidRequest, err))
		return
	}
	req, err := body.request(h.opts.DefaultDownloadDir)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := platform.CheckWritableDir(req.OutputDir); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", app.ErrInvalidRequest, err))
		return
	}

	ctx := c.Request.Context()
	var cancel func()
	if h.opts.DownloadTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.opts.DownloadTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	events := make(chan sseEvent, 16)
	send := func(ev sseEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}
	go func() {
		defer close(events)
		err := h.downloadService.Download(ctx, req, func(ev app.ProgressEvent) {
			send(sseEvent{name: eventProgress, data: gin.H{"progress": ev.Percent}})
		})
		if err != nil {
			// the final event is delivered even when ctx is already done
			events <- sseEvent{name: eventFailed, data: newFailure(err)}
			return
		}
		events <- sseEvent{name: eventDone, data: gin.H{"success": true, "outputPath": req.OutputDir}}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	for ev := range events {
		c.SSEvent(ev.name, ev.data)
		c.Writer.Flush()
	}
}

// DefaultDownloadPath handles GET /api/default-download-path
func (h *Handler) DefaultDownloadPath(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"path": h.opts.DefaultDownloadDir})
}

type openFolderBody struct {
	Path string `json:"path" binding:"required"`
}

// OpenFolder handles POST /api/open-folder
func (h *Handler) OpenFolder(c *gin.Context) {
	var body openFolderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", app.ErrInvalidRequest, err))
		return
	}
	if !filepath.IsAbs(body.Path) {
		h.fail(c, fmt.Errorf("%w: %q is not an absolute path", app.ErrInvalidRequest, body.Path))
		return
	}
	if fi, err := os.Stat(body.Path); err != nil || !fi.IsDir() {
		h.fail(c, fmt.Errorf("%w: %q is not a directory", app.ErrInvalidRequest, body.Path))
		return
	}
	if err := h.openFolder(body.Path); err != nil {
		h.fail(c, fmt.Errorf("failed to open folder: %w", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

const shutdownTimeout = 30 * time.Second

// ListenAndServe serves handler on addr until ctx is done, then shuts the server down.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	log := logging.FromContextS(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("Server listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
