// Package cli implements the mediagrab command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/logging"
	"github.com/vm-affekt/mediagrab/internal/platform"
	"github.com/vm-affekt/mediagrab/internal/present"
)

type Runner struct {
	downloadService app.DownloadService
	out             io.Writer
	progress        *ProgressPrinter
	defaultDir      string
	openFolder      func(dir string) error
}

func NewRunner(downloadService app.DownloadService, out io.Writer, progress *ProgressPrinter, defaultDir string) *Runner {
	return &Runner{
		downloadService: downloadService,
		out:             out,
		progress:        progress,
		defaultDir:      defaultDir,
		openFolder:      platform.OpenFolder,
	}
}

func (r *Runner) Info(ctx context.Context, cmd *InfoCmd) error {
	info, err := r.downloadService.FetchInfo(ctx, cmd.URL)
	if err != nil {
		return err
	}
	if cmd.JSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	_, err = io.WriteString(r.out, present.Card(info))
	return err
}

// Request turns the get command into a download request. Quality is checked
// strictly here although the format policy tolerates unknown values.
func (cmd *GetCmd) Request(defaultDir string) (app.DownloadRequest, error) {
	req := app.DownloadRequest{
		URL:       cmd.URL,
		OutputDir: cmd.Output,
		Format:    app.Format(cmd.Format),
		Quality:   app.Quality(cmd.Quality),
	}
	if req.OutputDir == "" {
		req.OutputDir = defaultDir
	}
	abs, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return req, fmt.Errorf("%w: %v", app.ErrInvalidRequest, err)
	}
	req.OutputDir = abs
	if req.Format == app.FormatVideo && !req.Quality.Known() {
		return req, fmt.Errorf("%w: %q is unknown quality", app.ErrInvalidRequest, cmd.Quality)
	}
	return req, req.Validate()
}

func (r *Runner) Get(ctx context.Context, cmd *GetCmd) error {
	log := logging.FromContextS(ctx)
	req, err := cmd.Request(r.defaultDir)
	if err != nil {
		return err
	}
	if err := platform.EnsureDir(req.OutputDir); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	err = r.downloadService.Download(ctx, req, r.progress.Observe)
	r.progress.Finish()
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Download complete. Files saved to %q\n", req.OutputDir)

	if cmd.Open {
		if err := r.openFolder(req.OutputDir); err != nil {
			log.Warnf("Failed to open output dir: %v", err)
		}
	}
	return nil
}

func (r *Runner) Open(cmd *OpenCmd) error {
	return r.openFolder(cmd.Dir)
}
