package ytdlp

import (
	"path/filepath"

	"github.com/vm-affekt/mediagrab/internal/app"
)

const (
	// OutputTemplate makes yt-dlp name the file after the title and pick the extension itself.
	OutputTemplate = "%(title)s.%(ext)s"

	mp3AudioFormat  = "mp3"
	maxAudioQuality = "0"
)

// Planner builds yt-dlp command lines.
type Planner struct {
	// DownloaderPath is the yt-dlp executable.
	DownloaderPath string
	// TranscoderDir is the directory containing ffmpeg. It is always passed to yt-dlp
	// so that ffmpeg does not have to be on PATH.
	TranscoderDir string
}

func NewPlanner(downloaderPath, transcoderDir string) *Planner {
	return &Planner{
		DownloaderPath: downloaderPath,
		TranscoderDir:  transcoderDir,
	}
}

// PlanMetadataFetch asks for a single JSON document describing link.
func (p *Planner) PlanMetadataFetch(link string) app.InvocationPlan {
	return app.InvocationPlan{
		ExecutablePath: p.DownloaderPath,
		Arguments: []string{
			"--dump-json",
			"--no-playlist",
			link,
		},
	}
}

// PlanDownload returns the command line for req. The URL is always the last argument.
func (p *Planner) PlanDownload(req app.DownloadRequest) (app.InvocationPlan, error) {
	if err := req.Validate(); err != nil {
		return app.InvocationPlan{}, err
	}

	var args []string
	if req.Format == app.FormatMP3 {
		args = append(args,
			"-x",
			"--audio-format", mp3AudioFormat,
			"--audio-quality", maxAudioQuality,
		)
	} else {
		args = append(args, "-f", SelectFormatExpression(req.Format, req.Quality))
	}
	args = append(args,
		"--ffmpeg-location", p.TranscoderDir,
		"-o", filepath.Join(req.OutputDir, OutputTemplate),
		"--no-playlist",
		"--newline",
		"--progress",
		req.URL,
	)

	return app.InvocationPlan{
		ExecutablePath: p.DownloaderPath,
		Arguments:      args,
	}, nil
}
