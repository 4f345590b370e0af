package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/gin-gonic/gin"
	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/cli"
	"github.com/vm-affekt/mediagrab/internal/config"
	"github.com/vm-affekt/mediagrab/internal/downloader"
	"github.com/vm-affekt/mediagrab/internal/httpapi"
	"github.com/vm-affekt/mediagrab/internal/logging"
	"github.com/vm-affekt/mediagrab/internal/procrunner"
	"github.com/vm-affekt/mediagrab/internal/ytdlp"
)

func main() {
	var args cli.Args
	p := arg.MustParse(&args)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	if err := run(&args); err != nil {
		var processErr *app.ProcessError
		if errors.As(err, &processErr) {
			fmt.Fprintf(os.Stderr, "yt-dlp failed (exit code %d):\n%s\n", processErr.ExitCode, processErr.Message)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args *cli.Args) error {
	var (
		cfg *config.Config
		err error
	)
	if args.Config != "" {
		cfg, err = config.LoadFile(args.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// The command line stays quiet unless MODE asks for logs.
	if cfg.Mode != "" || cfg.LogFilePath != "" {
		logger, err := logging.Build(cfg.Mode, cfg.LogFilePath)
		if err != nil {
			return err
		}
		logging.SetLogger(logger)
		defer logger.Sync()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	planner := ytdlp.NewPlanner(cfg.YtdlpPath, cfg.FfmpegDir)
	downloadService := downloader.New(planner, procrunner.NewExecRunner())
	runner := cli.NewRunner(downloadService, os.Stdout, cli.NewTerminalProgress(os.Stdout), cfg.DownloadDir)

	switch {
	case args.Info != nil:
		fetchCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
		defer cancel()
		return runner.Info(fetchCtx, args.Info)
	case args.Get != nil:
		if cfg.DownloadTimeout > 0 {
			var cancel func()
			ctx, cancel = context.WithTimeout(ctx, cfg.DownloadTimeout)
			defer cancel()
		}
		return runner.Get(ctx, args.Get)
	case args.Open != nil:
		return runner.Open(args.Open)
	case args.Serve != nil:
		addr := cfg.HTTPAddr
		if args.Serve.Addr != "" {
			addr = args.Serve.Addr
		}
		if cfg.Mode == logging.ModeProduction {
			gin.SetMode(gin.ReleaseMode)
		}
		h := httpapi.New(downloadService, httpapi.Options{
			DefaultDownloadDir: cfg.DownloadDir,
			FetchTimeout:       cfg.FetchTimeout,
			DownloadTimeout:    cfg.DownloadTimeout,
		})
		fmt.Printf("Serving HTTP API on http://%s\n", addr)
		return httpapi.ListenAndServe(ctx, addr, h.Router())
	}
	return nil
}
