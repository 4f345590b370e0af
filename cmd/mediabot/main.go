package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vm-affekt/mediagrab/internal/config"
	"github.com/vm-affekt/mediagrab/internal/dialogs"
	"github.com/vm-affekt/mediagrab/internal/dialogs/download"
	"github.com/vm-affekt/mediagrab/internal/downloader"
	"github.com/vm-affekt/mediagrab/internal/logging"
	"github.com/vm-affekt/mediagrab/internal/platform"
	"github.com/vm-affekt/mediagrab/internal/procrunner"
	"github.com/vm-affekt/mediagrab/internal/telegram"
	"github.com/vm-affekt/mediagrab/internal/ytdlp"
)

// handleTimeoutMargin is added to the fetch timeout: a message handler sends a few
// Telegram requests besides fetching video info.
const handleTimeoutMargin = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.Build(cfg.Mode, cfg.LogFilePath)
	if err != nil {
		fmt.Printf("ERROR! %v. You can use only 'prod', 'debug' or leave MODE empty.\n", err)
		os.Exit(1)
	}
	logging.SetLogger(logger)
	log := logger.Sugar()
	defer log.Sync()

	debugMode := cfg.Mode != logging.ModeProduction
	log.Infof("[MEDIAGRAB TELEGRAM BOT] Application is running. Environment mode=%q", cfg.Mode)
	if cfg.UsedFile != "" {
		log.Infof("Used config file path: %v", cfg.UsedFile)
	} else {
		log.Info("No config file found. Environment variables are used as config.")
	}
	if cfg.LogFilePath == "" {
		log.Warn("No LOG_FILE_PATH specified! Using 'stderr' only.")
	}

	if cfg.TelegramAPIKey == "" {
		log.Fatal("TELEGRAM_API_KEY can't be empty!")
	}
	if cfg.DownloadTimeout == 0 {
		log.Warn("DOWNLOAD_TIMEOUT is zero! Downloads are not limited in time.")
	}
	if err := platform.EnsureDir(cfg.DownloadDir); err != nil {
		log.Fatalf("Failed to prepare download dir: %v", err)
	}
	log.Infow("Downloader settings",
		"ytdlp_path", cfg.YtdlpPath,
		"ffmpeg_dir", cfg.FfmpegDir,
		"download_dir", cfg.DownloadDir,
	)

	planner := ytdlp.NewPlanner(cfg.YtdlpPath, cfg.FfmpegDir)
	downloadService := downloader.New(planner, procrunner.NewExecRunner())

	container := dialogs.NewContainer(downloadService, cfg.FetchTimeout, download.Options{
		DownloadDir:         cfg.DownloadDir,
		Timeout:             cfg.DownloadTimeout,
		UploadMaxFileSizeMB: cfg.UploadMaxFileSizeMB,
	})

	msgProc := telegram.NewMsgProcessor(cfg.TelegramAPIKey, debugMode, cfg.FetchTimeout+handleTimeoutMargin, container)
	if err := msgProc.StartLongPolling(cfg.TelegramPollTimeout); err != nil {
		log.Fatalf("Failed to start long polling listener: %v", err)
	}

	log.Info("Long polling started. Bot is ready!")

	sigInt := make(chan os.Signal, 1)
	signal.Notify(sigInt, os.Interrupt, syscall.SIGTERM)
	shutSig := <-sigInt
	log.Infof("Signal received: %v. Shutdown bot...", shutSig)
	msgProc.Stop()
	log.Info("Shutdown work is over. Bye :-)")
}
