package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/dialogs/dialogtest"
)

const link = "https://www.youtube.com/watch?v=7UxNoFjmhBA"

func newTestDialog(t *testing.T, rup *dialogtest.UserProvider, svc *dialogtest.DownloadService, maxMB int64) app.Dialog {
	t.Helper()
	return New(rup, svc, Options{
		DownloadDir:          t.TempDir(),
		UploadMaxFileSizeMB:  maxMB,
		ProgressEditInterval: time.Millisecond,
	})
}

func send(t *testing.T, dlg app.Dialog, text string) {
	t.Helper()
	if err := dlg.OnMessage(context.Background(), text, 1); err != nil {
		t.Fatalf("OnMessage(%q) error = %v", text, err)
	}
}

func waitRedirect(t *testing.T, rup *dialogtest.UserProvider, want app.DialogID) {
	t.Helper()
	select {
	case got := <-rup.Redirects:
		if got != want {
			t.Fatalf("redirected to %v, want %v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for redirect")
	}
}

func writeFile(t *testing.T, dir, name string, size int) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644); err != nil {
		t.Error(err)
	}
}

func lastMessage(rup *dialogtest.UserProvider) string {
	msgs, _ := rup.Snapshot()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func TestDialog_DownloadAndUpload(t *testing.T) {
	rup := dialogtest.NewUserProvider()
	svc := &dialogtest.DownloadService{
		DownloadFunc: func(_ context.Context, req app.DownloadRequest, onProgress app.ProgressFunc) error {
			onProgress(app.ProgressEvent{Percent: 50})
			writeFile(t, req.OutputDir, "song.mp3", 10)
			writeFile(t, req.OutputDir, "song.mp3.part", 10)
			onProgress(app.ProgressEvent{Percent: 100})
			return nil
		},
	}
	dlg := newTestDialog(t, rup, svc, 0)
	send(t, dlg, link)
	if got := lastMessage(rup); got != "Choose what to download:" {
		t.Errorf("message after link = %q", got)
	}
	send(t, dlg, "MP3")
	waitRedirect(t, rup, app.DialogMain)

	_, files := rup.Snapshot()
	if len(files) != 1 || filepath.Base(files[0].Path) != "song.mp3" || !files[0].AsAudio {
		t.Errorf("uploaded files = %+v, want song.mp3 as audio", files)
	}
	req := svc.Requests[0]
	if req.URL != link || req.Format != app.FormatMP3 {
		t.Errorf("request = %+v", req)
	}
	if _, err := os.Stat(req.OutputDir); !os.IsNotExist(err) {
		t.Errorf("session dir %q was not removed: %v", req.OutputDir, err)
	}
	if got := lastMessage(rup); !strings.HasPrefix(got, "Done!") {
		t.Errorf("last message = %q, want Done!", got)
	}
}

func TestDialog_SkipsOversizedFile(t *testing.T) {
	rup := dialogtest.NewUserProvider()
	svc := &dialogtest.DownloadService{
		DownloadFunc: func(_ context.Context, req app.DownloadRequest, _ app.ProgressFunc) error {
			writeFile(t, req.OutputDir, "clip.mp4", oneMB+1)
			return nil
		},
	}
	dlg := newTestDialog(t, rup, svc, 1)
	send(t, dlg, link)
	send(t, dlg, "Best")
	waitRedirect(t, rup, app.DialogMain)

	msgs, files := rup.Snapshot()
	if len(files) != 0 {
		t.Errorf("uploaded files = %+v, want none", files)
	}
	if got := msgs[len(msgs)-1]; !strings.Contains(got, "clip.mp4") || !strings.Contains(got, "1.0 MiB") {
		t.Errorf("last message = %q, want size limit notice", got)
	}
}

func TestDialog_ReportsFailure(t *testing.T) {
	rup := dialogtest.NewUserProvider()
	svc := &dialogtest.DownloadService{
		DownloadFunc: func(context.Context, app.DownloadRequest, app.ProgressFunc) error {
			return &app.ProcessError{ExitCode: 1, Message: "network unreachable"}
		},
	}
	dlg := newTestDialog(t, rup, svc, 0)
	send(t, dlg, link)
	send(t, dlg, "480p")
	waitRedirect(t, rup, app.DialogMain)

	if got := lastMessage(rup); !strings.Contains(got, "<code>network unreachable</code>") {
		t.Errorf("last message = %q, want error text", got)
	}
	if req := svc.Requests[0]; req.Format != app.FormatVideo || req.Quality != app.Quality480p {
		t.Errorf("request = %+v", req)
	}
}

func TestDialog_StatusAndCancel(t *testing.T) {
	rup := dialogtest.NewUserProvider()
	started := make(chan struct{})
	svc := &dialogtest.DownloadService{
		DownloadFunc: func(ctx context.Context, _ app.DownloadRequest, _ app.ProgressFunc) error {
			close(started)
			<-ctx.Done()
			return fmt.Errorf("yt-dlp was interrupted: %w", ctx.Err())
		},
	}
	dlg := newTestDialog(t, rup, svc, 0)
	send(t, dlg, link)
	send(t, dlg, "720p")
	<-started

	send(t, dlg, "Status")
	if got := lastMessage(rup); !strings.Contains(got, "no progress yet") {
		t.Errorf("status message = %q", got)
	}
	send(t, dlg, "what now?")
	if got := lastMessage(rup); !strings.Contains(got, "no progress yet") {
		t.Errorf("message on unknown text = %q, want status", got)
	}
	send(t, dlg, "https://vimeo.com/76979871")
	if got := lastMessage(rup); !strings.Contains(got, "can't download another video") {
		t.Errorf("message on second link = %q", got)
	}

	send(t, dlg, "Cancel")
	waitRedirect(t, rup, app.DialogMain)
	if got := lastMessage(rup); got != "Download cancelled." {
		t.Errorf("last message = %q, want cancellation notice", got)
	}
}

func TestDialog_BeforeDownload(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantRedirect bool
		wantMessage  string
	}{
		{
			name:        "should_ask_for_format_on_unknown_text",
			text:        "what?",
			wantMessage: "Choose a format on the keyboard below.",
		},
		{
			name:         "should_return_to_main_on_cancel",
			text:         "Cancel",
			wantRedirect: true,
			wantMessage:  "Okay. Send another link whenever you want.",
		},
		{
			name:         "should_start_over_on_another_link",
			text:         "https://vimeo.com/76979871",
			wantRedirect: true,
			wantMessage:  "Choose what to download:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rup := dialogtest.NewUserProvider()
			svc := &dialogtest.DownloadService{}
			dlg := newTestDialog(t, rup, svc, 0)
			send(t, dlg, link)
			send(t, dlg, tt.text)

			if got := lastMessage(rup); got != tt.wantMessage {
				t.Errorf("last message = %q, want %q", got, tt.wantMessage)
			}
			if gotRedirect := len(rup.Redirects) > 0; gotRedirect != tt.wantRedirect {
				t.Errorf("redirected = %v, want %v", gotRedirect, tt.wantRedirect)
			}
			if len(svc.Requests) != 0 {
				t.Errorf("download was started: %+v", svc.Requests)
			}
			if tt.text == "https://vimeo.com/76979871" {
				rec := rup.Dialogs[app.DialogMain].(*dialogtest.Recorder)
				if len(rec.Texts) != 1 || rec.Texts[0] != tt.text {
					t.Errorf("main dialog got %q", rec.Texts)
				}
			}
		})
	}
}

func TestMegabytesToBytes(t *testing.T) {
	if got := megabytesToBytes(48); got != 48*1048576 {
		t.Errorf("megabytesToBytes(48) = %d", got)
	}
}
