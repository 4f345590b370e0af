package procrunner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/logging"
	"github.com/vm-affekt/mediagrab/internal/ytdlp"
	"go.uber.org/zap"
)

// TestHelperProcess is not a real test. It is the child process started by the tests below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}
	switch args[1] {
	case "progress":
		fmt.Print("[download]  10.0% of 1MiB\r[download]  55.2% of 1MiB\n[download] 100% of 1MiB\n")
		os.Exit(0)
	case "fail":
		fmt.Fprint(os.Stderr, "network unreachable")
		os.Exit(1)
	case "sleep":
		time.Sleep(10 * time.Second)
		os.Exit(0)
	case "metadata":
		fmt.Println(bigMetadataDoc())
		os.Exit(0)
	}
	os.Exit(3)
}

const bigDocFormats = 3000

// bigMetadataDoc is a single line info document larger than 2 MiB.
func bigMetadataDoc() string {
	pad := strings.Repeat("x", 1024)
	formats := make([]string, bigDocFormats)
	for i := range formats {
		formats[i] = fmt.Sprintf(`{"format_id":"%d","url":"https://example.com/%s"}`, i, pad)
	}
	return `{"title":"X","formats":[` + strings.Join(formats, ",") + `]}`
}

func helperArgs(mode string) []string {
	return []string{"-test.run=TestHelperProcess", "--", mode}
}

func collect(h *Handle) (stdout, stderr string, exit Exit) {
	var out, errOut strings.Builder
	outCh, errCh := h.Stdout(), h.Stderr()
	for outCh != nil || errCh != nil {
		select {
		case c, ok := <-outCh:
			if !ok {
				outCh = nil
				continue
			}
			out.WriteString(c)
		case c, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			errOut.WriteString(c)
		}
	}
	return out.String(), errOut.String(), h.Wait()
}

func TestExecRunner_Run(t *testing.T) {
	logging.SetLogger(zap.NewNop())
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	tests := []struct {
		name       string
		mode       string
		wantStdout string
		wantStderr string
		wantCode   int
	}{
		{
			name:       "should_split_stdout_on_cr_and_lf",
			mode:       "progress",
			wantStdout: "[download]  10.0% of 1MiB\n[download]  55.2% of 1MiB\n[download] 100% of 1MiB\n",
			wantCode:   0,
		},
		{
			name:       "should_capture_stderr_and_exit_code",
			mode:       "fail",
			wantStderr: "network unreachable\n",
			wantCode:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewExecRunner().Run(context.Background(), os.Args[0], helperArgs(tt.mode))
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			stdout, stderr, exit := collect(h)
			if stdout != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", stdout, tt.wantStdout)
			}
			if stderr != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", stderr, tt.wantStderr)
			}
			if exit.Code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", exit.Code, tt.wantCode)
			}
		})
	}
}

func TestExecRunner_Run_LongLine(t *testing.T) {
	logging.SetLogger(zap.NewNop())
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	doc := bigMetadataDoc()
	if len(doc) <= 2*maxLineSize {
		t.Fatalf("document is %d bytes, want more than %d", len(doc), 2*maxLineSize)
	}

	h, err := NewExecRunner().Run(context.Background(), os.Args[0], helperArgs("metadata"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	stdout, _, exit := collect(h)
	if exit.Code != 0 || exit.Err != nil {
		t.Fatalf("exit = %+v, want clean exit", exit)
	}
	if stdout != doc+"\n" {
		t.Fatalf("stdout is %d bytes, want the %d byte document intact", len(stdout), len(doc)+1)
	}
	info, err := ytdlp.DecodeMetadata([]byte(stdout))
	if err != nil {
		t.Fatalf("DecodeMetadata() error = %v", err)
	}
	if info.Title != "X" || len(info.Formats) != bigDocFormats {
		t.Errorf("title = %q, formats = %d, want X and %d", info.Title, len(info.Formats), bigDocFormats)
	}
}

func TestPump_LongLine(t *testing.T) {
	long := strings.Repeat("a", maxLineSize+10)
	input := "short\r" + long + "\nend"
	out := make(chan string, 16)
	if err := pump(strings.NewReader(input), out); err != nil {
		t.Fatalf("pump() error = %v", err)
	}
	close(out)
	var chunks []string
	for c := range out {
		chunks = append(chunks, c)
	}
	if got, want := strings.Join(chunks, ""), "short\n"+long+"\nend\n"; got != want {
		t.Errorf("joined chunks are %d bytes, want %d", len(got), len(want))
	}
	if len(chunks) < 4 || chunks[0] != "short\n" || chunks[len(chunks)-1] != "end\n" {
		t.Errorf("chunks = %d, want short line, long line pieces, end line", len(chunks))
	}
	for _, c := range chunks {
		if len(c) > 2*maxLineSize {
			t.Errorf("chunk of %d bytes exceeds %d", len(c), 2*maxLineSize)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestPump_ReadError(t *testing.T) {
	out := make(chan string, 1)
	if err := pump(failingReader{}, out); err == nil || !strings.Contains(err.Error(), "broken pipe") {
		t.Errorf("pump() error = %v, want read error", err)
	}
}

func TestExecRunner_Run_LaunchError(t *testing.T) {
	logging.SetLogger(zap.NewNop())
	missing := filepath.Join(t.TempDir(), "no-such-yt-dlp")
	_, err := NewExecRunner().Run(context.Background(), missing, nil)
	var launchErr *app.LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("Run() error = %v, want *app.LaunchError", err)
	}
	if launchErr.Executable != missing {
		t.Errorf("LaunchError.Executable = %q, want %q", launchErr.Executable, missing)
	}
}

func TestExecRunner_Run_Cancel(t *testing.T) {
	logging.SetLogger(zap.NewNop())
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	ctx, cancel := context.WithCancel(context.Background())
	h, err := NewExecRunner().Run(ctx, os.Args[0], helperArgs("sleep"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	cancel()
	_, _, exit := collect(h)
	if exit.Code == 0 {
		t.Errorf("exit code = 0, want non-zero after cancel")
	}
}

func TestSplitOnCRorLF(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		atEOF   bool
		advance int
		token   string
	}{
		{"should_split_on_lf", "abc\ndef", false, 4, "abc"},
		{"should_split_on_cr", "abc\rdef", false, 4, "abc"},
		{"should_consume_crlf_as_one", "abc\r\ndef", false, 5, "abc"},
		{"should_wait_for_possible_crlf", "abc\r", false, 0, ""},
		{"should_flush_tail_at_eof", "abc", true, 3, "abc"},
		{"should_request_more_data", "abc", false, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advance, token, err := splitOnCRorLF([]byte(tt.data), tt.atEOF)
			if err != nil {
				t.Fatalf("splitOnCRorLF() error = %v", err)
			}
			if advance != tt.advance || string(token) != tt.token {
				t.Errorf("splitOnCRorLF() = %d, %q, want %d, %q", advance, token, tt.advance, tt.token)
			}
		})
	}
}

func TestNewHandle_FinishOnce(t *testing.T) {
	h, stdout, _, finish := NewHandle()
	stdout <- "chunk\n"
	finish(Exit{Code: 7})
	finish(Exit{Code: 0})
	if got := <-h.Stdout(); got != "chunk\n" {
		t.Errorf("buffered chunk = %q, want %q", got, "chunk\n")
	}
	if _, ok := <-h.Stdout(); ok {
		t.Error("stdout channel is open after finish")
	}
	if code := h.Wait().Code; code != 7 {
		t.Errorf("Wait().Code = %d, want 7", code)
	}
}
