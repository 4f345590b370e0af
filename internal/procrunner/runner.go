// Package procrunner starts external executables and streams their output.
package procrunner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/logging"
)

// maxLineSize is the longest line delivered as one chunk. Longer output, such as
// a single line JSON document, is forwarded in raw pieces of about this size.
const maxLineSize = 1024 * 1024

// Runner launches an external process.
type Runner interface {
	Run(ctx context.Context, path string, args []string) (*Handle, error)
}

// Exit is the single terminal event of a process.
type Exit struct {
	Code int
	// Err is set when the process could not be waited for properly, e.g. it was killed.
	Err error
}

// Handle delivers stdout and stderr chunks of one process and then exactly one Exit.
// Readers must drain both channels, otherwise the process blocks on a full pipe.
type Handle struct {
	stdout chan string
	stderr chan string
	done   chan struct{}
	exit   Exit
}

// NewHandle creates a handle fed by the caller. It is used by Runner implementations
// other than ExecRunner, e.g. in tests.
func NewHandle() (h *Handle, stdout, stderr chan<- string, finish func(Exit)) {
	h = &Handle{
		stdout: make(chan string, 64),
		stderr: make(chan string, 64),
		done:   make(chan struct{}),
	}
	var once sync.Once
	finish = func(e Exit) {
		once.Do(func() {
			close(h.stdout)
			close(h.stderr)
			h.exit = e
			close(h.done)
		})
	}
	return h, h.stdout, h.stderr, finish
}

func (h *Handle) Stdout() <-chan string { return h.stdout }
func (h *Handle) Stderr() <-chan string { return h.stderr }

// Wait blocks until the process has exited. Both chunk channels are closed by then;
// chunks not consumed yet stay readable.
func (h *Handle) Wait() Exit {
	<-h.done
	return h.exit
}

// ExecRunner runs processes through os/exec.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, path string, args []string) (*Handle, error) {
	log := logging.FromContextS(ctx)
	cmd := exec.CommandContext(ctx, path, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, &app.LaunchError{Executable: path, Err: err}
	}
	log.Debugw("Process started", "executable", path, "pid", cmd.Process.Pid)

	h, outCh, errCh, finish := NewHandle()
	var (
		wg             sync.WaitGroup
		outErr, errErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		outErr = pump(stdout, outCh)
	}()
	go func() {
		defer wg.Done()
		errErr = pump(stderr, errCh)
	}()
	go func() {
		// Pipes must be drained before Wait closes them.
		wg.Wait()
		exit := exitOf(cmd.Wait())
		if readErr := errors.Join(outErr, errErr); readErr != nil && exit.Err == nil {
			log.Warnf("Failed to read process output: %v", readErr)
			exit.Err = readErr
		}
		finish(exit)
	}()
	return h, nil
}

func exitOf(err error) Exit {
	if err == nil {
		return Exit{Code: 0}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// killed by a signal
			return Exit{Code: code, Err: err}
		}
		return Exit{Code: code}
	}
	return Exit{Code: -1, Err: err}
}

// pump forwards r as chunks. Complete lines get a "\n" terminator, raw pieces of an
// over-long line are forwarded as they are, so concatenated chunks keep the document intact.
func pump(r io.Reader, out chan<- string) error {
	var ls lineSplitter
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 2*maxLineSize)
	sc.Split(ls.split)
	for sc.Scan() {
		if ls.partial {
			out <- sc.Text()
			continue
		}
		out <- sc.Text() + "\n"
	}
	err := sc.Err()
	// drain whatever is left so the child never blocks on a full pipe
	_, _ = io.Copy(io.Discard, r)
	if err != nil {
		return fmt.Errorf("failed to read output: %w", err)
	}
	return nil
}

// lineSplitter is splitOnCRorLF that gives up waiting for a line end after
// maxLineSize bytes. partial reports whether the last token was such a piece.
type lineSplitter struct {
	partial bool
}

func (ls *lineSplitter) split(data []byte, atEOF bool) (advance int, token []byte, err error) {
	advance, token, err = splitOnCRorLF(data, atEOF)
	if advance == 0 && token == nil && err == nil && !atEOF && len(data) >= maxLineSize {
		n := len(data)
		if data[n-1] == '\r' {
			// keep a possible CRLF together
			n--
		}
		ls.partial = true
		return n, data[:n], nil
	}
	if token != nil {
		ls.partial = false
	}
	return advance, token, err
}

// splitOnCRorLF is bufio.ScanLines that also treats a bare '\r' as a line end,
// so progress redrawn in place is delivered as it happens.
func splitOnCRorLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		if data[i] == '\r' && i+1 == len(data) && !atEOF {
			// could be the first half of CRLF
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
