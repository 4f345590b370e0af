// Package dialogtest provides in-memory fakes for testing dialogs.
package dialogtest

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vm-affekt/mediagrab/internal/app"
)

type File struct {
	Path    string
	AsAudio bool
}

// UserProvider records everything a dialog sends to the user.
type UserProvider struct {
	mu     sync.Mutex
	nextID int

	Messages []string
	Edits    []string
	Photos   []string
	Files    []File
	Deleted  []int

	// Dialogs are returned by RedirectToDialog. A missing id gets a Recorder.
	Dialogs map[app.DialogID]app.Dialog
	// Redirects receives every dialog id the user was redirected to.
	Redirects chan app.DialogID

	PhotoErr error
}

var _ app.ReqUserProvider = (*UserProvider)(nil)

func NewUserProvider() *UserProvider {
	return &UserProvider{
		Dialogs:   make(map[app.DialogID]app.Dialog),
		Redirects: make(chan app.DialogID, 16),
	}
}

func (p *UserProvider) User() *tgbotapi.User {
	return &tgbotapi.User{ID: 42, UserName: "tester"}
}

func (p *UserProvider) SendMessageWithKeyboardf(_ context.Context, _ *tgbotapi.ReplyKeyboardMarkup, text string, args ...interface{}) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(args) > 0 {
		text = fmt.Sprintf(text, args...)
	}
	p.Messages = append(p.Messages, text)
	p.nextID++
	return p.nextID, nil
}

func (p *UserProvider) EditMessagef(_ context.Context, _ int, text string, args ...interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Edits = append(p.Edits, fmt.Sprintf(text, args...))
	return nil
}

func (p *UserProvider) SendPhotoURL(_ context.Context, photoURL string, caption string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PhotoErr != nil {
		return p.PhotoErr
	}
	p.Photos = append(p.Photos, photoURL+"\n"+caption)
	return nil
}

func (p *UserProvider) SendFile(_ context.Context, path string, asAudio bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Files = append(p.Files, File{Path: path, AsAudio: asAudio})
	return nil
}

func (p *UserProvider) RedirectToDialog(ctx context.Context, id app.DialogID) (app.Dialog, error) {
	p.mu.Lock()
	dlg, ok := p.Dialogs[id]
	if !ok {
		dlg = &Recorder{}
		p.Dialogs[id] = dlg
	}
	p.mu.Unlock()
	p.Redirects <- id
	return dlg, dlg.OnEnter(ctx)
}

func (p *UserProvider) DeleteMessages(_ context.Context, msgIDs ...int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Deleted = append(p.Deleted, msgIDs...)
	return nil
}

// Snapshot returns copies of the recorded messages and files.
func (p *UserProvider) Snapshot() (messages []string, files []File) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Messages...), append([]File(nil), p.Files...)
}

// Recorder is a dialog that only remembers the texts it received.
type Recorder struct {
	mu    sync.Mutex
	Texts []string
}

func (r *Recorder) OnEnter(context.Context) error { return nil }

func (r *Recorder) OnMessage(_ context.Context, text string, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Texts = append(r.Texts, text)
	return nil
}

// DownloadService is a scripted app.DownloadService.
type DownloadService struct {
	Info     *app.VideoInfo
	FetchErr error
	// DownloadFunc runs for every Download call; nil means immediate success.
	DownloadFunc func(ctx context.Context, req app.DownloadRequest, onProgress app.ProgressFunc) error

	mu         sync.Mutex
	FetchLinks []string
	Requests   []app.DownloadRequest
}

var _ app.DownloadService = (*DownloadService)(nil)

func (s *DownloadService) FetchInfo(_ context.Context, link string) (*app.VideoInfo, error) {
	s.mu.Lock()
	s.FetchLinks = append(s.FetchLinks, link)
	s.mu.Unlock()
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	return s.Info, nil
}

func (s *DownloadService) Download(ctx context.Context, req app.DownloadRequest, onProgress app.ProgressFunc) error {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	s.mu.Unlock()
	if s.DownloadFunc == nil {
		return nil
	}
	return s.DownloadFunc(ctx, req, onProgress)
}
