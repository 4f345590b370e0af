package app

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type ReqUserProvider interface {
	User() *tgbotapi.User

	SendMessageWithKeyboardf(ctx context.Context, replyKeyboard *tgbotapi.ReplyKeyboardMarkup, text string, args ...interface{}) (messageID int, err error)
	EditMessagef(ctx context.Context, messageID int, text string, args ...interface{}) error
	SendPhotoURL(ctx context.Context, photoURL string, caption string) error
	// SendFile uploads a local file. Audio files are sent as audio, everything else as a document.
	SendFile(ctx context.Context, path string, asAudio bool) error

	RedirectToDialog(ctx context.Context, id DialogID) (newDlg Dialog, err error)
	DeleteMessages(ctx context.Context, msgIDs ...int) error
}

func SendMessagef(ctx context.Context, rup ReqUserProvider, text string, args ...interface{}) (messageID int, err error) {
	return rup.SendMessageWithKeyboardf(ctx, nil, text, args...)
}
