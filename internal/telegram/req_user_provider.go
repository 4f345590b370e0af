package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/dialogs"
	"github.com/vm-affekt/mediagrab/internal/logging"
)

type reqUserProvider struct {
	bot             *tgbotapi.BotAPI
	userDialogState *app.UserDialogState
	container       *dialogs.Container
	from            *tgbotapi.User
}

func NewReqUserProvider(
	bot *tgbotapi.BotAPI,
	from *tgbotapi.User,
	userDialogState *app.UserDialogState,
	container *dialogs.Container,
) *reqUserProvider {
	return &reqUserProvider{
		bot:             bot,
		from:            from,
		userDialogState: userDialogState,
		container:       container,
	}
}

func (rup *reqUserProvider) User() *tgbotapi.User {
	return rup.from
}

func (rup *reqUserProvider) SendMessageWithKeyboardf(ctx context.Context, replyKeyboard *tgbotapi.ReplyKeyboardMarkup, text string, args ...interface{}) (int, error) {
	msg := rup.makeTextMsgf(text, args...)
	if replyKeyboard != nil {
		msg.ReplyMarkup = replyKeyboard
	} else {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}

	return rup.sendMessage(ctx, msg)
}

func (rup *reqUserProvider) EditMessagef(ctx context.Context, messageID int, text string, args ...interface{}) error {
	edit := tgbotapi.NewEditMessageText(rup.from.ID, messageID, fmt.Sprintf(text, args...))
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := rup.bot.Send(edit); err != nil {
		// Telegram rejects edits that do not change the text
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("failed to edit message with id %d: %w", messageID, err)
	}
	logging.FromContextS(ctx).Debugf("Message %d edited", messageID)
	return nil
}

func (rup *reqUserProvider) SendPhotoURL(ctx context.Context, photoURL string, caption string) error {
	photo := tgbotapi.NewPhoto(rup.from.ID, tgbotapi.FileURL(photoURL))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if _, err := rup.bot.Send(photo); err != nil {
		return fmt.Errorf("failed to send photo %q: %w", photoURL, err)
	}
	logging.FromContextS(ctx).Infof("Photo %q sent", photoURL)
	return nil
}

func (rup *reqUserProvider) SendFile(ctx context.Context, path string, asAudio bool) error {
	log := logging.FromContextS(ctx)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file for upload: %w", err)
	}
	defer f.Close()

	file := tgbotapi.FileReader{
		Name:   filepath.Base(path),
		Reader: f,
	}
	log.Infof("Uploading file %q to Telegram...", file.Name)
	var msg tgbotapi.Chattable
	if asAudio {
		msg = tgbotapi.NewAudio(rup.from.ID, file)
	} else {
		msg = tgbotapi.NewDocument(rup.from.ID, file)
	}
	if _, err := rup.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to upload file to telegram: %w", err)
	}
	log.Info("Uploading file to Telegram successfully done!")
	return nil
}

func (rup *reqUserProvider) RedirectToDialog(ctx context.Context, id app.DialogID) (newDlg app.Dialog, err error) {
	log := logging.FromContextS(ctx)
	log.Infof("Redirecting to %s dialog...", id)
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate dialog: %w", err)
	}

	newDlg = rup.container.CreateDialog(id, rup)
	rup.userDialogState.SetDialogForUser(rup.from.ID, newDlg)
	if err := newDlg.OnEnter(ctx); err != nil {
		return nil, fmt.Errorf("failed OnEnter on new dialog: %w", err)
	}
	return newDlg, nil
}

func (rup *reqUserProvider) DeleteMessages(ctx context.Context, msgIDs ...int) error {
	log := logging.FromContextS(ctx)
	log.Infof("Removing of %d messages..", len(msgIDs))
	for _, msgID := range msgIDs {
		cfg := tgbotapi.NewDeleteMessage(rup.from.ID, msgID)
		// Request instead of Send: deleteMessage answers with a bool, not a Message
		if _, err := rup.bot.Request(cfg); err != nil {
			return fmt.Errorf("failed to delete message with id %v: %w", msgID, err)
		}
	}
	log.Info("All specified messages deleted!")
	return nil
}

func (rup *reqUserProvider) makeTextMsgf(text string, args ...interface{}) tgbotapi.MessageConfig {
	if len(args) > 0 {
		text = fmt.Sprintf(text, args...)
	}
	m := tgbotapi.NewMessage(rup.from.ID, text)
	m.ParseMode = tgbotapi.ModeHTML
	return m
}

func (rup *reqUserProvider) sendMessage(ctx context.Context, msg tgbotapi.MessageConfig) (messageID int, err error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("context is done while sending message: %w", ctx.Err())
	default:
	}

	logging.FromContextS(ctx).Infow("Sending message to user...",
		"text", msg.Text)

	sentMsg, err := rup.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send message to user with telegram_id=%d: %w", rup.from.ID, err)
	}
	return sentMsg.MessageID, nil
}
