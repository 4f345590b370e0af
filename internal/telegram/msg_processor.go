package telegram

import (
	"errors"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/dialogs"
)

const defaultHandleTimeout = 8 * time.Second

type MsgProcessor struct {
	apiKey    string
	debugMode bool
	// handleTimeout limits how long one incoming message may be processed.
	handleTimeout time.Duration

	bot             *tgbotapi.BotAPI
	container       *dialogs.Container
	userDialogState *app.UserDialogState

	updates          tgbotapi.UpdatesChannel
	cancelDispatcher func()

	muLocker     sync.Mutex
	lockByUserID map[int64]*sync.Mutex
}

func NewMsgProcessor(apiKey string, debugMode bool, handleTimeout time.Duration, container *dialogs.Container) *MsgProcessor {
	if handleTimeout <= 0 {
		handleTimeout = defaultHandleTimeout
	}
	return &MsgProcessor{
		apiKey:          apiKey,
		debugMode:       debugMode,
		handleTimeout:   handleTimeout,
		container:       container,
		userDialogState: app.NewUserDialogState(),
		lockByUserID:    make(map[int64]*sync.Mutex),
	}
}

func (p *MsgProcessor) connect() (err error) {
	if p.apiKey == "" {
		return errors.New("bot api key is not specified")
	}
	p.bot, err = tgbotapi.NewBotAPI(p.apiKey)
	if err != nil {
		return fmt.Errorf("can't create bot api: %w", err)
	}
	p.bot.Debug = p.debugMode
	return nil
}

// Stop stops receiving updates. Downloads already running are not interrupted.
func (p *MsgProcessor) Stop() {
	if p.bot != nil {
		p.bot.StopReceivingUpdates()
	}
	if p.cancelDispatcher != nil {
		p.cancelDispatcher()
	}
}
