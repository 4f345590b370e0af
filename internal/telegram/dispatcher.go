package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/vm-affekt/mediagrab/internal/app"
	"github.com/vm-affekt/mediagrab/internal/logging"
)

// cmdStart resets the user to the main dialog.
const cmdStart = "/start"

func (p *MsgProcessor) startDispatcher() {
	ctx := context.Background()
	ctx, p.cancelDispatcher = context.WithCancel(ctx)
	go p.startUpdListener(ctx)
}

func (p *MsgProcessor) startUpdListener(gCtx context.Context) {
	log := logging.FromContextS(gCtx)
	log.Info("Message receiver started... The bot is ready to process new messages!")
	for upd := range p.updates {
		if upd.Message == nil || upd.Message.From == nil {
			continue
		}
		p.handleMessage(upd.Message)
	}
	log.Info("Updates channel closed, message receiver stopped")
}

func (p *MsgProcessor) userLock(userID int64) *sync.Mutex {
	p.muLocker.Lock()
	defer p.muLocker.Unlock()
	mu, ok := p.lockByUserID[userID] // we can handle only one message from certain user at once
	if !ok {
		mu = new(sync.Mutex)
		p.lockByUserID[userID] = mu
	}
	return mu
}

func (p *MsgProcessor) handleMessage(msg *tgbotapi.Message) {
	from := msg.From
	mu := p.userLock(from.ID)

	// Parent is Background, not the dispatcher context: stopping the dispatcher must not interrupt handling.
	ctx, cancel := context.WithTimeout(context.Background(), p.handleTimeout)
	go func() {
		defer cancel()
		start := time.Now()
		mu.Lock()
		defer mu.Unlock()
		rqID := genRequestID()
		userID := from.ID
		ctx, log := logging.NewContextSL(ctx,
			"request_id", rqID,
			"user_tg_id", userID,
			"user_name", from.UserName,
		)
		text := msg.Text
		log.Infof("Received message %q", text)
		rup := NewReqUserProvider(p.bot, from, p.userDialogState, p.container)
		defer func() {
			if r := recover(); r != nil {
				log.With("recovered_obj", r).Error("!!! A PANIC occurred while handling query !!! See recovered object in recovered_obj!")
				_, _ = app.SendMessagef(ctx, rup, "An error occurred while processing your message. Request ID: %v", rqID)
			}
			log.Infow("Query is proceeded.",
				"total_elapsed_time", time.Since(start),
			)
		}()

		if text == cmdStart {
			p.userDialogState.ForgetUser(userID)
		}
		currentDialog := p.userDialogState.FindDialogByUser(userID)
		if currentDialog == nil {
			var err error
			currentDialog, err = p.initUser(ctx, rup)
			if err != nil {
				log.Errorf("Failed to init user: %v", err)
				_, _ = app.SendMessagef(ctx, rup, "Failed to start a session for you. Request ID: %v", rqID)
				return
			}
		}
		if err := currentDialog.OnMessage(ctx, text, msg.MessageID); err != nil {
			log.Errorf("Failed to process message: %v", err)
			var usrErr *app.UserError
			if errors.As(err, &usrErr) {
				_, _ = app.SendMessagef(ctx, rup, usrErr.UserMessage)
			} else {
				_, _ = app.SendMessagef(ctx, rup, "Failed to process your message. Try again later. Request ID: %v", rqID)
			}
		}
	}()
}

func (p *MsgProcessor) initUser(ctx context.Context, rup app.ReqUserProvider) (mainDlg app.Dialog, err error) {
	mainDlg, err = rup.RedirectToDialog(ctx, app.DialogMain)
	if err != nil {
		return mainDlg, fmt.Errorf("failed to redirect to main dialog: %w", err)
	}
	logging.FromContextS(ctx).Infof("User initialized. Users with a dialog: %d", p.userDialogState.Len())
	return mainDlg, err
}

func genRequestID() string {
	rid, _ := uuid.NewRandom()
	return rid.String()
}
