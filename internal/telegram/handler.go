package telegram

import (
	"fmt"
	"strings"

	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

type Handler struct {
	Endpoints   []interface{}
	Handler     intercept.Func
	Interceptor *Interceptor
}

type Interceptor struct {
	Before  []intercept.Func
	After   []intercept.Func
	OnDefer []intercept.Func
}

// registerTelegramHandlers will register all Telegram handlers.
func (bot *TipBot) registerTelegramHandlers() {
	telegramHandlerRegistration.Do(func() {
		for _, h := range bot.getHandler() {
			log.Debugf("[registerTelegramHandlers] %v", h.Endpoints)
			bot.register(h)
		}
	})
}

// handle accepts an endpoint and handler for Telegram handler registration.
// function will automatically register string handlers as uppercase and first letter uppercase.
func (bot *TipBot) handle(endpoint interface{}, handler tb.HandlerFunc) {
	bot.Telegram.Handle(endpoint, handler)
	if sEndpoint, ok := endpoint.(string); ok && strings.HasPrefix(sEndpoint, "/") {
		bot.Telegram.Handle(strings.ToUpper(sEndpoint), handler)
		if len(sEndpoint) > 2 {
			bot.Telegram.Handle(fmt.Sprintf("/%s%s", strings.ToUpper(string(sEndpoint[1])), sEndpoint[2:]), handler)
		}
	}
}

// register wraps the handler with the lock, localizer and user interceptors and the
// interceptors of h.
func (bot *TipBot) register(h Handler) {
	before := []intercept.Func{bot.lockInterceptor, bot.localizerInterceptor}
	var after, onDefer []intercept.Func
	if h.Interceptor != nil {
		before = append(before, h.Interceptor.Before...)
		after = h.Interceptor.After
		onDefer = h.Interceptor.OnDefer
	}
	onDefer = append(onDefer, bot.unlockInterceptor)
	for _, endpoint := range h.Endpoints {
		bot.handle(endpoint, intercept.WithHandler(h.Handler,
			intercept.WithBefore(before...),
			intercept.WithAfter(after...),
			intercept.WithDefer(onDefer...)))
	}
}

// getHandler returns a list of all handlers, that need to be registered with Telegram
func (bot *TipBot) getHandler() []Handler {
	message := func(extra ...intercept.Func) *Interceptor {
		return &Interceptor{Before: append([]intercept.Func{
			bot.requireUserInterceptor,
			bot.touchInterceptor,
			bot.logMessageInterceptor,
		}, extra...)}
	}
	private := func(extra ...intercept.Func) *Interceptor {
		return message(append([]intercept.Func{bot.requirePrivateChatInterceptor}, extra...)...)
	}
	callback := &Interceptor{Before: []intercept.Func{
		bot.requireUserInterceptor,
		bot.touchInterceptor,
		bot.logMessageInterceptor,
		bot.answerCallbackInterceptor,
	}}
	// zap buttons are pressed in groups and answer the callback themselves
	zapCallback := &Interceptor{Before: []intercept.Func{
		bot.requireUserInterceptor,
		bot.touchInterceptor,
		bot.logMessageInterceptor,
	}}
	return []Handler{
		{
			Endpoints:   []interface{}{"/start"},
			Handler:     bot.startHandler,
			Interceptor: private(),
		},
		{
			Endpoints:   []interface{}{"/balance", "/zap_balance"},
			Handler:     bot.balanceHandler,
			Interceptor: message(),
		},
		{
			Endpoints:   []interface{}{"/send"},
			Handler:     bot.sendHandler,
			Interceptor: private(),
		},
		{
			Endpoints:   []interface{}{"/receive"},
			Handler:     bot.receiveHandler,
			Interceptor: private(),
		},
		{
			Endpoints:   []interface{}{"/history"},
			Handler:     bot.historyHandler,
			Interceptor: private(),
		},
		{
			Endpoints:   []interface{}{"/settings"},
			Handler:     bot.settingsHandler,
			Interceptor: private(),
		},
		{
			Endpoints:   []interface{}{"/donate"},
			Handler:     bot.donateHandler,
			Interceptor: private(),
		},
		{
			Endpoints:   []interface{}{"/zap"},
			Handler:     bot.zapHandler,
			Interceptor: message(bot.loadReplyToInterceptor),
		},
		{
			Endpoints:   []interface{}{"/help"},
			Handler:     bot.helpHandler,
			Interceptor: message(),
		},
		{
			Endpoints:   []interface{}{tb.OnText},
			Handler:     bot.anyTextHandler,
			Interceptor: private(),
		},
		{
			Endpoints:   []interface{}{tb.OnPhoto},
			Handler:     bot.photoHandler,
			Interceptor: private(),
		},
		{Endpoints: []interface{}{&btnMenu}, Handler: bot.backToMenuHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnRefresh}, Handler: bot.refreshHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnSend}, Handler: bot.sendHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnWithdrawAll}, Handler: bot.withdrawAllHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnAddComment}, Handler: bot.addCommentHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnOnchainSpeed}, Handler: bot.onchainSpeedHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnConfirmPayment}, Handler: bot.confirmPaymentHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnCancelPayment}, Handler: bot.cancelPaymentHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnReceive}, Handler: bot.receiveHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnReceiveAddMemo}, Handler: bot.receiveAddMemoHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnReceiveSkipMemo}, Handler: bot.receiveSkipMemoHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnReceiveSetAmount}, Handler: bot.receiveSetAmountHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnReceiveNoAmount}, Handler: bot.receiveNoAmountHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnReceiveOnchain}, Handler: bot.receiveOnchainHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnSettings}, Handler: bot.settingsHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnBackup}, Handler: bot.backupHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnRecover}, Handler: bot.recoverHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnLightningAddress}, Handler: bot.lightningAddressHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnChangeAddress}, Handler: bot.changeAddressHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnNotificationsToggle}, Handler: bot.notificationsToggleHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnDonate}, Handler: bot.donateHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnDonateSend}, Handler: bot.donateSendHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnHistory}, Handler: bot.historyHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnHistoryPage}, Handler: bot.historyPageHandler, Interceptor: callback},
		{Endpoints: []interface{}{&btnZapConfirm}, Handler: bot.zapConfirmHandler, Interceptor: zapCallback},
		{Endpoints: []interface{}{&btnZapCancel}, Handler: bot.zapCancelHandler, Interceptor: zapCallback},
	}
}
