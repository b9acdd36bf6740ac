package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/massmux/SatsZapBot/internal/database"
	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/str"
	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
	"github.com/massmux/SatsZapBot/internal/zap"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

// zapReceiver finds the receiver of a /zap: an @username argument wins over the replied message.
func (bot *TipBot) zapReceiver(ctx intercept.Context) (*database.User, error) {
	m := ctx.Message()
	if name, err := getArgumentFromCommand(m.Text, 2); err == nil && strings.HasPrefix(name, "@") {
		user, err := database.FindUser(bot.Database, name)
		if err != nil {
			return nil, errors.New(errors.AliasNotFoundError, err)
		}
		return user, nil
	}
	if to := LoadReplyToUser(ctx); to != nil {
		return to, nil
	}
	return nil, errors.Create(errors.InvalidSyntaxError)
}

// zapHandler answers "/zap <amount> [@user]" in groups with a confirmation prompt for the sender.
func (bot *TipBot) zapHandler(ctx intercept.Context) (intercept.Context, error) {
	m := ctx.Message()
	if m.Chat.Type == tb.ChatPrivate {
		bot.trySendMessage(m.Sender, Translate(ctx, "zapHelpText"))
		return ctx, nil
	}
	amount, err := decodeAmountFromCommand(m.Text)
	if err != nil {
		bot.tryReplyMessage(m, Translate(ctx, "zapHelpText"))
		return ctx, err
	}
	receiver, err := bot.zapReceiver(ctx)
	if err != nil {
		bot.tryReplyMessage(m, errorMessage(ctx, err))
		return ctx, err
	}
	sender := LoadUser(ctx)
	if _, err := bot.Wallets.EnsureWallet(sender.ID); err != nil {
		bot.tryReplyMessage(m, errorMessage(ctx, err))
		return ctx, err
	}
	pending, err := bot.Zaps.RequestZap(ctx, sender.ID, receiver.ID, amount)
	if err != nil {
		bot.tryReplyMessage(m, errorMessage(ctx, err))
		return ctx, err
	}
	menu := &tb.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data(Translate(ctx, "zapConfirmButtonMessage"), btnZapConfirm.Unique, pending.ID),
		menu.Data(Translate(ctx, "cancelButtonMessage"), btnZapCancel.Unique, pending.ID)))
	text := fmt.Sprintf(Translate(ctx, "zapConfirmMessage"),
		str.MarkdownEscape(sender.DisplayName()), amount, str.MarkdownEscape(receiver.DisplayName()))
	if prompt := bot.tryReplyMessage(m, text, menu); prompt != nil {
		bot.Zaps.SetMessage(pending.ID, prompt.Chat.ID, prompt.ID)
	}
	return ctx, nil
}

// zapCallbackResponse answers a pressed zap button. Anyone but the sender gets an alert.
func zapCallbackResponse(ctx context.Context, err error) *tb.CallbackResponse {
	if errors.Is(err, errors.NotAuthorizedError) {
		return &tb.CallbackResponse{Text: TranslateUser(ctx, "errorNotAuthorizedMessage"), ShowAlert: true}
	}
	return &tb.CallbackResponse{}
}

// answerZapCallback answers the pressed zap button and returns NotAuthorizedError if the
// presser is not the sender. The prompt stays as it is in that case.
func (bot *TipBot) answerZapCallback(ctx intercept.Context) error {
	c := ctx.Callback()
	var err error
	if z, ok := bot.Zaps.Get(c.Data); ok && z.SenderID != c.Sender.ID {
		err = errors.Create(errors.NotAuthorizedError)
	}
	if rerr := bot.Telegram.Respond(c, zapCallbackResponse(ctx, err)); rerr != nil {
		log.Tracef("[answerZapCallback] %v", rerr)
	}
	return err
}

func (bot *TipBot) zapConfirmHandler(ctx intercept.Context) (intercept.Context, error) {
	c := ctx.Callback()
	if err := bot.answerZapCallback(ctx); err != nil {
		return ctx, err
	}
	result, err := bot.Zaps.ConfirmZap(ctx, c.Data, c.Sender.ID)
	if err != nil {
		if errors.Is(err, errors.NotAuthorizedError) {
			return ctx, err
		}
		bot.tryEditMessage(c.Message, errorMessage(ctx, err))
		if result.Zap.SenderID != 0 {
			bot.invalidateBalance(result.Zap.SenderID)
		}
		return ctx, err
	}
	bot.invalidateBalance(result.Zap.SenderID)
	bot.invalidateBalance(result.Zap.ReceiverID)
	sender, receiver := bot.zapParties(result.Zap)
	log.Infof("[⚡️ zap] %s zapped %d sat to %s", sender, result.Zap.AmountSats, receiver)
	bot.tryEditMessage(c.Message, fmt.Sprintf(Translate(ctx, "zapSuccessMessage"),
		str.MarkdownEscape(sender), result.Zap.AmountSats, str.MarkdownEscape(receiver)))
	bot.trySendMessage(&tb.User{ID: result.Zap.ReceiverID},
		fmt.Sprintf(Translate(bot.userContext(result.Zap.ReceiverID), "zapReceivedMessage"), result.Zap.AmountSats, str.MarkdownEscape(sender)))
	return ctx, nil
}

func (bot *TipBot) zapCancelHandler(ctx intercept.Context) (intercept.Context, error) {
	c := ctx.Callback()
	if err := bot.answerZapCallback(ctx); err != nil {
		return ctx, err
	}
	if _, err := bot.Zaps.CancelZap(c.Data, c.Sender.ID); err != nil {
		if !errors.Is(err, errors.NotAuthorizedError) {
			bot.tryEditMessage(c.Message, errorMessage(ctx, err))
		}
		return ctx, err
	}
	bot.tryEditMessage(c.Message, Translate(ctx, "zapCancelledMessage"))
	return ctx, nil
}

func (bot *TipBot) zapParties(z zap.PendingZap) (sender, receiver string) {
	sender, receiver = fmt.Sprint(z.SenderID), fmt.Sprint(z.ReceiverID)
	if u, err := database.GetUser(bot.Database, z.SenderID); err == nil {
		sender = u.DisplayName()
	}
	if u, err := database.GetUser(bot.Database, z.ReceiverID); err == nil {
		receiver = u.DisplayName()
	}
	return
}

// zapExpiryWorker marks the prompts of swept zaps as expired and tells the sender.
func (bot *TipBot) zapExpiryWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case z := <-bot.Zaps.Expired():
			uctx := bot.userContext(z.SenderID)
			if z.MessageID != 0 {
				bot.tryEditMessage(tb.StoredMessage{ChatID: z.ChatID, MessageID: fmt.Sprint(z.MessageID)}, Translate(uctx, "zapExpiredMessage"))
			}
			bot.trySendMessage(&tb.User{ID: z.SenderID}, fmt.Sprintf(Translate(uctx, "zapExpiredPrivateMessage"), z.AmountSats))
		}
	}
}
