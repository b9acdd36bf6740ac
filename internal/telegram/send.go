package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/massmux/SatsZapBot/internal"
	"github.com/massmux/SatsZapBot/internal/database"
	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/i18n"
	"github.com/massmux/SatsZapBot/internal/payment"
	"github.com/massmux/SatsZapBot/internal/str"
	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

// sendHandler opens a send flow. "/send <target>" skips the target prompt.
func (bot *TipBot) sendHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	if _, err := bot.Wallets.EnsureWallet(user.ID); err != nil {
		return bot.reportError(ctx, err)
	}
	if m := ctx.Message(); m != nil {
		if target, err := getArgumentFromCommand(m.Text, 1); err == nil {
			return bot.startPayment(ctx, target)
		}
	}
	sess := bot.Payments.Begin(user.ID, payment.PurposeSend)
	if err := database.SetUserState(bot.Database, user, database.UserStateEnterTarget, sess.ID); err != nil {
		return ctx, err
	}
	menu := &tb.ReplyMarkup{}
	menu.Inline(menu.Row(cancelPaymentButton(menu, ctx, sess)))
	bot.tryEditOrSend(ctx, Translate(ctx, "sendEnterTargetMessage"), menu)
	return ctx, nil
}

// enterTargetHandler receives the target of an open send flow.
func (bot *TipBot) enterTargetHandler(ctx intercept.Context) (intercept.Context, error) {
	return bot.startPayment(ctx, strings.TrimSpace(ctx.Message().Text))
}

// startPayment classifies raw and moves on to the next prompt of the session.
func (bot *TipBot) startPayment(ctx intercept.Context, raw string) (intercept.Context, error) {
	user := LoadUser(ctx)
	sess, err := bot.Payments.Start(ctx, user.ID, raw)
	if err != nil {
		if errors.Recoverable(err) && sess != nil {
			if err := database.SetUserState(bot.Database, user, database.UserStateEnterTarget, sess.ID); err != nil {
				log.Errorf("[startPayment] %v", err)
			}
			menu := &tb.ReplyMarkup{}
			menu.Inline(menu.Row(cancelPaymentButton(menu, ctx, sess)))
			return bot.reportError(ctx, err, menu)
		}
		return bot.abortSession(ctx, err)
	}
	return bot.promptSession(ctx, sess)
}

// promptSession shows the prompt that belongs to the step of sess.
func (bot *TipBot) promptSession(ctx intercept.Context, sess *payment.Session) (intercept.Context, error) {
	user := LoadUser(ctx)
	switch sess.Step {
	case payment.AwaitingAmount:
		if err := database.SetUserState(bot.Database, user, database.UserStateEnterAmount, sess.ID); err != nil {
			return ctx, err
		}
		bot.tryEditOrSend(ctx, bot.amountPrompt(ctx, sess), amountMenu(ctx, sess))
	case payment.AwaitingSpeedSelection:
		bot.resetPrompt(user)
		fees := sess.Fee.(payment.TieredFee)
		amount := sess.AmountSats()
		bot.tryEditOrSend(ctx, fmt.Sprintf(Translate(ctx, "sendChooseSpeedMessage"), str.MarkdownEscape(sess.Target.Display()), amount), speedMenu(ctx, sess, fees))
	case payment.AwaitingConfirmation:
		bot.resetPrompt(user)
		bot.tryEditOrSend(ctx, paymentSummary(ctx, sess), confirmPaymentMenu(ctx, sess))
	default:
		bot.resetFlow(user)
		return bot.reportError(ctx, errors.Create(errors.SessionExpiredError), backMenu(ctx))
	}
	return ctx, nil
}

// abortSession reports err. A stale button leaves the newer session of the user alone.
func (bot *TipBot) abortSession(ctx intercept.Context, err error) (intercept.Context, error) {
	user := LoadUser(ctx)
	if _, open := bot.Payments.Current(user.ID); !open || !errors.Is(err, errors.SessionExpiredError) {
		bot.resetFlow(user)
	}
	return bot.reportError(ctx, err, backMenu(ctx))
}

func (bot *TipBot) resetPrompt(user *database.User) {
	if user.StateKey == database.UserStateNone {
		return
	}
	if err := database.ResetUserState(bot.Database, user); err != nil {
		log.Errorf("[resetPrompt] %v", err)
	}
}

func (bot *TipBot) amountPrompt(ctx context.Context, sess *payment.Session) string {
	text := fmt.Sprintf(Translate(ctx, "sendEnterAmountMessage"), str.MarkdownEscape(sess.Target.Display()))
	switch t := sess.Target.(type) {
	case payment.LightningAddress:
		text += "\n" + fmt.Sprintf(Translate(ctx, "sendAmountRangeMessage"), t.MinSats, t.MaxSats)
	case payment.LnurlPay:
		text += "\n" + fmt.Sprintf(Translate(ctx, "sendAmountRangeMessage"), t.MinSats, t.MaxSats)
	case payment.Bolt11Invoice:
		if t.Description != "" {
			text += "\n" + fmt.Sprintf(Translate(ctx, "sendMemoLine"), str.MarkdownEscape(t.Description))
		}
	}
	if sess.Comment != nil {
		text += "\n" + fmt.Sprintf(Translate(ctx, "sendCommentLine"), str.MarkdownEscape(*sess.Comment))
	}
	return text
}

func paymentSummary(ctx context.Context, sess *payment.Session) string {
	text := fmt.Sprintf(Translate(ctx, "sendSummaryMessage"),
		str.MarkdownEscape(sess.Target.Display()), sess.AmountSats(), sess.FeeSats(), sess.Total())
	if sess.SelectedSpeed != nil {
		text += "\n" + fmt.Sprintf(Translate(ctx, "sendSpeedLine"), Translate(ctx, "speed_"+sess.SelectedSpeed.String()))
	}
	if sess.Comment != nil {
		text += "\n" + fmt.Sprintf(Translate(ctx, "sendCommentLine"), str.MarkdownEscape(*sess.Comment))
	}
	if sess.WithdrawAll {
		text += "\n" + Translate(ctx, "sendWithdrawAllLine")
	}
	return text + "\n\n" + Translate(ctx, "sendConfirmQuestion")
}

// enterAmountHandler receives the amount of a session that waits for one.
func (bot *TipBot) enterAmountHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	amount, err := getAmount(ctx.Message().Text)
	if err != nil {
		return bot.reportError(ctx, err)
	}
	sess, err := bot.Payments.EnterAmount(ctx, user.ID, amount)
	if err != nil {
		if errors.Recoverable(err) {
			return bot.reportError(ctx, err)
		}
		return bot.abortSession(ctx, err)
	}
	return bot.promptSession(ctx, sess)
}

func (bot *TipBot) addCommentHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	sess, ok := bot.Payments.Current(user.ID)
	if !ok || sess.ID != ctx.Callback().Data || sess.Step != payment.AwaitingAmount {
		return bot.abortSession(ctx, errors.Create(errors.SessionExpiredError))
	}
	if err := database.SetUserState(bot.Database, user, database.UserStateEnterComment, sess.ID); err != nil {
		return ctx, err
	}
	menu := &tb.ReplyMarkup{}
	menu.Inline(menu.Row(cancelPaymentButton(menu, ctx, sess)))
	bot.tryEditOrSend(ctx, fmt.Sprintf(Translate(ctx, "sendEnterCommentMessage"), payment.CommentAllowed(sess.Target)), menu)
	return ctx, nil
}

func (bot *TipBot) enterCommentHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	if err := bot.Payments.SetComment(user.ID, strings.TrimSpace(ctx.Message().Text)); err != nil {
		return bot.abortSession(ctx, err)
	}
	sess, ok := bot.Payments.Current(user.ID)
	if !ok {
		return bot.abortSession(ctx, errors.Create(errors.SessionExpiredError))
	}
	return bot.promptSession(ctx, sess)
}

func (bot *TipBot) withdrawAllHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	bot.tryEditOrSend(ctx, Translate(ctx, "sendCalculatingFeesMessage"))
	sess, err := bot.Payments.WithdrawAll(ctx, user.ID, ctx.Callback().Data)
	if err != nil {
		if errors.Recoverable(err) && sess != nil {
			return bot.reportError(ctx, err, amountMenu(ctx, sess))
		}
		return bot.abortSession(ctx, err)
	}
	return bot.promptSession(ctx, sess)
}

func (bot *TipBot) onchainSpeedHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	data := strings.Split(ctx.Callback().Data, "|")
	if len(data) != 2 {
		return ctx, errors.Create(errors.InvalidSyntaxError)
	}
	speed, ok := payment.ParseSpeed(data[1])
	if !ok {
		return ctx, errors.Create(errors.InvalidSyntaxError)
	}
	sess, err := bot.Payments.SelectSpeed(ctx, user.ID, data[0], speed)
	if err != nil {
		if _, open := bot.Payments.Current(user.ID); open && sess != nil && sess.Step == payment.AwaitingSpeedSelection {
			// this tier doesn't fit, the others still may
			return bot.reportError(ctx, err)
		}
		return bot.abortSession(ctx, err)
	}
	return bot.promptSession(ctx, sess)
}

func (bot *TipBot) confirmPaymentHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	c := ctx.Callback()
	bot.tryEditMessage(c.Message, Translate(ctx, "sendProcessingMessage"))
	receipt, err := bot.Payments.Confirm(ctx, user.ID, c.Data)
	if err != nil {
		bot.invalidateBalance(user.ID)
		bot.tryEditMessage(c.Message, errorMessage(ctx, err), backMenu(ctx))
		return ctx, err
	}
	bot.invalidateBalance(user.ID)
	log.Infof("[💸 send] %s sent %d sat (fee %d sat) to %s", GetUserStr(c.Sender), receipt.AmountSats, receipt.FeeSats, receipt.Target.Display())
	key := "sendSuccessMessage"
	if receipt.Purpose == payment.PurposeDonation {
		key = "donationSuccessMessage"
	}
	bot.tryEditMessage(c.Message, fmt.Sprintf(Translate(ctx, key), receipt.AmountSats, receipt.FeeSats), backMenu(ctx))
	bot.notifyPeer(receipt, c.Sender)
	return ctx, nil
}

// notifyPeer tells the bot user on the receiving end of receipt who paid.
func (bot *TipBot) notifyPeer(receipt payment.Receipt, from *tb.User) {
	peer := receipt.PeerID
	if receipt.Purpose == payment.PurposeDonation {
		peer = internal.Configuration.Bot.DonateUserID
	}
	if peer == 0 || peer == receipt.UserID {
		return
	}
	bot.invalidateBalance(peer)
	ctx := bot.userContext(peer)
	key := "receivedFromUserMessage"
	if receipt.Purpose == payment.PurposeDonation {
		key = "donationReceivedMessage"
	}
	bot.trySendMessage(&tb.User{ID: peer}, fmt.Sprintf(Translate(ctx, key), receipt.AmountSats, str.MarkdownEscape(GetUserStr(from))))
}

// userContext returns a context translating into the stored language of userID.
func (bot *TipBot) userContext(userID int64) context.Context {
	lang := "en"
	if user, err := database.GetUser(bot.Database, userID); err == nil && user.LanguageCode != "" {
		lang = user.LanguageCode
	}
	return context.WithValue(context.Background(), "publicLocalizer", i18n.Localizer(lang))
}

func (bot *TipBot) cancelPaymentHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	if err := bot.Payments.Cancel(user.ID, ctx.Callback().Data); err != nil {
		log.Debugf("[cancelPaymentHandler] %v", err)
	}
	if _, open := bot.Payments.Current(user.ID); !open {
		bot.resetPrompt(user)
	}
	bot.tryEditOrSend(ctx, Translate(ctx, "sendCancelledMessage"), backMenu(ctx))
	return ctx, nil
}
