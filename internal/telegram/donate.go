package telegram

import (
	"github.com/massmux/SatsZapBot/internal"
	"github.com/massmux/SatsZapBot/internal/database"
	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/payment"
	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

const donationMemo = "Donation"

func (bot *TipBot) donateHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	bot.resetFlow(user)
	if internal.Configuration.Bot.DonateUserID == 0 {
		bot.tryEditOrSend(ctx, Translate(ctx, "donateUnavailableMessage"), backMenu(ctx))
		return ctx, nil
	}
	menu := &tb.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data(Translate(ctx, "donateButtonMessage"), btnDonateSend.Unique)),
		menu.Row(backButton(menu, ctx)),
	)
	bot.tryEditOrSend(ctx, Translate(ctx, "donateMessage"), menu)
	return ctx, nil
}

func (bot *TipBot) donateSendHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	if err := database.SetUserState(bot.Database, user, database.UserStateDonateAmount, ""); err != nil {
		return ctx, err
	}
	bot.tryEditOrSend(ctx, Translate(ctx, "donateEnterAmountMessage"), backMenu(ctx))
	return ctx, nil
}

// enterDonationAmountHandler pays a fresh invoice of the donation wallet through a payment session,
// so the donor confirms amount and fee like any other payment.
func (bot *TipBot) enterDonationAmountHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	amount, err := getAmount(ctx.Message().Text)
	if err != nil {
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	donateID := internal.Configuration.Bot.DonateUserID
	if donateID == user.ID {
		bot.resetPrompt(user)
		return bot.reportError(ctx, errors.Create(errors.SelfZapError), backMenu(ctx))
	}
	if _, err := bot.Wallets.EnsureWallet(donateID); err != nil {
		log.Errorf("[donate] could not provision the donation wallet: %v", err)
		bot.resetPrompt(user)
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	invoice, err := bot.Wallets.CreateInvoice(ctx, donateID, &amount, donationMemo)
	if err != nil {
		bot.resetPrompt(user)
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	bot.resetPrompt(user)
	sess, err := bot.Payments.StartWith(ctx, user.ID, payment.PurposeDonation, invoice)
	if err != nil {
		return bot.abortSession(ctx, err)
	}
	return bot.promptSession(ctx, sess)
}
