package telegram

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eko/gocache/store"
	"github.com/massmux/SatsZapBot/internal/database"
	"github.com/massmux/SatsZapBot/internal/str"
	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
	log "github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

const (
	receiveMemoExpiration = 10 * time.Minute
	maxMemoLength         = 639
)

func receiveMemoKey(userID int64) string {
	return "receive-memo:" + strconv.FormatInt(userID, 10)
}

// receiveHandler shows the lightning address and asks for an optional memo.
func (bot *TipBot) receiveHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	bot.resetFlow(user)
	if _, err := bot.Wallets.EnsureWallet(user.ID); err != nil {
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	address, err := bot.Wallets.LightningAddress(ctx, user.ID)
	if err != nil {
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	menu := &tb.ReplyMarkup{}
	menu.Inline(
		menu.Row(
			menu.Data(Translate(ctx, "receiveAddMemoButtonMessage"), btnReceiveAddMemo.Unique),
			menu.Data(Translate(ctx, "receiveSkipMemoButtonMessage"), btnReceiveSkipMemo.Unique)),
		menu.Row(menu.Data(Translate(ctx, "receiveOnchainButtonMessage"), btnReceiveOnchain.Unique)),
		menu.Row(backButton(menu, ctx)),
	)
	bot.tryEditOrSend(ctx, fmt.Sprintf(Translate(ctx, "receiveMessage"), address.LightningAddress, address.Lnurl), menu)
	return ctx, nil
}

func (bot *TipBot) receiveAddMemoHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	if err := database.SetUserState(bot.Database, user, database.UserStateReceiveMemo, ""); err != nil {
		return ctx, err
	}
	bot.tryEditOrSend(ctx, Translate(ctx, "receiveEnterMemoMessage"), backMenu(ctx))
	return ctx, nil
}

// enterMemoHandler keeps the memo for the invoice and asks for the amount.
func (bot *TipBot) enterMemoHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	memo := strings.TrimSpace(ctx.Message().Text)
	if len(memo) > maxMemoLength {
		memo = memo[:maxMemoLength]
	}
	bot.resetPrompt(user)
	if err := bot.Cache.Set(receiveMemoKey(user.ID), memo, &store.Options{Expiration: receiveMemoExpiration}); err != nil {
		return ctx, err
	}
	return bot.askInvoiceAmount(ctx, memo)
}

func (bot *TipBot) receiveSkipMemoHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	if err := bot.Cache.Delete(receiveMemoKey(user.ID)); err != nil {
		log.Tracef("[receiveSkipMemoHandler] %v", err)
	}
	return bot.askInvoiceAmount(ctx, "")
}

func (bot *TipBot) askInvoiceAmount(ctx intercept.Context, memo string) (intercept.Context, error) {
	menu := &tb.ReplyMarkup{}
	menu.Inline(
		menu.Row(
			menu.Data(Translate(ctx, "receiveSetAmountButtonMessage"), btnReceiveSetAmount.Unique),
			menu.Data(Translate(ctx, "receiveNoAmountButtonMessage"), btnReceiveNoAmount.Unique)),
		menu.Row(backButton(menu, ctx)),
	)
	text := Translate(ctx, "receiveAskAmountMessage")
	if memo != "" {
		text = fmt.Sprintf(Translate(ctx, "receiveMemoLine"), str.MarkdownEscape(memo)) + "\n\n" + text
	}
	bot.tryEditOrSend(ctx, text, menu)
	return ctx, nil
}

func (bot *TipBot) receiveSetAmountHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	if err := database.SetUserState(bot.Database, user, database.UserStateReceiveAmount, ""); err != nil {
		return ctx, err
	}
	bot.tryEditOrSend(ctx, Translate(ctx, "receiveEnterAmountMessage"), backMenu(ctx))
	return ctx, nil
}

func (bot *TipBot) enterInvoiceAmountHandler(ctx intercept.Context) (intercept.Context, error) {
	amount, err := getAmount(ctx.Message().Text)
	if err != nil {
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	bot.resetPrompt(LoadUser(ctx))
	return bot.sendInvoice(ctx, &amount)
}

func (bot *TipBot) receiveNoAmountHandler(ctx intercept.Context) (intercept.Context, error) {
	return bot.sendInvoice(ctx, nil)
}

// sendInvoice creates the invoice with the memo kept for the user and sends it as qr code.
func (bot *TipBot) sendInvoice(ctx intercept.Context, amount *int64) (intercept.Context, error) {
	user := LoadUser(ctx)
	memo := ""
	if m, err := bot.Cache.Get(receiveMemoKey(user.ID)); err == nil {
		memo = m.(string)
		bot.Cache.Delete(receiveMemoKey(user.ID))
	}
	invoice, err := bot.Wallets.CreateInvoice(ctx, user.ID, amount, memo)
	if err != nil {
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	caption := fmt.Sprintf(Translate(ctx, "receiveInvoiceMessage"), invoice)
	if amount != nil {
		caption = fmt.Sprintf(Translate(ctx, "receiveInvoiceAmountMessage"), *amount, bot.fiatSuffix(*amount), invoice)
	}
	log.Infof("[⚡️ invoice] %d created an invoice over %v sat", user.ID, amountString(amount))
	return bot.sendQr(ctx, strings.ToUpper(invoice), caption)
}

func (bot *TipBot) receiveOnchainHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	address, err := bot.Wallets.CreateOnchainAddress(ctx, user.ID)
	if err != nil {
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	return bot.sendQr(ctx, "bitcoin:"+address, fmt.Sprintf(Translate(ctx, "receiveOnchainMessage"), address))
}

// sendQr sends payload as qr code photo. Without a qr code the caption is sent as text.
func (bot *TipBot) sendQr(ctx intercept.Context, payload, caption string) (intercept.Context, error) {
	qr, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		log.Errorf("[sendQr] %v", err)
		bot.tryEditOrSend(ctx, caption, backMenu(ctx))
		return ctx, nil
	}
	if c := ctx.Callback(); c != nil && c.Message != nil {
		bot.tryDeleteMessage(c.Message)
	}
	bot.trySendMessage(ctx.Recipient(), &tb.Photo{File: tb.File{FileReader: bytes.NewReader(qr)}, Caption: caption}, backMenu(ctx))
	return ctx, nil
}

func amountString(amount *int64) string {
	if amount == nil {
		return "any"
	}
	return strconv.FormatInt(*amount, 10)
}
