package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eko/gocache/store"
	"github.com/massmux/SatsZapBot/internal/sdk"
	"github.com/massmux/SatsZapBot/internal/str"
	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

const (
	historyLimit           = 50
	historyPerPage         = 5
	historyCacheExpiration = time.Minute
)

func historyCacheKey(userID int64) string {
	return "history:" + strconv.FormatInt(userID, 10)
}

func (bot *TipBot) getHistoryCached(ctx intercept.Context, userID int64) ([]sdk.Payment, error) {
	if h, err := bot.Cache.Get(historyCacheKey(userID)); err == nil {
		return h.([]sdk.Payment), nil
	}
	payments, err := bot.Wallets.ListHistory(ctx, userID, historyLimit)
	if err != nil {
		return nil, err
	}
	if err := bot.Cache.Set(historyCacheKey(userID), payments, &store.Options{Expiration: historyCacheExpiration}); err != nil {
		log.Warnf("[getHistoryCached] %v", err)
	}
	return payments, nil
}

// historyPage returns the payments shown on page and the number of pages. Pages out of
// range are clamped.
func historyPage(payments []sdk.Payment, page int) ([]sdk.Payment, int, int) {
	pages := (len(payments) + historyPerPage - 1) / historyPerPage
	if pages == 0 {
		return nil, 0, 0
	}
	if page < 0 {
		page = 0
	}
	if page >= pages {
		page = pages - 1
	}
	start := page * historyPerPage
	end := start + historyPerPage
	if end > len(payments) {
		end = len(payments)
	}
	return payments[start:end], page, pages
}

func formatPayment(p sdk.Payment) string {
	icon := "🟢"
	sign := "+"
	switch {
	case p.Status == sdk.PaymentPending:
		icon = "🔄"
	case p.Status == sdk.PaymentFailed:
		icon = "❌"
	case p.PaymentType == sdk.PaymentSend:
		icon = "🔴"
	}
	if p.PaymentType == sdk.PaymentSend {
		sign = "-"
	}
	line := fmt.Sprintf("%s` %s %s%d sat`", icon, time.Unix(p.Timestamp, 0).UTC().Format("2 Jan 06 15:04"), sign, p.AmountSats)
	if p.FeesSats > 0 {
		line += fmt.Sprintf("` (fee %d)`", p.FeesSats)
	}
	if p.Description != "" {
		line += " " + str.MarkdownEscape(str.Ellipsis(p.Description, 30))
	}
	return line
}

func (bot *TipBot) historyHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	bot.resetFlow(user)
	if ctx.Callback() == nil {
		// /history always reads fresh payments
		bot.Cache.Delete(historyCacheKey(user.ID))
	}
	return bot.showHistory(ctx, 0)
}

func (bot *TipBot) historyPageHandler(ctx intercept.Context) (intercept.Context, error) {
	page, err := strconv.Atoi(ctx.Callback().Data)
	if err != nil {
		return ctx, err
	}
	return bot.showHistory(ctx, page)
}

func (bot *TipBot) showHistory(ctx intercept.Context, page int) (intercept.Context, error) {
	user := LoadUser(ctx)
	payments, err := bot.getHistoryCached(ctx, user.ID)
	if err != nil {
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	shown, page, pages := historyPage(payments, page)
	if pages == 0 {
		bot.tryEditOrSend(ctx, Translate(ctx, "historyEmptyMessage"), backMenu(ctx))
		return ctx, nil
	}
	lines := make([]string, 0, len(shown))
	for _, p := range shown {
		lines = append(lines, formatPayment(p))
	}
	text := fmt.Sprintf(Translate(ctx, "historyMessage"), page+1, pages) + "\n\n" + strings.Join(lines, "\n")

	menu := &tb.ReplyMarkup{}
	var nav []tb.Btn
	if page > 0 {
		nav = append(nav, menu.Data("◀️", btnHistoryPage.Unique, strconv.Itoa(page-1)))
	}
	if page < pages-1 {
		nav = append(nav, menu.Data("▶️", btnHistoryPage.Unique, strconv.Itoa(page+1)))
	}
	rows := []tb.Row{}
	if len(nav) > 0 {
		rows = append(rows, menu.Row(nav...))
	}
	rows = append(rows, menu.Row(backButton(menu, ctx)))
	menu.Inline(rows...)
	bot.tryEditOrSend(ctx, text, menu)
	return ctx, nil
}
