package telegram

import (
	"context"
	"fmt"

	"github.com/massmux/SatsZapBot/internal/notify"
	"github.com/massmux/SatsZapBot/internal/str"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

// notificationWorker delivers the payments found by the poller until ctx is done.
func (bot *TipBot) notificationWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-bot.Poller.Notifications():
			bot.deliverNotification(n)
		}
	}
}

func (bot *TipBot) deliverNotification(n notify.Notification) {
	bot.invalidateBalance(n.UserID)
	bot.Cache.Delete(historyCacheKey(n.UserID))
	ctx := bot.userContext(n.UserID)
	text := fmt.Sprintf(Translate(ctx, "paymentReceivedMessage"), n.Payment.AmountSats, bot.fiatSuffix(n.Payment.AmountSats))
	if n.Payment.Description != "" {
		text += "\n" + fmt.Sprintf(Translate(ctx, "paymentReceivedMemoLine"), str.MarkdownEscape(n.Payment.Description))
	}
	log.Infof("[🔔 notify] %d received %d sat", n.UserID, n.Payment.AmountSats)
	bot.trySendMessage(&tb.User{ID: n.UserID}, text)
}
