package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/eko/gocache/store"
	"github.com/massmux/SatsZapBot/internal/database"
	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

const (
	balanceCacheExpiration = 30 * time.Second
	fiatCurrency           = "EUR"
)

func balanceCacheKey(userID int64) string {
	return "balance:" + strconv.FormatInt(userID, 10)
}

// getBalanceCached returns the balance of userID, at most 30 seconds old.
func (bot *TipBot) getBalanceCached(ctx context.Context, userID int64) (int64, error) {
	if b, err := bot.Cache.Get(balanceCacheKey(userID)); err == nil {
		return b.(int64), nil
	}
	balance, err := bot.Wallets.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := bot.Cache.Set(balanceCacheKey(userID), balance, &store.Options{Expiration: balanceCacheExpiration}); err != nil {
		log.Warnf("[getBalanceCached] %v", err)
	}
	return balance, nil
}

func (bot *TipBot) invalidateBalance(userID int64) {
	if err := bot.Cache.Delete(balanceCacheKey(userID)); err != nil {
		log.Tracef("[invalidateBalance] %v", err)
	}
}

// fiatSuffix renders " (≈ 1.23 EUR)" once the price watcher knows a price.
func (bot *TipBot) fiatSuffix(sats int64) string {
	if fiat := bot.Price.FormatFiat(sats, fiatCurrency); fiat != "" {
		return fmt.Sprintf(" (≈ %s)", fiat)
	}
	return ""
}

func (bot *TipBot) startHandler(ctx intercept.Context) (intercept.Context, error) {
	m := ctx.Message()
	log.Infof("[⭐️ /start] User: %s (%d)", GetUserStr(m.Sender), m.Sender.ID)
	created, err := bot.Wallets.EnsureWallet(m.Sender.ID)
	if err != nil {
		log.Errorf("[startHandler] could not create wallet of %d: %v", m.Sender.ID, err)
		bot.trySendMessage(m.Sender, Translate(ctx, "startWalletErrorMessage"))
		return ctx, err
	}
	if _, err := bot.Notify.EnableDefault(m.Sender.ID); err != nil {
		log.Errorf("[startHandler] %v", err)
	}
	if created {
		bot.trySendMessage(m.Sender, Translate(ctx, "startWalletReadyMessage"))
		if len(m.Sender.Username) == 0 {
			bot.trySendMessage(m.Sender, Translate(ctx, "startNoUsernameMessage"), tb.NoPreview)
		}
	}
	return bot.showMainMenu(ctx)
}

// showMainMenu renders the wallet overview. Pressed buttons edit their message in place.
func (bot *TipBot) showMainMenu(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	if _, err := bot.Wallets.EnsureWallet(user.ID); err != nil {
		return bot.reportError(ctx, err)
	}
	balance, err := bot.getBalanceCached(ctx, user.ID)
	if err != nil {
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	bot.tryEditOrSend(ctx, fmt.Sprintf(Translate(ctx, "walletMenuMessage"), balance, bot.fiatSuffix(balance)), bot.mainMenu(ctx))
	return ctx, nil
}

// backToMenuHandler leaves whatever flow is open.
func (bot *TipBot) backToMenuHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	bot.resetFlow(user)
	return bot.showMainMenu(ctx)
}

func (bot *TipBot) refreshHandler(ctx intercept.Context) (intercept.Context, error) {
	bot.invalidateBalance(LoadUser(ctx).ID)
	return bot.showMainMenu(ctx)
}

// resetFlow drops the open payment session and the pending prompt of user.
func (bot *TipBot) resetFlow(user *database.User) {
	bot.Payments.Reset(user.ID)
	if user.StateKey != database.UserStateNone {
		if err := database.ResetUserState(bot.Database, user); err != nil {
			log.Errorf("[resetFlow] %v", err)
		}
	}
}

// balanceHandler answers /balance and /zap_balance. The balance is always sent privately,
// the command is deleted in groups.
func (bot *TipBot) balanceHandler(ctx intercept.Context) (intercept.Context, error) {
	m := ctx.Message()
	if m.Chat.Type != tb.ChatPrivate {
		bot.tryDeleteMessage(m)
	}
	if _, err := bot.Wallets.EnsureWallet(m.Sender.ID); err != nil {
		bot.trySendMessage(m.Sender, errorMessage(ctx, err))
		return ctx, err
	}
	balance, err := bot.getBalanceCached(ctx, m.Sender.ID)
	if err != nil {
		log.Errorf("[/balance] Error fetching %s's balance: %s", GetUserStr(m.Sender), err)
		bot.trySendMessage(m.Sender, errorMessage(ctx, err))
		return ctx, err
	}
	log.Debugf("[/balance] %s's balance: %d sat", GetUserStr(m.Sender), balance)
	bot.trySendMessage(m.Sender, fmt.Sprintf(TranslateUser(ctx, "balanceMessage"), balance, bot.fiatSuffix(balance)))
	return ctx, nil
}
