package telegram

import (
	"fmt"
	"strings"

	"github.com/massmux/SatsZapBot/internal/database"
	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/notify"
	"github.com/massmux/SatsZapBot/internal/str"
	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

func (bot *TipBot) notificationsEnabled(userID int64) bool {
	st, ok := bot.Notify.Get(userID)
	return ok && st.Enabled
}

func (bot *TipBot) settingsMenu(ctx intercept.Context, userID int64) *tb.ReplyMarkup {
	toggle := "notificationsOffButtonMessage"
	if !bot.notificationsEnabled(userID) {
		toggle = "notificationsOnButtonMessage"
	}
	menu := &tb.ReplyMarkup{}
	menu.Inline(
		menu.Row(
			menu.Data(Translate(ctx, "backupButtonMessage"), btnBackup.Unique),
			menu.Data(Translate(ctx, "recoverButtonMessage"), btnRecover.Unique)),
		menu.Row(menu.Data(Translate(ctx, "lightningAddressButtonMessage"), btnLightningAddress.Unique)),
		menu.Row(menu.Data(Translate(ctx, toggle), btnNotificationsToggle.Unique)),
		menu.Row(backButton(menu, ctx)),
	)
	return menu
}

func (bot *TipBot) settingsHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	bot.resetFlow(user)
	status := Translate(ctx, "notificationsOnMessage")
	if !bot.notificationsEnabled(user.ID) {
		status = Translate(ctx, "notificationsOffMessage")
	}
	bot.tryEditOrSend(ctx, fmt.Sprintf(Translate(ctx, "settingsMessage"), status), bot.settingsMenu(ctx, user.ID))
	return ctx, nil
}

// backupHandler shows the recovery phrase of the wallet.
func (bot *TipBot) backupHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	mnemonic, err := bot.Wallets.Mnemonic(user.ID)
	if err != nil {
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	bot.tryEditOrSend(ctx, fmt.Sprintf(Translate(ctx, "backupMessage"), mnemonic), backMenu(ctx))
	return ctx, nil
}

func (bot *TipBot) recoverHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	if err := database.SetUserState(bot.Database, user, database.UserStateEnterMnemonic, ""); err != nil {
		return ctx, err
	}
	bot.tryEditOrSend(ctx, Translate(ctx, "recoverEnterMnemonicMessage"), backMenu(ctx))
	return ctx, nil
}

// enterMnemonicHandler restores the wallet from the sent phrase. The message holding the
// phrase is deleted in any case.
func (bot *TipBot) enterMnemonicHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	m := ctx.Message()
	bot.tryDeleteMessage(m)
	if err := bot.Wallets.Restore(user.ID, m.Text); err != nil {
		if errors.Is(err, errors.InvalidMnemonicError) {
			// stay in the prompt
			return bot.reportError(ctx, err, backMenu(ctx))
		}
		bot.resetPrompt(user)
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	bot.resetFlow(user)
	bot.invalidateBalance(user.ID)
	if _, err := bot.Notify.Rewind(user.ID); err != nil {
		log.Errorf("[enterMnemonicHandler] %v", err)
	}
	log.Infof("[🔑 recover] %s restored a wallet", GetUserStr(m.Sender))
	bot.trySendMessage(m.Sender, Translate(ctx, "recoverSuccessMessage"))
	return bot.showMainMenu(ctx)
}

// lightningAddressHandler shows the lightning address, registering a random one on first use.
func (bot *TipBot) lightningAddressHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	info, err := bot.Wallets.LightningAddress(ctx, user.ID)
	if err != nil {
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	menu := &tb.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data(Translate(ctx, "changeAddressButtonMessage"), btnChangeAddress.Unique)),
		menu.Row(backButton(menu, ctx)),
	)
	bot.tryEditOrSend(ctx, fmt.Sprintf(Translate(ctx, "lightningAddressMessage"), str.MarkdownEscape(info.LightningAddress), info.Lnurl), menu)
	return ctx, nil
}

func (bot *TipBot) changeAddressHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	if err := database.SetUserState(bot.Database, user, database.UserStateEnterUsername, ""); err != nil {
		return ctx, err
	}
	bot.tryEditOrSend(ctx, Translate(ctx, "changeAddressEnterUsernameMessage"), backMenu(ctx))
	return ctx, nil
}

func (bot *TipBot) enterUsernameHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	username := strings.ToLower(strings.TrimSpace(ctx.Message().Text))
	info, err := bot.Wallets.RegisterLightningAddress(ctx, user.ID, username)
	if err != nil {
		if !errors.Is(err, errors.InvalidUsernameError) {
			bot.resetPrompt(user)
		}
		return bot.reportError(ctx, err, backMenu(ctx))
	}
	bot.resetPrompt(user)
	bot.trySendMessage(ctx.Recipient(), fmt.Sprintf(Translate(ctx, "changeAddressSuccessMessage"), str.MarkdownEscape(info.LightningAddress)), backMenu(ctx))
	return ctx, nil
}

func (bot *TipBot) notificationsToggleHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	var err error
	if bot.notificationsEnabled(user.ID) {
		_, err = bot.Notify.Disable(user.ID, notify.ReasonManual)
	} else {
		_, err = bot.Notify.Enable(user.ID)
	}
	if err != nil {
		return ctx, err
	}
	return bot.settingsHandler(ctx)
}
