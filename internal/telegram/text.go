package telegram

import (
	"strings"

	"github.com/massmux/SatsZapBot/internal/database"
	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
)

// anyTextHandler answers a pending prompt. Without one the text is tried as payment target.
func (bot *TipBot) anyTextHandler(ctx intercept.Context) (intercept.Context, error) {
	user := LoadUser(ctx)
	if user.StateKey != database.UserStateNone {
		if handler, ok := stateCallbackMessage[user.StateKey]; ok {
			return handler(ctx)
		}
		bot.resetPrompt(user)
	}
	text := strings.TrimSpace(ctx.Message().Text)
	if strings.HasPrefix(text, "/") {
		return bot.helpHandler(ctx)
	}
	if _, err := bot.Wallets.EnsureWallet(user.ID); err != nil {
		return bot.reportError(ctx, err)
	}
	return bot.payFromText(ctx, text)
}

// payFromText starts a payment from text the user sent without being asked.
// Unrecognized text shows the main menu.
func (bot *TipBot) payFromText(ctx intercept.Context, text string) (intercept.Context, error) {
	user := LoadUser(ctx)
	sess, err := bot.Payments.Start(ctx, user.ID, text)
	if err != nil {
		if errors.Is(err, errors.UnrecognizedInputError) {
			bot.Payments.Reset(user.ID)
			return bot.showMainMenu(ctx)
		}
		return bot.abortSession(ctx, err)
	}
	return bot.promptSession(ctx, sess)
}
