package telegram

import (
	"fmt"

	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

func (bot *TipBot) makeHelpMessage(ctx intercept.Context) string {
	dynamicHelpMessage := ""
	if len(ctx.Sender().Username) == 0 {
		dynamicHelpMessage = "\n" + TranslateUser(ctx, "helpNoUsernameMessage")
	}
	return fmt.Sprintf(TranslateUser(ctx, "helpMessage"), dynamicHelpMessage)
}

// helpHandler always answers privately. In groups the command is deleted.
func (bot *TipBot) helpHandler(ctx intercept.Context) (intercept.Context, error) {
	if !ctx.Message().Private() {
		bot.tryDeleteMessage(ctx.Message())
	}
	bot.trySendMessage(ctx.Sender(), bot.makeHelpMessage(ctx), tb.NoPreview)
	return ctx, nil
}
