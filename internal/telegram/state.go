package telegram

import (
	"github.com/massmux/SatsZapBot/internal/database"
	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
)

// StateCallbackMessage routes free text to the prompt the user is answering.
type StateCallbackMessage map[database.UserStateKey]intercept.Func

var stateCallbackMessage StateCallbackMessage

func initializeStateCallbackMessage(bot *TipBot) {
	stateCallbackMessage = StateCallbackMessage{
		database.UserStateEnterTarget:   bot.enterTargetHandler,
		database.UserStateEnterAmount:   bot.enterAmountHandler,
		database.UserStateEnterComment:  bot.enterCommentHandler,
		database.UserStateEnterMnemonic: bot.enterMnemonicHandler,
		database.UserStateEnterUsername: bot.enterUsernameHandler,
		database.UserStateReceiveMemo:   bot.enterMemoHandler,
		database.UserStateReceiveAmount: bot.enterInvoiceAmountHandler,
		database.UserStateDonateAmount:  bot.enterDonationAmountHandler,
	}
}
