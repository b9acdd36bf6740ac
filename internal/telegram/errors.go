package telegram

import (
	"context"
	goerrors "errors"
	"fmt"

	"github.com/massmux/SatsZapBot/internal/database"
	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/i18n"
	"github.com/massmux/SatsZapBot/internal/str"
	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

type errorText struct {
	id string
	// detail appends the error message to the text
	detail bool
}

var errorTexts = map[errors.BotErrorType]errorText{
	errors.UnrecognizedInputError:   {id: "errorUnrecognizedTargetMessage"},
	errors.UnsupportedTargetError:   {id: "errorUnsupportedTargetMessage"},
	errors.AliasNotFoundError:       {id: "errorAliasNotFoundMessage"},
	errors.ValidationError:          {id: "errorInvalidInputMessage", detail: true},
	errors.InvalidAmountError:       {id: "errorInvalidAmountMessage"},
	errors.AmountOutOfBoundsError:   {id: "errorAmountOutOfBoundsMessage", detail: true},
	errors.InvalidMnemonicError:     {id: "errorInvalidMnemonicMessage"},
	errors.InvalidAliasError:        {id: "errorAliasNotFoundMessage"},
	errors.InvalidUsernameError:     {id: "errorInvalidUsernameMessage", detail: true},
	errors.SelfZapError:             {id: "errorSelfZapMessage"},
	errors.FixedAmountError:         {id: "errorFixedAmountMessage"},
	errors.InsufficientBalanceError: {id: "errorInsufficientBalanceMessage"},
	errors.SessionExpiredError:      {id: "errorSessionExpiredMessage"},
	errors.NotFoundError:            {id: "errorZapNotFoundMessage"},
	errors.NotAuthorizedError:       {id: "errorNotAuthorizedMessage"},
	errors.NoWalletError:            {id: "errorNoWalletMessage"},
	errors.InvalidSyntaxError:       {id: "errorInvalidSyntaxMessage"},
}

// errorMessage renders err for the user. Wallet errors are shown verbatim.
func errorMessage(ctx context.Context, err error) string {
	t, ok := errorTexts[errors.Code(err)]
	if !ok {
		return fmt.Sprintf(Translate(ctx, "errorWalletMessage"), str.MarkdownEscape(errors.Message(err)))
	}
	if t.detail {
		return fmt.Sprintf("%s\n_%s_", Translate(ctx, t.id), str.MarkdownEscape(errors.Message(err)))
	}
	return Translate(ctx, t.id)
}

// reportError answers the current update with the rendered error and returns err.
func (bot *TipBot) reportError(ctx intercept.Context, err error, options ...interface{}) (intercept.Context, error) {
	bot.trySendMessage(ctx.Recipient(), errorMessage(ctx, err), options...)
	return ctx, err
}

// errorHandler is the last resort for errors returned by handlers. Coded errors were answered by
// the handler already. Anything else is reported and the user's flow is reset.
func (bot *TipBot) errorHandler(err error, c tb.Context) {
	var panicErr intercept.PanicError
	if c == nil {
		log.Errorf("[errorHandler] %v", err)
		return
	}
	if !goerrors.As(err, &panicErr) && errors.Code(err) != errors.UnknownError {
		log.Debugf("[errorHandler] %s: %v", GetUserStr(c.Sender()), err)
		return
	}
	log.Errorf("[errorHandler] unhandled error of %s: %v", GetUserStr(c.Sender()), err)
	u := c.Sender()
	if u == nil {
		return
	}
	bot.Payments.Reset(u.ID)
	if user, err := database.GetUser(bot.Database, u.ID); err == nil {
		if err := database.ResetUserState(bot.Database, user); err != nil {
			log.Errorf("[errorHandler] %v", err)
		}
	}
	if c.Chat() == nil || c.Chat().Type != tb.ChatPrivate {
		return
	}
	ctx := context.WithValue(context.Background(), "publicLocalizer", i18n.Localizer(u.LanguageCode))
	bot.trySendMessage(u, Translate(ctx, "errorUnexpectedMessage"), backMenu(ctx))
}
