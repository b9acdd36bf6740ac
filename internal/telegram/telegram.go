package telegram

import (
	"context"

	"github.com/massmux/SatsZapBot/internal/rate"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

func (bot *TipBot) trySendMessage(to tb.Recipient, what interface{}, options ...interface{}) (msg *tb.Message) {
	if err := rate.CheckLimit(context.Background(), to); err != nil {
		log.Warnln(err.Error())
	}
	msg, err := bot.Telegram.Send(to, what, options...)
	if err != nil {
		log.Warnln(err.Error())
	}
	return
}

func (bot *TipBot) tryReplyMessage(to *tb.Message, what interface{}, options ...interface{}) (msg *tb.Message) {
	if err := rate.CheckLimit(context.Background(), to); err != nil {
		log.Warnln(err.Error())
	}
	msg, err := bot.Telegram.Reply(to, what, options...)
	if err != nil {
		log.Warnln(err.Error())
	}
	return
}

func (bot *TipBot) tryEditMessage(to tb.Editable, what interface{}, options ...interface{}) (msg *tb.Message) {
	msg, err := bot.Telegram.Edit(to, what, options...)
	if err != nil {
		log.Warnln(err.Error())
	}
	return
}

func (bot *TipBot) tryDeleteMessage(msg tb.Editable) {
	if err := rate.CheckLimit(context.Background(), msg); err != nil {
		log.Warnln(err.Error())
	}
	if err := bot.Telegram.Delete(msg); err != nil {
		log.Warnln(err.Error())
	}
}

// tryEditOrSend edits the message of a pressed button, or sends a new message for commands.
func (bot *TipBot) tryEditOrSend(ctx tb.Context, what interface{}, options ...interface{}) *tb.Message {
	if c := ctx.Callback(); c != nil && c.Message != nil {
		if c.Message.Photo != nil {
			// photo captions can't become text messages
			bot.tryDeleteMessage(c.Message)
			return bot.trySendMessage(c.Sender, what, options...)
		}
		return bot.tryEditMessage(c.Message, what, options...)
	}
	return bot.trySendMessage(ctx.Recipient(), what, options...)
}
