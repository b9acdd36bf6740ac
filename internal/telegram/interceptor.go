package telegram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/massmux/SatsZapBot/internal/database"
	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/i18n"
	"github.com/massmux/SatsZapBot/internal/runtime/mutex"
	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
	i18n2 "github.com/nicksnyder/go-i18n/v2/i18n"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

func handlerLockKey(user *tb.User) string {
	return "handler:" + strconv.FormatInt(user.ID, 10)
}

// lockInterceptor invoked as first before interceptor
func (bot *TipBot) lockInterceptor(ctx intercept.Context) (intercept.Context, error) {
	user := ctx.Sender()
	if user == nil {
		return ctx, errors.Create(errors.InvalidTypeError)
	}
	key := handlerLockKey(user)
	mutex.Lock(key)
	ctx.Context = context.WithValue(ctx, "handler_lock", key)
	return ctx, nil
}

// unlockInterceptor invoked as onDefer interceptor. Releases the lock only if lockInterceptor took it.
func (bot *TipBot) unlockInterceptor(ctx intercept.Context) (intercept.Context, error) {
	if key, ok := ctx.Value("handler_lock").(string); ok {
		mutex.Unlock(key)
	}
	return ctx, nil
}

// requireUserInterceptor upserts the sender and stores it in the context.
func (bot *TipBot) requireUserInterceptor(ctx intercept.Context) (intercept.Context, error) {
	u := ctx.Sender()
	if u == nil || u.IsBot {
		return ctx, errors.Create(errors.InvalidTypeError)
	}
	user := &database.User{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LanguageCode: u.LanguageCode}
	if err := database.SaveUser(bot.Database, user); err != nil {
		log.Errorf("[requireUserInterceptor] could not save user %d: %v", u.ID, err)
		return ctx, err
	}
	// SaveUser leaves the prompt state alone, so read it back
	user, err := database.GetUser(bot.Database, u.ID)
	if err != nil {
		return ctx, err
	}
	ctx.Context = context.WithValue(ctx, "user", user)
	return ctx, nil
}

// touchInterceptor records activity for the notification poller.
func (bot *TipBot) touchInterceptor(ctx intercept.Context) (intercept.Context, error) {
	if u := ctx.Sender(); u != nil {
		if _, err := bot.Notify.Touch(u.ID); err != nil {
			log.Warnf("[touchInterceptor] %v", err)
		}
	}
	return ctx, nil
}

// loadReplyToInterceptor stores the author of the replied message, if any.
func (bot *TipBot) loadReplyToInterceptor(ctx intercept.Context) (intercept.Context, error) {
	m := ctx.Message()
	if m == nil {
		return ctx, errors.Create(errors.InvalidTypeError)
	}
	if m.ReplyTo != nil && m.ReplyTo.Sender != nil && !m.ReplyTo.Sender.IsBot {
		s := m.ReplyTo.Sender
		user := &database.User{ID: s.ID, Username: s.Username, FirstName: s.FirstName, LanguageCode: s.LanguageCode}
		if err := database.SaveUser(bot.Database, user); err != nil {
			log.Warnf("[loadReplyToInterceptor] %v", err)
		}
		ctx.Context = context.WithValue(ctx, "reply_to_user", user)
	}
	return ctx, nil
}

func (bot *TipBot) localizerInterceptor(ctx intercept.Context) (intercept.Context, error) {
	var languageCode string
	if u := ctx.Sender(); u != nil {
		languageCode = u.LanguageCode
	}
	userLocalizer := i18n.Localizer(languageCode)
	ctx.Context = context.WithValue(ctx, "userLanguageCode", languageCode)
	ctx.Context = context.WithValue(ctx, "userLocalizer", userLocalizer)
	// groups get english, private chats the user's language
	if ctx.Chat() != nil && ctx.Chat().Type == tb.ChatPrivate {
		ctx.Context = context.WithValue(ctx, "publicLanguageCode", languageCode)
		ctx.Context = context.WithValue(ctx, "publicLocalizer", userLocalizer)
	} else {
		ctx.Context = context.WithValue(ctx, "publicLanguageCode", "en")
		ctx.Context = context.WithValue(ctx, "publicLocalizer", i18n.Localizer("en"))
	}
	return ctx, nil
}

func (bot *TipBot) requirePrivateChatInterceptor(ctx intercept.Context) (intercept.Context, error) {
	if ctx.Chat() == nil || ctx.Chat().Type != tb.ChatPrivate {
		return ctx, errors.Create(errors.NoPrivateChatError)
	}
	return ctx, nil
}

// answerCallbackInterceptor stops the loading animation of the pressed button.
func (bot *TipBot) answerCallbackInterceptor(ctx intercept.Context) (intercept.Context, error) {
	if c := ctx.Callback(); c != nil {
		if err := bot.Telegram.Respond(c); err != nil {
			log.Tracef("[answerCallbackInterceptor] %v", err)
		}
	}
	return ctx, nil
}

const photoTag = "<Photo>"

func (bot *TipBot) logMessageInterceptor(ctx intercept.Context) (intercept.Context, error) {
	if c := ctx.Callback(); c != nil {
		log.Infof("[Callback %s:%d] %s: %s", GetUserStr(c.Sender), c.Sender.ID, c.Unique, c.Data)
		return ctx, nil
	}
	m := ctx.Message()
	if m == nil {
		return ctx, errors.Create(errors.InvalidTypeError)
	}
	if m.Text != "" {
		text := m.Text
		if user := LoadUser(ctx); user != nil && user.StateKey == database.UserStateEnterMnemonic {
			text = "<mnemonic>"
		}
		logString := fmt.Sprintf("[%s:%d %s:%d] %s", m.Chat.Title, m.Chat.ID, GetUserStr(m.Sender), m.Sender.ID, text)
		if m.IsReply() && m.ReplyTo.Sender != nil {
			logString = fmt.Sprintf("%s -> %s", logString, GetUserStr(m.ReplyTo.Sender))
		}
		log.Infof(logString)
	} else if m.Photo != nil {
		log.Infof("[%s:%d %s:%d] %s", m.Chat.Title, m.Chat.ID, GetUserStr(m.Sender), m.Sender.ID, photoTag)
	}
	return ctx, nil
}

func LoadUserLocalizer(ctx context.Context) *i18n2.Localizer {
	u := ctx.Value("userLocalizer")
	if u != nil {
		return u.(*i18n2.Localizer)
	}
	return i18n.Localizer("en")
}

func LoadPublicLocalizer(ctx context.Context) *i18n2.Localizer {
	u := ctx.Value("publicLocalizer")
	if u != nil {
		return u.(*i18n2.Localizer)
	}
	return i18n.Localizer("en")
}

// LoadUser from context
func LoadUser(ctx context.Context) *database.User {
	u := ctx.Value("user")
	if u != nil {
		return u.(*database.User)
	}
	return nil
}

// LoadReplyToUser from context
func LoadReplyToUser(ctx context.Context) *database.User {
	u := ctx.Value("reply_to_user")
	if u != nil {
		return u.(*database.User)
	}
	return nil
}

// GetUserStr returns @username or the first name of user.
func GetUserStr(user *tb.User) string {
	if user == nil {
		return ""
	}
	if user.Username != "" {
		return "@" + user.Username
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	return strconv.FormatInt(user.ID, 10)
}
