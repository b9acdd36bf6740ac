package telegram

import (
	"context"
	"strconv"

	"github.com/massmux/SatsZapBot/internal/payment"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

// Endpoints of all inline buttons. Keyboards are built per message with the same uniques,
// the data of a button carries the session or zap it belongs to.
var (
	endpoints = &tb.ReplyMarkup{}

	btnSend     = endpoints.Data("send", "send")
	btnReceive  = endpoints.Data("receive", "receive")
	btnRefresh  = endpoints.Data("refresh", "refresh")
	btnSettings = endpoints.Data("settings", "settings")
	btnDonate   = endpoints.Data("donate", "donate")
	btnHistory  = endpoints.Data("history", "history")
	btnMenu     = endpoints.Data("menu", "back_to_menu")

	btnWithdrawAll    = endpoints.Data("withdraw all", "withdraw_all")
	btnAddComment     = endpoints.Data("comment", "add_comment")
	btnConfirmPayment = endpoints.Data("confirm", "confirm_payment")
	btnCancelPayment  = endpoints.Data("cancel", "cancel_payment")
	btnOnchainSpeed   = endpoints.Data("speed", "onchain_speed")

	btnReceiveAddMemo   = endpoints.Data("memo", "receive_add_memo")
	btnReceiveSkipMemo  = endpoints.Data("skip", "receive_skip_memo")
	btnReceiveSetAmount = endpoints.Data("amount", "receive_set_amount")
	btnReceiveNoAmount  = endpoints.Data("no amount", "receive_no_amount")
	btnReceiveOnchain   = endpoints.Data("onchain", "receive_onchain")

	btnBackup              = endpoints.Data("backup", "backup")
	btnRecover             = endpoints.Data("recover", "recover")
	btnLightningAddress    = endpoints.Data("lnaddress", "lnaddress")
	btnChangeAddress       = endpoints.Data("change", "lnaddress_change")
	btnNotificationsToggle = endpoints.Data("notifications", "notifications_toggle")

	btnDonateSend = endpoints.Data("donate", "donate_send")

	btnZapConfirm = endpoints.Data("zap", "zap_confirm")
	btnZapCancel  = endpoints.Data("cancel", "zap_cancel")

	btnHistoryPage = endpoints.Data("page", "history_page")
)

func backButton(menu *tb.ReplyMarkup, ctx context.Context) tb.Btn {
	return menu.Data(Translate(ctx, "backButtonMessage"), btnMenu.Unique)
}

func (bot *TipBot) mainMenu(ctx context.Context) *tb.ReplyMarkup {
	menu := &tb.ReplyMarkup{}
	menu.Inline(
		menu.Row(
			menu.Data(Translate(ctx, "sendButtonMessage"), btnSend.Unique),
			menu.Data(Translate(ctx, "receiveButtonMessage"), btnReceive.Unique)),
		menu.Row(
			menu.Data(Translate(ctx, "refreshButtonMessage"), btnRefresh.Unique),
			menu.Data(Translate(ctx, "historyButtonMessage"), btnHistory.Unique)),
		menu.Row(
			menu.Data(Translate(ctx, "settingsButtonMessage"), btnSettings.Unique),
			menu.Data(Translate(ctx, "donateButtonMessage"), btnDonate.Unique)),
	)
	return menu
}

// backMenu has a single button leading back to the main menu.
func backMenu(ctx context.Context) *tb.ReplyMarkup {
	menu := &tb.ReplyMarkup{}
	menu.Inline(menu.Row(backButton(menu, ctx)))
	return menu
}

func cancelPaymentButton(menu *tb.ReplyMarkup, ctx context.Context, sess *payment.Session) tb.Btn {
	return menu.Data(Translate(ctx, "cancelButtonMessage"), btnCancelPayment.Unique, sess.ID)
}

// amountMenu is shown while a session waits for its amount.
func amountMenu(ctx context.Context, sess *payment.Session) *tb.ReplyMarkup {
	menu := &tb.ReplyMarkup{}
	rows := []tb.Row{menu.Row(menu.Data(Translate(ctx, "withdrawAllButtonMessage"), btnWithdrawAll.Unique, sess.ID))}
	if payment.CommentAllowed(sess.Target) > 0 {
		rows = append(rows, menu.Row(menu.Data(Translate(ctx, "addCommentButtonMessage"), btnAddComment.Unique, sess.ID)))
	}
	rows = append(rows, menu.Row(cancelPaymentButton(menu, ctx, sess)))
	menu.Inline(rows...)
	return menu
}

func confirmPaymentMenu(ctx context.Context, sess *payment.Session) *tb.ReplyMarkup {
	menu := &tb.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data(Translate(ctx, "confirmButtonMessage"), btnConfirmPayment.Unique, sess.ID),
		cancelPaymentButton(menu, ctx, sess)))
	return menu
}

// speedMenu offers one button per fee tier.
func speedMenu(ctx context.Context, sess *payment.Session, fees payment.TieredFee) *tb.ReplyMarkup {
	menu := &tb.ReplyMarkup{}
	rows := make([]tb.Row, 0, len(payment.Speeds)+1)
	for _, speed := range payment.Speeds {
		label := Translate(ctx, "speed_"+speed.String()) + " · " + strconv.FormatInt(fees.Fee(speed), 10) + " sat"
		rows = append(rows, menu.Row(menu.Data(label, btnOnchainSpeed.Unique, sess.ID, speed.String())))
	}
	rows = append(rows, menu.Row(cancelPaymentButton(menu, ctx, sess)))
	menu.Inline(rows...)
	return menu
}
