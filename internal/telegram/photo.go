package telegram

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/telegram/intercept"
	"github.com/nfnt/resize"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

// qrMaxSize bounds the image the qr reader scans. Phone photos are scaled down first.
const qrMaxSize = 1024

// decodeQrCode reads the payload of the first qr code found in img.
func decodeQrCode(img image.Image) (string, error) {
	img = resize.Thumbnail(qrMaxSize, qrMaxSize, img, resize.Bilinear)
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", err
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.GetText()), nil
}

// fileSource downloads files sent to the bot.
type fileSource interface {
	File(file *tb.File) (io.ReadCloser, error)
}

// readPhoto downloads photo and decodes it. Telegram stores photos as jpeg.
func readPhoto(files fileSource, photo *tb.Photo) (image.Image, error) {
	reader, err := files.File(&photo.File)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return jpeg.Decode(reader)
}

// photoHandler scans photos in private chats for a qr code and starts a payment with its payload.
func (bot *TipBot) photoHandler(ctx intercept.Context) (intercept.Context, error) {
	m := ctx.Message()
	if m.Photo == nil {
		return ctx, errors.Create(errors.NoPhotoError)
	}
	img, err := readPhoto(bot.Telegram, m.Photo)
	if err != nil {
		log.Errorf("[photoHandler] could not read photo: %v", err)
		return ctx, err
	}
	payload, err := decodeQrCode(img)
	if err != nil {
		log.Debugf("[photoHandler] no qr code: %v", err)
		bot.trySendMessage(m.Sender, Translate(ctx, "photoQrNotRecognizedMessage"), backMenu(ctx))
		return ctx, nil
	}
	bot.trySendMessage(m.Sender, fmt.Sprintf(Translate(ctx, "photoQrRecognizedMessage"), payload))
	user := LoadUser(ctx)
	bot.resetPrompt(user)
	if _, err := bot.Wallets.EnsureWallet(user.ID); err != nil {
		return bot.reportError(ctx, err)
	}
	return bot.startPayment(ctx, payload)
}
