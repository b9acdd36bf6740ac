package telegram

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"testing"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

type memoryFiles map[string][]byte

func (m memoryFiles) File(file *tb.File) (io.ReadCloser, error) {
	b, ok := m[file.FileID]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func TestDecodeQrCode(t *testing.T) {
	payload := "lnbc10u1p3pj257pp5yztkwjcz5ftl5laxkav23zmzekaw37zk6kmv80pk4xaev5qhtz7qdpdwd3xger9wd5kwm36yprx7u3qd36kucmgyp282etnv3shjcqzpgxqyz5vqsp5usyc4lk9chsfp53kvcnvq456ganh60d89reykdngsmtj6yw3nhvq9qyyssqjcewm5cjwz4a6rfjx77c490yced6pemk0upkxhy89cmm7sct66k8gneanwykzgdrwrfje69h9u5u0w57rrcsysas7gadwmzxc8c6t0spjazup6"
	q, err := qrcode.New(payload, qrcode.Medium)
	require.NoError(t, err)

	got, err := decodeQrCode(q.Image(512))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDecodeQrCodeWithoutCode(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 200, 200))
	for x := 0; x < 200; x++ {
		for y := 0; y < 200; y++ {
			blank.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	_, err := decodeQrCode(blank)
	assert.Error(t, err)
}

func TestReadPhoto(t *testing.T) {
	q, err := qrcode.New("bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", qrcode.Medium)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, q.Image(512), &jpeg.Options{Quality: 95}))
	files := memoryFiles{"photo-1": buf.Bytes()}

	img, err := readPhoto(files, &tb.Photo{File: tb.File{FileID: "photo-1"}})
	require.NoError(t, err)
	payload, err := decodeQrCode(img)
	require.NoError(t, err)
	assert.Equal(t, "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", payload)

	_, err = readPhoto(files, &tb.Photo{File: tb.File{FileID: "photo-2"}})
	assert.Error(t, err)
}
