package rate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	tb "gopkg.in/lightningtipbot/telebot.v3"
)

func TestRecipientID(t *testing.T) {
	assert.Equal(t, "42", recipientID(&tb.User{ID: 42}))
	assert.Equal(t, "-100", recipientID(&tb.Chat{ID: -100}))
	assert.Equal(t, "7", recipientID(&tb.Message{Chat: &tb.Chat{ID: 7}}))
	assert.Equal(t, "", recipientID("nobody"))
}

func TestGetLimiterReusesKey(t *testing.T) {
	l := newIdRateLimiter(1, 1)
	assert.Same(t, l.GetLimiter("a"), l.GetLimiter("a"))
	assert.NotSame(t, l.GetLimiter("a"), l.GetLimiter("b"))
}

func TestCheckLimit(t *testing.T) {
	Start()
	assert.NoError(t, CheckLimit(context.Background(), &tb.User{ID: 1}))
}
