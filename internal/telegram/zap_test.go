package telegram

import (
	"context"
	"testing"

	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestZapCallbackResponse(t *testing.T) {
	ctx := context.Background()
	resp := zapCallbackResponse(ctx, errors.Create(errors.NotAuthorizedError))
	assert.True(t, resp.ShowAlert)
	assert.Equal(t, "🚫 This is not your button.", resp.Text)

	for _, err := range []error{nil, errors.Create(errors.NotFoundError)} {
		resp = zapCallbackResponse(ctx, err)
		assert.False(t, resp.ShowAlert)
		assert.Empty(t, resp.Text)
	}
}
