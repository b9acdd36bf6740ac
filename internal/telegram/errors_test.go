package telegram

import (
	"context"
	"fmt"
	"testing"

	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "🚫 You can't pay yourself.", errorMessage(ctx, errors.Create(errors.SelfZapError)))
	assert.Equal(t, "🚫 Your balance is too low.", errorMessage(ctx, fmt.Errorf("zap: %w", errors.Create(errors.InsufficientBalanceError))))
}

func TestErrorMessageShowsWalletCause(t *testing.T) {
	err := errors.New(errors.WalletError, fmt.Errorf("route not found"))
	assert.Equal(t, "🚫 route not found", errorMessage(context.Background(), err))
}

func TestErrorMessageDetail(t *testing.T) {
	err := errors.New(errors.AmountOutOfBoundsError, fmt.Errorf("max 100 sat"))
	assert.Equal(t, "🚫 The amount is out of range.\n_max 100 sat_", errorMessage(context.Background(), err))
}

func TestEveryCodedErrorIsTranslated(t *testing.T) {
	for code, text := range errorTexts {
		assert.NotEmpty(t, Translate(context.Background(), text.id), code)
	}
}
