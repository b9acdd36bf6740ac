package errors

import (
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateKeepsCode(t *testing.T) {
	err := Create(NotAuthorizedError)
	assert.Equal(t, NotAuthorizedError, err.Code)
	assert.Equal(t, "not authorized", err.Message)
	assert.True(t, Is(err, NotAuthorizedError))
	assert.False(t, Is(err, NotFoundError))
}

func TestNewKeepsCauseVerbatim(t *testing.T) {
	cause := fmt.Errorf("route not found")
	err := New(WalletError, cause)
	assert.Equal(t, "route not found", Message(err))
	assert.True(t, goerrors.Is(err, cause))
}

func TestWrappedErrorsAreMatched(t *testing.T) {
	err := fmt.Errorf("[send] %w", Create(AmountOutOfBoundsError))
	assert.True(t, Is(err, AmountOutOfBoundsError))
	assert.True(t, InClass(err, ValidationError))
	assert.True(t, Recoverable(err))
	assert.True(t, goerrors.Is(err, Create(AmountOutOfBoundsError)))
}

func TestRecoverable(t *testing.T) {
	assert.True(t, Recoverable(Create(UnrecognizedInputError)))
	assert.True(t, Recoverable(Create(AliasNotFoundError)))
	assert.False(t, Recoverable(New(WalletError, fmt.Errorf("boom"))))
	assert.False(t, Recoverable(Create(InsufficientBalanceError)))
	assert.False(t, Recoverable(Create(SessionExpiredError)))
	assert.False(t, Recoverable(nil))
	assert.False(t, Recoverable(fmt.Errorf("plain")))
}
