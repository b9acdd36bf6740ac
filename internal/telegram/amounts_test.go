package telegram

import (
	"testing"

	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAmount(t *testing.T) {
	cases := map[string]int64{
		"21":      21,
		" 1000 ":  1000,
		"1,000":   1000,
		"2_100":   2100,
		"1k":      1000,
		"1.5k":    1500,
		"500 sat": 500,
		"500sats": 500,
		"21K":     21000,
		"10'000":  10000,
	}
	for input, want := range cases {
		got, err := getAmount(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestGetAmountRejectsInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "0", "-5", "k", "1.5"} {
		_, err := getAmount(input)
		assert.True(t, errors.Is(err, errors.InvalidAmountError), input)
	}
}

func TestDecodeAmountFromCommand(t *testing.T) {
	amount, err := decodeAmountFromCommand("/zap 2k @alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), amount)

	_, err = decodeAmountFromCommand("/zap")
	assert.True(t, errors.Is(err, errors.InvalidSyntaxError))
}

func TestGetArgumentFromCommand(t *testing.T) {
	arg, err := getArgumentFromCommand("/send   lnbc1xyz", 1)
	require.NoError(t, err)
	assert.Equal(t, "lnbc1xyz", arg)

	_, err = getArgumentFromCommand("/send", 1)
	assert.Error(t, err)
}
