package telegram

import (
	"strconv"
	"strings"

	"github.com/massmux/SatsZapBot/internal/errors"
)

func getArgumentFromCommand(input string, which int) (output string, err error) {
	fields := strings.Fields(input)
	if len(fields) < which+1 {
		return "", errors.Create(errors.InvalidSyntaxError)
	}
	return fields[which], nil
}

func decodeAmountFromCommand(input string) (amount int64, err error) {
	arg, err := getArgumentFromCommand(input, 1)
	if err != nil {
		return 0, err
	}
	return getAmount(arg)
}

// getAmount parses sats. "1.2k" is 1200 and thousands separators are ignored.
func getAmount(input string) (amount int64, err error) {
	input = strings.ToLower(strings.TrimSpace(input))
	input = strings.NewReplacer(",", "", "_", "", "'", "").Replace(input)
	input = strings.TrimSuffix(strings.TrimSuffix(input, "sats"), "sat")
	input = strings.TrimSpace(input)
	if strings.HasSuffix(input, "k") {
		fmount, err := strconv.ParseFloat(strings.TrimSpace(input[:len(input)-1]), 64)
		if err != nil {
			return 0, errors.New(errors.InvalidAmountError, err)
		}
		amount = int64(fmount * 1000)
	} else {
		amount, err = strconv.ParseInt(input, 10, 64)
		if err != nil {
			return 0, errors.New(errors.InvalidAmountError, err)
		}
	}
	if amount < 1 {
		return 0, errors.Create(errors.InvalidAmountError)
	}
	return amount, nil
}
