package errors

import "fmt"

const (
	UnknownError BotErrorType = iota
	NoReplyMessageError
	InvalidSyntaxError
	NoPhotoError
	NoPrivateChatError
	InvalidTypeError
)

const (
	ClassificationError BotErrorType = 1000 + iota
	UnrecognizedInputError
	UnsupportedTargetError
	AliasNotFoundError
)

const (
	ValidationError BotErrorType = 2000 + iota
	InvalidAmountError
	AmountOutOfBoundsError
	InvalidMnemonicError
	InvalidAliasError
	InvalidUsernameError
	SelfZapError
	FixedAmountError
)

const (
	WalletError BotErrorType = 3000 + iota
	InsufficientBalanceError
	NoWalletError
)

const (
	SessionExpiredError BotErrorType = 4000 + iota
	NotFoundError
	NotAuthorizedError
)

var errMap = map[BotErrorType]BotError{
	UnknownError:             unknown,
	NoReplyMessageError:      noReplyMessage,
	InvalidSyntaxError:       invalidSyntax,
	NoPhotoError:             noPhoto,
	NoPrivateChatError:       noPrivateChat,
	InvalidTypeError:         invalidType,
	ClassificationError:      unrecognizedInput,
	UnrecognizedInputError:   unrecognizedInput,
	UnsupportedTargetError:   unsupportedTarget,
	AliasNotFoundError:       aliasNotFound,
	ValidationError:          invalidInput,
	InvalidAmountError:       invalidAmount,
	AmountOutOfBoundsError:   amountOutOfBounds,
	InvalidMnemonicError:     invalidMnemonic,
	InvalidAliasError:        invalidAlias,
	InvalidUsernameError:     invalidUsername,
	SelfZapError:             selfZap,
	FixedAmountError:         fixedAmount,
	WalletError:              walletFailure,
	InsufficientBalanceError: insufficientBalance,
	NoWalletError:            noWallet,
	SessionExpiredError:      sessionExpired,
	NotFoundError:            notFound,
	NotAuthorizedError:       notAuthorized,
}

var (
	unknown             = BotError{Err: fmt.Errorf("unknown error")}
	noReplyMessage      = BotError{Err: fmt.Errorf("no reply message")}
	invalidSyntax       = BotError{Err: fmt.Errorf("invalid syntax")}
	noPhoto             = BotError{Err: fmt.Errorf("no photo in message")}
	noPrivateChat       = BotError{Err: fmt.Errorf("no private chat")}
	invalidType         = BotError{Err: fmt.Errorf("invalid type")}
	unrecognizedInput   = BotError{Err: fmt.Errorf("unrecognized payment target")}
	unsupportedTarget   = BotError{Err: fmt.Errorf("unsupported payment target")}
	aliasNotFound       = BotError{Err: fmt.Errorf("user not found")}
	invalidInput        = BotError{Err: fmt.Errorf("invalid input")}
	invalidAmount       = BotError{Err: fmt.Errorf("invalid amount")}
	amountOutOfBounds   = BotError{Err: fmt.Errorf("amount out of bounds")}
	invalidMnemonic     = BotError{Err: fmt.Errorf("invalid recovery phrase")}
	invalidAlias        = BotError{Err: fmt.Errorf("invalid username")}
	invalidUsername     = BotError{Err: fmt.Errorf("invalid lightning address username")}
	selfZap             = BotError{Err: fmt.Errorf("can't zap yourself")}
	fixedAmount         = BotError{Err: fmt.Errorf("invoice has a fixed amount")}
	walletFailure       = BotError{Err: fmt.Errorf("wallet error")}
	insufficientBalance = BotError{Err: fmt.Errorf("insufficient balance")}
	noWallet            = BotError{Err: fmt.Errorf("user has no wallet")}
	sessionExpired      = BotError{Err: fmt.Errorf("session expired")}
	notFound            = BotError{Err: fmt.Errorf("not found")}
	notAuthorized       = BotError{Err: fmt.Errorf("not authorized")}
)
