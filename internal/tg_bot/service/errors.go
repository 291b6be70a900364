package service

import (
	"errors"
	"fmt"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/constant"
)

// Error kinds recognised at the event boundary.
var (
	ErrTransientStore       = errors.New("state store unavailable")
	ErrConfigurationMissing = errors.New("destination not configured")
	ErrValidation           = errors.New("invalid input")
	ErrUpstreamDelivery     = errors.New("delivery failed")
)

// userError pairs an error kind with the notice shown to the user.
type userError struct {
	kind   error
	notice string
	cause  error
}

func (e *userError) Error() string {
	if e.cause != nil {
		return e.kind.Error() + ": " + e.cause.Error()
	}
	return e.kind.Error() + ": " + e.notice
}

func (e *userError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

func newUserError(kind error, notice string, cause error) error {
	return &userError{kind: kind, notice: notice, cause: cause}
}

// storeError marks a failed repository call as transient.
func storeError(op string, err error) error {
	return newUserError(ErrTransientStore, "", fmt.Errorf("%s: %w", op, err))
}

// noticeFor returns the text shown to the user for a failed event.
func noticeFor(err error) string {
	var ue *userError
	if errors.As(err, &ue) && ue.notice != "" {
		return ue.notice
	}
	switch {
	case errors.Is(err, ErrTransientStore):
		return constant.EMOJI_WARNING + " Temporary error, please try again."
	case errors.Is(err, ErrConfigurationMissing):
		return constant.EMOJI_CROSS_MARK + " The destination is not configured yet."
	case errors.Is(err, ErrValidation):
		return constant.EMOJI_CROSS_MARK + " Invalid input."
	case errors.Is(err, ErrUpstreamDelivery):
		return constant.EMOJI_CROSS_MARK + " Failed to send the message."
	default:
		return constant.EMOJI_CROSS_MARK + " Something went wrong."
	}
}
