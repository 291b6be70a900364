package models

import "errors"

var (
	ErrUserNotFound        = errors.New("user state not found")
	ErrChannelNotFound     = errors.New("channel option not found")
	ErrMediaConfigNotFound = errors.New("media channel config not found")
)
