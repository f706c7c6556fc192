package syncer

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
)
