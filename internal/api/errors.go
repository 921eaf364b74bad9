package api

import "errors"

var (
	ErrRunNotFound = errors.New("run not found")
	ErrRunClosed   = errors.New("run already finished")
)
