package dispatcher

import "errors"

var (
	ErrAlreadyRunning = errors.New("dispatcher: already running")
	ErrNotRunning     = errors.New("dispatcher: not running")
	ErrTerminated     = errors.New("dispatcher: terminated")
	ErrReentrantRun   = errors.New("dispatcher: Run called from the worker goroutine")
)
