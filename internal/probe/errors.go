package probe

import "errors"

var (
	ErrSupervisor       = errors.New("supervisor error")
	ErrEarlyExit        = errors.New("server exited early")
	ErrReadinessTimeout = errors.New("server not ready before deadline")
)
