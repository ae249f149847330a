package service

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrNoMessagePattern = errors.New("account group has no message pattern")
	ErrRunInFlight      = errors.New("a run for this account is already in flight")
	ErrNoFollowTarget   = errors.New("account has no follow target")
	ErrInvalidInput     = errors.New("invalid input")
)

// GatewayError is returned by every TwitterGateway operation that did not
// produce a result. StatusCode is zero for transport failures and timeouts.
type GatewayError struct {
	Operation  string
	Account    string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s for %s: status %d: %v", e.Operation, e.Account, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s for %s: %v", e.Operation, e.Account, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
