package vault

import (
	"errors"
	"fmt"
)

// Code is the numeric kind of a vault error. Batch results carry it so that
// callers can branch on the failure without the error value.
type Code uint32

// Error codes. The values are stable and part of the public contract.
const (
	CodeOK                         Code = 0
	CodeInvalidStatusTransition    Code = 400
	CodeUnauthorized               Code = 401
	CodeBelowMinimumTopup          Code = 402
	CodeOverflow                   Code = 403
	CodeNotFound                   Code = 404
	CodeAlreadyExists              Code = 409
	CodeInternal                   Code = 500
	CodeIntervalNotElapsed         Code = 1001
	CodeNotActive                  Code = 1002
	CodeInsufficientBalance        Code = 1003
	CodeUnderflow                  Code = 1004
	CodeInvalidAmount              Code = 1006
	CodeReplay                     Code = 1007
	CodeInvalidRecoveryAmount      Code = 1008
	CodeUsageNotEnabled            Code = 1009
	CodeInsufficientPrepaidBalance Code = 1010
	CodeInvalidRecoveryReason      Code = 1011
)

var codeNames = map[Code]string{
	CodeOK:                         "ok",
	CodeInvalidStatusTransition:    "invalid_status_transition",
	CodeUnauthorized:               "unauthorized",
	CodeBelowMinimumTopup:          "below_minimum_topup",
	CodeOverflow:                   "overflow",
	CodeNotFound:                   "not_found",
	CodeAlreadyExists:              "already_exists",
	CodeInternal:                   "internal",
	CodeIntervalNotElapsed:         "interval_not_elapsed",
	CodeNotActive:                  "not_active",
	CodeInsufficientBalance:        "insufficient_balance",
	CodeUnderflow:                  "underflow",
	CodeInvalidAmount:              "invalid_amount",
	CodeReplay:                     "replay",
	CodeInvalidRecoveryAmount:      "invalid_recovery_amount",
	CodeUsageNotEnabled:            "usage_not_enabled",
	CodeInsufficientPrepaidBalance: "insufficient_prepaid_balance",
	CodeInvalidRecoveryReason:      "invalid_recovery_reason",
}

// String returns the snake_case name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", uint32(c))
}

// Error is a typed vault failure.
type Error struct {
	Code Code
	msg  string
}

func newError(code Code, msg string) *Error {
	return &Error{Code: code, msg: msg}
}

func (e *Error) Error() string { return "vault: " + e.msg }

// Sentinel errors. Compare with errors.Is; read the kind with CodeOf.
var (
	// General errors
	ErrNotFound      = newError(CodeNotFound, "not found")
	ErrUnauthorized  = newError(CodeUnauthorized, "unauthorized")
	ErrAlreadyExists = newError(CodeAlreadyExists, "already exists")

	// Subscription errors
	ErrSubscriptionNotFound    = newError(CodeNotFound, "subscription not found")
	ErrInvalidStatusTransition = newError(CodeInvalidStatusTransition, "invalid status transition")
	ErrNotActive               = newError(CodeNotActive, "subscription is not active")
	ErrUsageNotEnabled         = newError(CodeUsageNotEnabled, "usage charges are not enabled")
	ErrIntervalNotElapsed      = newError(CodeIntervalNotElapsed, "billing interval has not elapsed")
	ErrReplay                  = newError(CodeReplay, "billing period already charged")
	ErrInsufficientBalance     = newError(CodeInsufficientBalance, "insufficient balance")
	ErrInsufficientPrepaid     = newError(CodeInsufficientPrepaidBalance, "insufficient prepaid balance")
	ErrBelowMinimumTopup       = newError(CodeBelowMinimumTopup, "deposit below minimum top-up")
	ErrInvalidAmount           = newError(CodeInvalidAmount, "invalid amount")
	ErrOverflow                = newError(CodeOverflow, "arithmetic overflow")
	ErrUnderflow               = newError(CodeUnderflow, "arithmetic underflow")

	// Admin errors
	ErrNotInitialized        = newError(CodeNotFound, "vault is not initialized")
	ErrAlreadyInitialized    = newError(CodeAlreadyExists, "vault is already initialized")
	ErrInvalidRecoveryAmount = newError(CodeInvalidRecoveryAmount, "invalid recovery amount")
	ErrInvalidRecoveryReason = newError(CodeInvalidRecoveryReason, "invalid recovery reason")
)

// CodeOf returns the code of the first *Error in err's chain. It returns
// CodeOK for nil and CodeInternal for errors that carry no code.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// IsArithmetic returns true if the error is an overflow or underflow.
func IsArithmetic(err error) bool {
	return errors.Is(err, ErrOverflow) || errors.Is(err, ErrUnderflow)
}

// IsRetryable returns true if the same call may succeed later without the
// caller changing its input: the interval has not elapsed yet or the
// balance may be topped up.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrIntervalNotElapsed) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientPrepaid) ||
		CodeOf(err) == CodeInternal
}
