// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"net/http"
)

type Class int

const (
	Fatal Class = iota
	UserBlocking
	Retryable
	Ambiguous
	Invalid
)

func (c Class) String() string {
	switch c {
	case UserBlocking:
		return "user_blocking"
	case Retryable:
		return "retryable"
	case Ambiguous:
		return "ambiguous"
	case Invalid:
		return "invalid"
	}
	return "fatal"
}

// Error is a classified error with a stable machine-readable reason.
type Error struct {
	Class  Class
	Reason string
	msg    string
}

func New(class Class, reason, msg string) *Error {
	return &Error{Class: class, Reason: reason, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) ErrorClass() Class { return e.Class }

func (e *Error) ErrorReason() string { return e.Reason }

type classer interface {
	ErrorClass() Class
}

type reasoner interface {
	ErrorReason() string
}

// Classify returns the class of the first classified error in err's chain,
// or Fatal.
func Classify(err error) Class {
	if err == nil {
		return Fatal
	}
	var c classer
	if errors.As(err, &c) {
		return c.ErrorClass()
	}
	return Fatal
}

// ReasonOf returns the reason code of the first error in err's chain that
// carries one.
func ReasonOf(err error) string {
	var r reasoner
	if errors.As(err, &r) {
		return r.ErrorReason()
	}
	return ""
}

// Blocked builds a one-off UserBlocking error, used when the message must
// carry request-specific details such as counts.
func Blocked(reason, msg string) *Error {
	return New(UserBlocking, reason, msg)
}

// HTTPStatus maps err onto the status code handlers respond with.
func HTTPStatus(err error) int {
	switch Classify(err) {
	case UserBlocking:
		switch ReasonOf(err) {
		case "not_found":
			return http.StatusNotFound
		case "unauthorized":
			return http.StatusUnauthorized
		case "already_voted", "election_not_active", "quorum_not_met",
			"key_already_submitted", "challenged_ballot", "invalid_state", "already_cast":
			return http.StatusConflict
		case "security_check_pending":
			return http.StatusServiceUnavailable
		}
		return http.StatusForbidden
	case Retryable:
		return http.StatusBadGateway
	case Ambiguous:
		return http.StatusGatewayTimeout
	case Invalid:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
