// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package backend

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/verivote/apperr"
)

type Kind int

const (
	KindNetwork Kind = iota
	KindAmbiguous
	KindServer
	KindRejected
	KindNotFound
	KindQuorumNotMet
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAmbiguous:
		return "ambiguous"
	case KindServer:
		return "server"
	case KindRejected:
		return "rejected"
	case KindNotFound:
		return "not_found"
	case KindQuorumNotMet:
		return "quorum_not_met"
	}
	return "unknown"
}

// RequestError describes a failed backend call.
type RequestError struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ErrorClass classifies the failure. Ambiguous stays Ambiguous here; the
// ballot state machine decides what an ambiguous cast means.
func (e *RequestError) ErrorClass() apperr.Class {
	switch e.Kind {
	case KindNetwork, KindServer:
		return apperr.Retryable
	case KindAmbiguous:
		return apperr.Ambiguous
	case KindNotFound, KindQuorumNotMet:
		return apperr.UserBlocking
	case KindRejected:
		return apperr.Invalid
	}
	return apperr.Fatal
}

func (e *RequestError) ErrorReason() string { return e.Kind.String() }

// KindOf returns the Kind of the first RequestError in err's chain.
func KindOf(err error) (Kind, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}

// IsQuorumNotMet reports whether err is a premature-combination rejection.
func IsQuorumNotMet(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindQuorumNotMet
}
