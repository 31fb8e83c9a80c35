// Package services defines the business logic for dispatching lots and
// processing operator commands. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed
// at the handler layer, and translation into operator-facing chat replies
// is performed by the bot service.
package services

import (
	"errors"
	"fmt"

	"github.com/qnahub/dispatch-bot/internal/domain"
)

// Dispatch-related errors.
var (
	// ErrUnknownDestination is returned when a dispatch request names a
	// destination outside the supported set.
	ErrUnknownDestination = errors.New("unknown destination")

	// ErrNoQuestions is returned when a dispatch request carries an empty
	// selection.
	ErrNoQuestions = errors.New("no questions provided")

	// ErrInvalidQuestion is returned (wrapped, with detail) when a selected
	// question has no usable text.
	ErrInvalidQuestion = errors.New("invalid question")

	// ErrQuestionNotFound is returned (wrapped, with the offending ids)
	// when a dispatch request references questions missing from the store.
	ErrQuestionNotFound = errors.New("question not found")
)

// Lot lookup errors.
var (
	// ErrLotNotFound indicates the addressed lot code does not exist.
	ErrLotNotFound = errors.New("lot not found")

	// ErrNoPendingLot indicates no PENDING lot exists for the destination.
	ErrNoPendingLot = errors.New("no pending lot for destination")

	// ErrNoAppliedLot indicates no APPLIED lot exists for the destination.
	ErrNoAppliedLot = errors.New("no applied lot for destination")
)

// Access-check errors.
var (
	// ErrInvalidEmail is returned when an access check carries a malformed
	// email address.
	ErrInvalidEmail = errors.New("invalid email")
)

// InvalidTransitionError reports a lifecycle operation attempted on a lot
// that is not in the required state. The bot reports it back to the
// requesting operator as plain text; it never crashes the request.
type InvalidTransitionError struct {
	LotCode string
	Current domain.LotStatus
	Want    domain.LotStatus
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: lot %s is %s, want %s", e.LotCode, e.Current, e.Want)
}

// OperatorMessage renders the failure as the pt-BR reply sent back to the
// operator who issued the command.
func (e *InvalidTransitionError) OperatorMessage() string {
	return fmt.Sprintf("Transição inválida: o lote %s está %s (esperado %s).", e.LotCode, e.Current, e.Want)
}
