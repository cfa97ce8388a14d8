package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies workflow failures so the API boundary can map them to responses
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindConflict   ErrorKind = "conflict"
	KindNotFound   ErrorKind = "not_found"
	KindState      ErrorKind = "state"
	KindFraudBlock ErrorKind = "fraud_block"
	KindDependency ErrorKind = "dependency"
)

// Error is a typed workflow error. Message is shown to the end user verbatim.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError reports malformed, missing or incorrectly sized input
func NewValidationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewConflictError reports a uniqueness violation or a self-referral
func NewConflictError(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// NewNotFoundError reports an unknown id
func NewNotFoundError(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// NewStateError reports an operation that is invalid for the current status
func NewStateError(message string) error {
	return &Error{Kind: KindState, Message: message}
}

// NewFraudBlockError reports a phone whose carrier is blocked
func NewFraudBlockError(message string) error {
	return &Error{Kind: KindFraudBlock, Message: message}
}

// NewDependencyError reports a failed gating call to an external collaborator
func NewDependencyError(message string, err error) error {
	return &Error{Kind: KindDependency, Message: message, Err: err}
}

// KindOf returns the kind of a typed error, or "" for untyped errors
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a typed error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

var (
	// ErrPhoneTaken is returned by the store when a phone unique constraint is violated
	ErrPhoneTaken = errors.New("phone already in use")

	// ErrEmailTaken is returned by the store when an email unique constraint is violated
	ErrEmailTaken = errors.New("email already in use")

	// ErrAlreadyClaimed is returned by the store when a tripler already has an active claim
	ErrAlreadyClaimed = errors.New("tripler already claimed")

	// ErrStatusMismatch is returned by the store when a conditional status update matched no row
	ErrStatusMismatch = errors.New("tripler status changed concurrently")

	// ErrAmbassadorExists is returned when an ambassador phone is already registered
	ErrAmbassadorExists = errors.New("ambassador already exists")

	// ErrClaimLimitReached is returned by the store when an ambassador holds the maximum number of claims
	ErrClaimLimitReached = errors.New("claim limit reached")
)

// User-facing messages shared by several workflows
const (
	MsgInvalidPhone       = "Our system doesn’t recognize that phone number. Please try again."
	MsgPhoneInUse         = "That phone number is already in use."
	MsgEmailInUse         = "Tripler with this email already exists"
	MsgInvalidEmail       = "Invalid email"
	MsgSelfReferral       = "You entered your phone number as the number of this Vote Tripler. Please try again."
	MsgInvalidTripler     = "Invalid tripler"
	MsgInvalidStatus      = "Invalid status, cannot proceed"
	MsgInsufficientTriple = "Insufficient triplees, cannot start confirmation"
	MsgAlreadyClaimed     = "This Vote Tripler has already been claimed."
	MsgClaimLimit         = "You have reached the maximum number of Vote Triplers you can claim."
	MsgFraudCarrier       = "We're sorry, due to fraud concerns '%s' phone numbers are not permitted. Please try again."
	MsgInvalidAddress     = "Our system doesn’t recognize that address. Please try again."
	MsgInvalidAmbassador  = "Invalid ambassador"
	MsgCannotDetach       = "Invalid tripler, cannot detach"
	MsgCannotConfirm      = "Invalid status, cannot confirm"
	MsgUnclaimedTripler   = "Tripler is not claimed by an ambassador"
	MsgConfirmationSMS    = "Error sending confirmation sms to the tripler"
	MsgReminderSMS        = "Error sending reminder sms to the tripler"
	MsgReconfirmationSMS  = "Error sending reconfirmation sms to the tripler"
	MsgRejectionSMS       = "Error sending rejection sms"
	MsgCarrierLookup      = "Could not verify the phone carrier. Please try again."
	MsgGeocoder           = "Could not verify the address. Please try again."
)
