package domain

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

// Error is the error type surfaced by domain services. Two errors are
// considered equal by errors.Is when their codes match.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...), Err: e.Err}
}

// Wrap returns a copy of e wrapping cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidRequest       = newError(KindValidation, "INVALID_REQUEST", "malformed request")
	ErrInvalidBid           = newError(KindValidation, "INVALID_BID", "bid amount is too low")
	ErrInvalidSignature     = newError(KindValidation, "INVALID_SIGNATURE", "callback signature mismatch")
	ErrUnauthenticated      = newError(KindUnauthorized, "UNAUTHORIZED", "authentication required")
	ErrBidderBanned         = newError(KindForbidden, "BIDDER_BANNED", "bidder is banned from auctions")
	ErrNotWinner            = newError(KindForbidden, "NOT_WINNER", "only the winning bidder can pay for this auction")
	ErrAuctionNotFound      = newError(KindNotFound, "AUCTION_NOT_FOUND", "auction not found")
	ErrBidderNotFound       = newError(KindNotFound, "BIDDER_NOT_FOUND", "bidder not found")
	ErrCategoryNotFound     = newError(KindNotFound, "CATEGORY_NOT_FOUND", "category not found")
	ErrPaymentNotFound      = newError(KindNotFound, "PAYMENT_NOT_FOUND", "payment not found")
	ErrNotificationNotFound = newError(KindNotFound, "NOTIFICATION_NOT_FOUND", "notification not found")
	ErrAuctionClosed        = newError(KindConflict, "AUCTION_CLOSED", "auction is not accepting bids")
	ErrAlreadyHighestBidder = newError(KindConflict, "ALREADY_HIGHEST_BIDDER", "you are already the highest bidder")
	ErrAlreadyPaid          = newError(KindConflict, "ALREADY_PAID", "auction has already been paid for")
	ErrCancelNotAllowed     = newError(KindConflict, "CANCEL_NOT_ALLOWED", "auction cannot be cancelled once bids exist")
	ErrInvalidTransition    = newError(KindConflict, "INVALID_TRANSITION", "auction status transition not allowed")
	ErrSlugTaken            = newError(KindConflict, "SLUG_TAKEN", "slug is already in use")
	ErrDuplicate            = newError(KindConflict, "DUPLICATE", "record already exists")
)

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
