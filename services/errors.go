package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/CUknot/chat_backend/repository"
)

// Error is a user-visible failure with a machine-readable code and the
// HTTP-equivalent status.
type Error struct {
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Message string `json:"message"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches on Code so callers can compare against the exported kinds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func NotFound(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusNotFound, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusForbidden, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusConflict, Message: message}
}

func Expired(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusGone, Message: message}
}

func Unavailable(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusServiceUnavailable, Message: message}
}

func Invalid(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusBadRequest, Message: message}
}

// Internal hides err behind a generic message. The cause stays reachable
// through errors.Unwrap for logging.
func Internal(err error) *Error {
	return &Error{Code: "INTERNAL", Status: http.StatusInternalServerError, Message: "internal server error", cause: err}
}

var (
	ErrRoomNotFound     = NotFound("ROOM_NOT_FOUND", "chat room not found")
	ErrUserNotFound     = NotFound("USER_NOT_FOUND", "user not found")
	ErrMessageNotFound  = NotFound("MESSAGE_NOT_FOUND", "message not found in this room")
	ErrInviteNotFound   = NotFound("INVITE_NOT_FOUND", "invite not found")
	ErrNotMember        = Forbidden("NOT_A_MEMBER", "you are not an active member of this room")
	ErrRoomClosed       = Forbidden("ROOM_CLOSED", "chat room is closed")
	ErrNotRoomOwner     = Forbidden("NOT_ROOM_OWNER", "only the room owner can do this")
	ErrNotPrivateRoom   = Forbidden("NOT_PRIVATE_ROOM", "invites can only be sent from a private room")
	ErrInviteeNotInRoom = Forbidden("INVITEE_NOT_MEMBER", "invitee is not an active member of this room")
	ErrNotInvitee       = Forbidden("NOT_INVITEE", "this invite is addressed to someone else")
	ErrReadRegression   = Conflict("READ_POSITION_REGRESSION", "read position cannot move backwards")
	ErrInviteDeclined   = Conflict("INVITE_DECLINED", "invite was already declined")
	ErrInviteAccepted   = Conflict("INVITE_ACCEPTED", "invite was already accepted")
	ErrTargetNotGroup   = Conflict("TARGET_NOT_OPEN_GROUP", "target room is not an open group room")
	ErrTargetMismatch   = Conflict("TARGET_POST_MISMATCH", "target room belongs to a different post")
	ErrInviteExpired    = Expired("INVITE_EXPIRED", "invite has expired")
)

// AsError returns err as an *Error, mapping anything unrecognised to
// Internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, repository.ErrNotFound) {
		return &Error{Code: "NOT_FOUND", Status: http.StatusNotFound, Message: "resource not found", cause: err}
	}
	return Internal(err)
}

// lookup maps a repository miss to notFound and any other failure to
// Internal.
func lookup(err error, notFound *Error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return Internal(fmt.Errorf("%s: %w", op, err))
}
