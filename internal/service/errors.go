package service

import (
	"github.com/pkg/errors"
)

type ErrorCode string

const (
	ErrorCodeNotFound              ErrorCode = "NOT_FOUND"
	ErrorCodeForbidden             ErrorCode = "FORBIDDEN"
	ErrorCodeDuplicateName         ErrorCode = "DUPLICATE_NAME"
	ErrorCodeAlreadyMember         ErrorCode = "ALREADY_MEMBER"
	ErrorCodeNotATeamMember        ErrorCode = "NOT_A_TEAM_MEMBER"
	ErrorCodeCannotRemoveLeader    ErrorCode = "CANNOT_REMOVE_LEADER"
	ErrorCodeTeamHasProject        ErrorCode = "TEAM_HAS_PROJECT"
	ErrorCodeInvalidLeader         ErrorCode = "INVALID_LEADER"
	ErrorCodeInvalidInvitee        ErrorCode = "INVALID_INVITEE"
	ErrorCodeDuplicatePending      ErrorCode = "DUPLICATE_PENDING"
	ErrorCodeAlreadyDecided        ErrorCode = "ALREADY_DECIDED"
	ErrorCodeInvalidProfessor      ErrorCode = "INVALID_PROFESSOR"
	ErrorCodeInvalidArgument       ErrorCode = "INVALID_ARGUMENT"
	ErrorCodeInvalidStateForReview ErrorCode = "INVALID_STATE_FOR_REVIEW"
	ErrorCodeNotTeamMember         ErrorCode = "NOT_TEAM_MEMBER"
	ErrorCodeInvalidBody           ErrorCode = "INVALID_BODY"
	ErrorCodeUnspecified           ErrorCode = "UNSPECIFIED"
)

// ErrorKind groups codes by what went wrong, independent of the operation.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "NotFound"
	KindForbidden       ErrorKind = "Forbidden"
	KindConflict        ErrorKind = "Conflict"
	KindInvalidArgument ErrorKind = "InvalidArgument"
	KindAlreadyDecided  ErrorKind = "AlreadyDecided"
	KindInternal        ErrorKind = "Internal"
)

func (c ErrorCode) Kind() ErrorKind {
	switch c {
	case ErrorCodeNotFound:
		return KindNotFound
	case ErrorCodeForbidden, ErrorCodeNotTeamMember:
		return KindForbidden
	case ErrorCodeDuplicateName, ErrorCodeAlreadyMember, ErrorCodeCannotRemoveLeader,
		ErrorCodeTeamHasProject, ErrorCodeDuplicatePending, ErrorCodeInvalidStateForReview:
		return KindConflict
	case ErrorCodeNotATeamMember, ErrorCodeInvalidLeader, ErrorCodeInvalidInvitee,
		ErrorCodeInvalidProfessor, ErrorCodeInvalidArgument, ErrorCodeInvalidBody:
		return KindInvalidArgument
	case ErrorCodeAlreadyDecided:
		return KindAlreadyDecided
	default:
		return KindInternal
	}
}

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Kind() ErrorKind {
	return e.Code.Kind()
}

// asError extracts the *Error returned from inside a transaction. Anything else
// (begin or commit failures) becomes UNSPECIFIED.
func asError(err error) *Error {
	if err == nil {
		return nil
	}
	var res *Error
	if errors.As(err, &res) {
		return res
	}
	return NewError(ErrorCodeUnspecified, "internal error")
}
