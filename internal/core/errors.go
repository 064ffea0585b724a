package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeChannelNotFound = "channel_not_found"
	ErrCodeAlreadyMember   = "already_member"
	ErrCodeNotInChannel    = "not_in_channel"
	ErrCodeUserNotFound    = "user_not_found"
	ErrCodeBadRequest      = "bad_request"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrAlreadyMember   = errors.New("already a member")
	ErrNotInChannel    = errors.New("not in channel")
	ErrClientGone      = errors.New("client has disconnected")
	ErrBadRequest      = errors.New("bad request")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// Is lets errors.Is match a CoreError against the sentinel for its code.
func (e *CoreError) Is(target error) bool {
	switch e.Code {
	case ErrCodeBadRequest:
		return target == ErrBadRequest
	case ErrCodeChannelNotFound:
		return target == ErrChannelNotFound
	case ErrCodeAlreadyMember:
		return target == ErrAlreadyMember
	case ErrCodeNotInChannel:
		return target == ErrNotInChannel
	}
	return false
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
