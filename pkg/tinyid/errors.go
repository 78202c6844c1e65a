package tinyid

import "errors"

// Errors returned when packing an identifier.
var (
	ErrLanIDOverflow       = errors.New("lan id overflow")
	ErrInvalidKind         = errors.New("invalid message kind")
	ErrInvalidHours        = errors.New("invalid hours")
	ErrInvalidMinutes      = errors.New("invalid minutes")
	ErrInvalidSeconds      = errors.New("invalid seconds")
	ErrInvalidMilliseconds = errors.New("invalid milliseconds")
	ErrInvalidPassedTime   = errors.New("invalid passed time of day")
	ErrNotAnswerKind       = errors.New("not an answer message kind")
)
