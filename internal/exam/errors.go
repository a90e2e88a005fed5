package exam

import "errors"

// Domain errors
var (
	ErrNotStarted      = errors.New("exam session has not started")
	ErrAlreadyStarted  = errors.New("exam session already started")
	ErrNoQuestions     = errors.New("exam has no questions")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrUnknownFilter   = errors.New("unknown difficulty filter")
	ErrInvalidConfig   = errors.New("invalid exam configuration")
)
