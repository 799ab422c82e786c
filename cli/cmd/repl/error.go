package repl

import "errors"

// Sentinel errors.
var (
	ErrNoEnv        = errors.New("no evaluation environment")
	ErrOutOfBounds  = errors.New("index out of range")
	ErrEditDeclined = errors.New("decline edit")
)
