package session

import "errors"

// ErrNotFound reports a step against an identifier with no live session.
var ErrNotFound = errors.New("session not found")

// ConfigError rejects a reset before any session or world is created.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "config: " + e.Msg }

// BadActionError rejects a step whose action is outside the task vocabulary.
type BadActionError struct {
	Msg string
}

func (e *BadActionError) Error() string { return "action: " + e.Msg }
