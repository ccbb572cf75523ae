package chat

import "errors"

var (
	// ErrUnauthorized means the actor lacks the required relationship to
	// the resource (not the sender, not the channel admin).
	ErrUnauthorized = errors.New("chat: unauthorized")
	// ErrNotEditable means the message type does not support editing.
	ErrNotEditable = errors.New("chat: only text messages can be edited")
)
