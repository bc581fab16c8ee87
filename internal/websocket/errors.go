package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrInvalidIntent   = errors.New("invalid intent format")
	ErrNotRegistered   = errors.New("connection has not registered an identity")
)
