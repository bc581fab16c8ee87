package handlers

import "errors"

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyGroupName  = errors.New("group name must not be empty")
	ErrNoParticipants  = errors.New("participant list must not be empty")
	ErrBroadcastDelete = errors.New("broadcast chats cannot be hard-deleted")
	ErrBadDeleteMode   = errors.New("delete type must be hard or soft")
)
