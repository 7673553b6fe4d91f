package service

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrUserNameTaken        = errors.New("user name is taken")
	ErrAlreadyMember        = errors.New("user is already a member of the conversation")
	ErrInvalidInput         = errors.New("invalid input")
	ErrImmutableField       = errors.New("field cannot be changed")
	ErrNotAnAttachment      = errors.New("message has no attachment")
)
