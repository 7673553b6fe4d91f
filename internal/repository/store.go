package repository

import (
	"context"
	"errors"

	"tush00nka/bbbab_conversations/internal/model"
)

// ErrDuplicate is returned when an insert violates a unique key
// (userName, or a (conversation, user) membership pair).
var ErrDuplicate = errors.New("duplicate key")

// Store is the storage access layer. Get methods return (nil, nil) when the
// row does not exist; update and delete only report failure through the
// error.
type Store interface {
	InsertUser(ctx context.Context, user *model.User) (uint, error)
	GetUserByID(ctx context.Context, userID uint) (*model.User, error)
	GetUserByUserName(ctx context.Context, userName string) (*model.User, error)
	GetUsersByConversationID(ctx context.Context, conversationID uint) ([]model.User, error)
	UpdateUser(ctx context.Context, userID uint, fields model.UserFields) error
	DeleteUser(ctx context.Context, userID uint) error

	InsertConversation(ctx context.Context, conversation *model.Conversation) (uint, error)
	GetConversationByID(ctx context.Context, conversationID uint) (*model.Conversation, error)
	GetConversationsByUserID(ctx context.Context, userID uint) ([]model.Conversation, error)
	UpdateConversation(ctx context.Context, conversationID uint, fields model.ConversationUpdate) error
	// DeleteConversation removes the conversation together with its
	// messages and memberships.
	DeleteConversation(ctx context.Context, conversationID uint) error

	InsertConversationUser(ctx context.Context, conversationID, userID uint) error
	HasConversationUser(ctx context.Context, conversationID, userID uint) (bool, error)
	DeleteConversationUser(ctx context.Context, conversationID, userID uint) error
	DeleteConversationUsersByUserID(ctx context.Context, userID uint) error

	InsertMessage(ctx context.Context, message *model.Message) (uint, error)
	GetMessageByID(ctx context.Context, messageID uint) (*model.Message, error)
	GetMessagesByConversationID(ctx context.Context, conversationID uint) ([]model.Message, error)
}
