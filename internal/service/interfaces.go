package service

import (
	"context"
	"io"

	"tush00nka/bbbab_conversations/internal/model"
)

// AccessGate отвечает на вопрос, состоит ли пользователь в беседе.
// Для несуществующих пользователя или беседы возвращает false без ошибки.
type AccessGate interface {
	IsMember(ctx context.Context, conversationID, userID uint) (bool, error)
}

type UserService interface {
	Create(ctx context.Context, cfg model.UserConfig) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUserName(ctx context.Context, userName string) (*model.User, error)
	Update(ctx context.Context, id uint, upd model.UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id uint) error
}

type ConversationService interface {
	Create(ctx context.Context, name string, creatorID uint, memberIDs []uint) (*model.Conversation, error)
	FindByID(ctx context.Context, id uint) (*model.Conversation, error)
	ForUser(ctx context.Context, userID uint) ([]model.Conversation, error)
	HasUser(ctx context.Context, conversationID, userID uint) (bool, error)
	Users(ctx context.Context, conversationID uint) ([]model.User, error)
	AddUser(ctx context.Context, conversationID, userID uint) error
	RemoveUser(ctx context.Context, conversationID, userID uint) error
	Update(ctx context.Context, conversationID uint, upd model.ConversationUpdate) (*model.Conversation, error)
	Delete(ctx context.Context, conversationID uint) error
}

type MessageService interface {
	Create(ctx context.Context, conversationID, senderID uint, body string) (*model.Message, error)
	Post(ctx context.Context, message *model.Message) error
	FindByID(ctx context.Context, messageID uint) (*model.Message, error)
	ListByConversation(ctx context.Context, conversationID uint) ([]model.Message, error)
}

type AttachmentService interface {
	Upload(ctx context.Context, upload AttachmentUpload) (*model.FileMetadata, error)
	PresignedURL(ctx context.Context, message *model.Message) (string, error)
}

type AttachmentUpload struct {
	ConversationID uint
	UserID         uint
	Filename       string
	ContentType    string
	Size           int64
	Body           io.Reader
}
