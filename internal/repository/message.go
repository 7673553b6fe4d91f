package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tush00nka/bbbab_conversations/internal/model"
)

func (r *gormStore) InsertMessage(ctx context.Context, message *model.Message) (uint, error) {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return 0, err
	}
	return message.ID, nil
}

func (r *gormStore) GetMessageByID(ctx context.Context, messageID uint) (*model.Message, error) {
	var message model.Message
	if err := r.db.WithContext(ctx).First(&message, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

func (r *gormStore) GetMessagesByConversationID(ctx context.Context, conversationID uint) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp, id").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
