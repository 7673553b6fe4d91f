package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tush00nka/bbbab_conversations/internal/model"
)

func (r *gormStore) InsertConversation(ctx context.Context, conversation *model.Conversation) (uint, error) {
	if err := r.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return 0, err
	}
	return conversation.ID, nil
}

func (r *gormStore) GetConversationByID(ctx context.Context, conversationID uint) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.WithContext(ctx).First(&conversation, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *gormStore) GetConversationsByUserID(ctx context.Context, userID uint) ([]model.Conversation, error) {
	memberships := r.db.Model(&model.ConversationUser{}).
		Select("conversation_id").
		Where("user_id = ?", userID)

	var conversations []model.Conversation
	err := r.db.WithContext(ctx).
		Where("id IN (?)", memberships).
		Order("id").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *gormStore) UpdateConversation(ctx context.Context, conversationID uint, fields model.ConversationUpdate) error {
	cols := fields.Columns()
	if len(cols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Conversation{}).Where("id = ?", conversationID).Updates(cols).Error
}

func (r *gormStore) DeleteConversation(ctx context.Context, conversationID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", conversationID).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", conversationID).Delete(&model.ConversationUser{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Conversation{}, conversationID).Error
	})
}

func (r *gormStore) InsertConversationUser(ctx context.Context, conversationID, userID uint) error {
	err := r.db.WithContext(ctx).Create(&model.ConversationUser{
		ConversationID: conversationID,
		UserID:         userID,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *gormStore) HasConversationUser(ctx context.Context, conversationID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ConversationUser{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormStore) DeleteConversationUser(ctx context.Context, conversationID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Delete(&model.ConversationUser{}).Error
}

func (r *gormStore) DeleteConversationUsersByUserID(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.ConversationUser{}).Error
}
