package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tush00nka/bbbab_conversations/internal/model"
)

func (r *gormStore) InsertUser(ctx context.Context, user *model.User) (uint, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return user.ID, nil
}

func (r *gormStore) GetUserByID(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *gormStore) GetUserByUserName(ctx context.Context, userName string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("user_name = ?", userName).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *gormStore) GetUsersByConversationID(ctx context.Context, conversationID uint) ([]model.User, error) {
	members := r.db.Model(&model.ConversationUser{}).
		Select("user_id").
		Where("conversation_id = ?", conversationID)

	var users []model.User
	err := r.db.WithContext(ctx).
		Where("id IN (?)", members).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *gormStore) UpdateUser(ctx context.Context, userID uint, fields model.UserFields) error {
	cols := fields.Columns()
	if len(cols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(cols).Error
}

func (r *gormStore) DeleteUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Delete(&model.User{}, userID).Error
}
