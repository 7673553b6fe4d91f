package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tush00nka/bbbab_conversations/internal/model"
	"tush00nka/bbbab_conversations/internal/pkg/events"
	"tush00nka/bbbab_conversations/internal/repository"
)

const maxConversationNameLength = 255

// conversationService реализация ConversationService
type conversationService struct {
	store     repository.Store
	gate      AccessGate
	cache     repository.MessageCache
	publisher events.Publisher
	log       logrus.FieldLogger
}

// NewConversationService создает новый экземпляр ConversationService.
// cache может быть nil, если Redis не настроен.
func NewConversationService(
	store repository.Store,
	gate AccessGate,
	cache repository.MessageCache,
	publisher events.Publisher,
	log logrus.FieldLogger,
) ConversationService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &conversationService{
		store:     store,
		gate:      gate,
		cache:     cache,
		publisher: publisher,
		log:       log,
	}
}

// Create создает беседу; создатель всегда становится участником
func (s *conversationService) Create(ctx context.Context, name string, creatorID uint, memberIDs []uint) (*model.Conversation, error) {
	name, err := validateConversationName(name)
	if err != nil {
		return nil, err
	}

	// Проверяем уникальность пользователей, создатель идет первым
	seen := map[uint]bool{creatorID: true}
	members := []uint{creatorID}
	for _, id := range memberIDs {
		if id == 0 {
			return nil, fmt.Errorf("%w: userID cannot be zero", ErrInvalidInput)
		}
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}

	for _, id := range members {
		user, err := s.store.GetUserByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get user %d: %w", id, err)
		}
		if user == nil {
			return nil, fmt.Errorf("%w: %d", ErrUserNotFound, id)
		}
	}

	conversation := &model.Conversation{Name: name}
	if _, err := s.store.InsertConversation(ctx, conversation); err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	// Участники добавляются отдельными запросами, без транзакции
	for _, id := range members {
		if err := s.store.InsertConversationUser(ctx, conversation.ID, id); err != nil {
			return nil, fmt.Errorf("failed to add user %d: %w", id, err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"conversation_id": conversation.ID,
		"members":         len(members),
	}).Info("conversation created")

	return conversation, nil
}

// FindByID возвращает беседу или ErrConversationNotFound
func (s *conversationService) FindByID(ctx context.Context, id uint) (*model.Conversation, error) {
	if id == 0 {
		return nil, ErrConversationNotFound
	}

	conversation, err := s.store.GetConversationByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get conversation %d: %w", id, err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	return conversation, nil
}

// ForUser возвращает все беседы пользователя
func (s *conversationService) ForUser(ctx context.Context, userID uint) ([]model.Conversation, error) {
	conversations, err := s.store.GetConversationsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get conversations of user %d: %w", userID, err)
	}
	return conversations, nil
}

// HasUser проверяет, является ли пользователь участником беседы
func (s *conversationService) HasUser(ctx context.Context, conversationID, userID uint) (bool, error) {
	ok, err := s.gate.IsMember(ctx, conversationID, userID)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return ok, nil
}

// Users возвращает всех текущих участников беседы
func (s *conversationService) Users(ctx context.Context, conversationID uint) ([]model.User, error) {
	users, err := s.store.GetUsersByConversationID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get users of conversation %d: %w", conversationID, err)
	}
	return users, nil
}

// AddUser добавляет существующего пользователя в беседу
func (s *conversationService) AddUser(ctx context.Context, conversationID, userID uint) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user %d: %w", userID, err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	member, err := s.HasUser(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if member {
		return ErrAlreadyMember
	}

	if err := s.store.InsertConversationUser(ctx, conversationID, userID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAlreadyMember
		}
		return fmt.Errorf("insert membership: %w", err)
	}

	s.publish(ctx, events.SubjectMemberAdded, events.Event{
		Type:           events.TypeMemberAdded,
		ConversationID: conversationID,
		UserID:         userID,
	})
	return nil
}

// RemoveUser удаляет членство. Для не-участника это no-op на уровне хранилища,
// поэтому вызывающий код должен сначала проверить членство.
func (s *conversationService) RemoveUser(ctx context.Context, conversationID, userID uint) error {
	if err := s.store.DeleteConversationUser(ctx, conversationID, userID); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}

	s.publish(ctx, events.SubjectMemberRemoved, events.Event{
		Type:           events.TypeMemberRemoved,
		ConversationID: conversationID,
		UserID:         userID,
	})
	return nil
}

// Update обновляет информацию о беседе
func (s *conversationService) Update(ctx context.Context, conversationID uint, upd model.ConversationUpdate) (*model.Conversation, error) {
	if upd.Name == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	name, err := validateConversationName(*upd.Name)
	if err != nil {
		return nil, err
	}
	upd.Name = &name

	conversation, err := s.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateConversation(ctx, conversationID, upd); err != nil {
		return nil, fmt.Errorf("update conversation %d: %w", conversationID, err)
	}
	conversation.Name = name

	s.publish(ctx, events.SubjectConversationRenamed, events.Event{
		Type:           events.TypeConversationRenamed,
		ConversationID: conversationID,
		Data:           conversation,
	})
	return conversation, nil
}

// Delete удаляет беседу вместе с сообщениями и членствами
func (s *conversationService) Delete(ctx context.Context, conversationID uint) error {
	if _, err := s.FindByID(ctx, conversationID); err != nil {
		return err
	}

	if err := s.store.DeleteConversation(ctx, conversationID); err != nil {
		return fmt.Errorf("delete conversation %d: %w", conversationID, err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, conversationID); err != nil {
			s.log.WithError(err).WithField("conversation_id", conversationID).Warn("failed to clear message cache")
		}
	}

	s.publish(ctx, events.SubjectConversationDeleted, events.Event{
		Type:           events.TypeConversationDeleted,
		ConversationID: conversationID,
	})

	s.log.WithField("conversation_id", conversationID).Info("conversation deleted")
	return nil
}

func (s *conversationService) publish(ctx context.Context, subject string, event events.Event) {
	event.Timestamp = time.Now().UTC()
	if err := s.publisher.Publish(ctx, events.Subject(subject, event.ConversationID), event); err != nil {
		s.log.WithError(err).WithField("subject", subject).Warn("failed to publish event")
	}
}

func validateConversationName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: conversation name cannot be empty", ErrInvalidInput)
	}
	if len(name) > maxConversationNameLength {
		return "", fmt.Errorf("%w: conversation name must be at most %d characters", ErrInvalidInput, maxConversationNameLength)
	}
	return name, nil
}
