package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"tush00nka/bbbab_conversations/internal/model"
	"tush00nka/bbbab_conversations/internal/pkg/events"
	"tush00nka/bbbab_conversations/internal/repository"
)

const maxMessageLength = 4000

// messageService реализация MessageService
type messageService struct {
	store     repository.Store
	cache     repository.MessageCache
	publisher events.Publisher
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewMessageService создает новый экземпляр MessageService.
// cache может быть nil, тогда история всегда читается из базы.
func NewMessageService(
	store repository.Store,
	cache repository.MessageCache,
	publisher events.Publisher,
	log logrus.FieldLogger,
) MessageService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &messageService{
		store:     store,
		cache:     cache,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Create отправляет текстовое сообщение в беседу
func (s *messageService) Create(ctx context.Context, conversationID, senderID uint, body string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: message cannot be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return nil, fmt.Errorf("%w: message must be at most %d characters", ErrInvalidInput, maxMessageLength)
	}

	message := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
	}
	if err := s.Post(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// Post сохраняет готовое сообщение. Беседа должна существовать.
func (s *messageService) Post(ctx context.Context, message *model.Message) error {
	if message.SenderID == 0 {
		return fmt.Errorf("%w: senderID cannot be zero", ErrInvalidInput)
	}

	conversation, err := s.store.GetConversationByID(ctx, message.ConversationID)
	if err != nil {
		return fmt.Errorf("get conversation %d: %w", message.ConversationID, err)
	}
	if conversation == nil {
		return ErrConversationNotFound
	}

	message.Timestamp = s.now().UTC()
	if _, err := s.store.InsertMessage(ctx, message); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	s.invalidate(ctx, message.ConversationID)

	event := events.Event{
		Type:           events.TypeMessageCreated,
		ConversationID: message.ConversationID,
		UserID:         message.SenderID,
		Data:           message,
		Timestamp:      message.Timestamp,
	}
	subject := events.Subject(events.SubjectMessageCreated, message.ConversationID)
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.log.WithError(err).WithField("subject", subject).Warn("failed to publish event")
	}

	return nil
}

// FindByID возвращает сообщение или ErrMessageNotFound
func (s *messageService) FindByID(ctx context.Context, messageID uint) (*model.Message, error) {
	if messageID == 0 {
		return nil, ErrMessageNotFound
	}

	message, err := s.store.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message %d: %w", messageID, err)
	}
	if message == nil {
		return nil, ErrMessageNotFound
	}
	return message, nil
}

// ListByConversation возвращает историю беседы, сначала пробуя кеш.
// Версия кеша читается до запроса в базу: если за это время пришло новое
// сообщение, устаревший список в кеш не попадет.
func (s *messageService) ListByConversation(ctx context.Context, conversationID uint) ([]model.Message, error) {
	log := s.log.WithField("conversation_id", conversationID)

	cacheable := false
	var version int64
	if s.cache != nil {
		messages, hit, err := s.cache.GetMessages(ctx, conversationID)
		if err != nil {
			log.WithError(err).Warn("failed to get messages from cache")
		} else if hit {
			return messages, nil
		}

		version, err = s.cache.Version(ctx, conversationID)
		if err != nil {
			log.WithError(err).Warn("failed to get message cache version")
		} else {
			cacheable = true
		}
	}

	messages, err := s.store.GetMessagesByConversationID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get messages of conversation %d: %w", conversationID, err)
	}

	if cacheable {
		err := s.cache.SetMessages(ctx, conversationID, version, messages)
		if errors.Is(err, repository.ErrStaleCache) {
			log.Debug("message history changed while loading, not caching")
		} else if err != nil {
			log.WithError(err).Warn("failed to cache messages")
		}
	}

	return messages, nil
}

func (s *messageService) invalidate(ctx context.Context, conversationID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, conversationID); err != nil {
		s.log.WithError(err).WithField("conversation_id", conversationID).Warn("failed to clear message cache")
	}
}
