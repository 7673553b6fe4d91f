package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"tush00nka/bbbab_conversations/internal/model"
	"tush00nka/bbbab_conversations/internal/pkg/auth"
	"tush00nka/bbbab_conversations/internal/pkg/events"
	"tush00nka/bbbab_conversations/internal/repository"
)

const (
	maxUserNameLength = 64
	minPasswordLength = 8
)

type userService struct {
	store     repository.Store
	publisher events.Publisher
	log       logrus.FieldLogger
}

func NewUserService(store repository.Store, publisher events.Publisher, log logrus.FieldLogger) UserService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &userService{store: store, publisher: publisher, log: log}
}

// Create регистрирует пользователя. Пароль хранится только в виде хеша и соли.
func (s *userService) Create(ctx context.Context, cfg model.UserConfig) (*model.User, error) {
	cfg.UserName = strings.TrimSpace(cfg.UserName)
	if err := validateUserName(cfg.UserName); err != nil {
		return nil, err
	}
	if len(cfg.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if err := validateEmail(cfg.Email); err != nil {
		return nil, err
	}

	hash, salt, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		UserName:     cfg.UserName,
		FirstName:    strings.TrimSpace(cfg.FirstName),
		LastName:     strings.TrimSpace(cfg.LastName),
		Email:        strings.TrimSpace(cfg.Email),
		PasswordHash: hash,
		PasswordSalt: salt,
	}

	if _, err := s.store.InsertUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserNameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("user created")
	return user, nil
}

// FindByID возвращает пользователя или ErrUserNotFound
func (s *userService) FindByID(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrUserNotFound
	}

	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// FindByUserName возвращает пользователя по имени или ErrUserNotFound
func (s *userService) FindByUserName(ctx context.Context, userName string) (*model.User, error) {
	if userName == "" {
		return nil, ErrUserNotFound
	}

	user, err := s.store.GetUserByUserName(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", userName, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Update обновляет только разрешенные поля профиля
func (s *userService) Update(ctx context.Context, id uint, upd model.UserUpdate) (*model.User, error) {
	if upd.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	// Проверяем существование пользователя
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := model.UserFields{
		FirstName: trimmed(upd.FirstName),
		LastName:  trimmed(upd.LastName),
		Email:     trimmed(upd.Email),
	}
	if fields.Email != nil {
		if err := validateEmail(*fields.Email); err != nil {
			return nil, err
		}
	}
	if upd.Password != nil {
		if len(*upd.Password) < minPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
		}
		hash, salt, err := auth.HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		fields.PasswordHash = &hash
		fields.PasswordSalt = &salt
	}

	if err := s.store.UpdateUser(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}

	fields.Apply(user)
	return user, nil
}

// Delete удаляет пользователя вместе со всеми его членствами в беседах.
// Каждая беседа получает member.removed, чтобы закрыть живые подписки.
// Повторное удаление возвращает ErrUserNotFound.
func (s *userService) Delete(ctx context.Context, id uint) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}

	conversations, err := s.store.GetConversationsByUserID(ctx, id)
	if err != nil {
		return fmt.Errorf("get conversations of user %d: %w", id, err)
	}

	if err := s.store.DeleteConversationUsersByUserID(ctx, id); err != nil {
		return fmt.Errorf("delete memberships of user %d: %w", id, err)
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	now := time.Now().UTC()
	for _, c := range conversations {
		subject := events.Subject(events.SubjectMemberRemoved, c.ID)
		err := s.publisher.Publish(ctx, subject, events.Event{
			Type:           events.TypeMemberRemoved,
			ConversationID: c.ID,
			UserID:         id,
			Timestamp:      now,
		})
		if err != nil {
			s.log.WithError(err).WithField("subject", subject).Warn("failed to publish event")
		}
	}

	s.log.WithFields(logrus.Fields{"user_id": id, "conversations": len(conversations)}).Info("user deleted")
	return nil
}

func validateUserName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: userName is required", ErrInvalidInput)
	}
	if len(name) > maxUserNameLength {
		return fmt.Errorf("%w: userName must be at most %d characters", ErrInvalidInput, maxUserNameLength)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: userName cannot contain spaces", ErrInvalidInput)
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
