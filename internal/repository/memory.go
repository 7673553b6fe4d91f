package repository

import (
	"context"
	"sort"
	"sync"

	"tush00nka/bbbab_conversations/internal/model"
)

// MemoryStore is an in-process Store. It backs the tests and
// STORAGE_DRIVER=memory. Ids are never reused after a delete.
type MemoryStore struct {
	mu sync.RWMutex

	users         map[uint]model.User
	conversations map[uint]model.Conversation
	members       map[model.ConversationUser]struct{}
	messages      map[uint]model.Message

	lastUserID         uint
	lastConversationID uint
	lastMessageID      uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[uint]model.User),
		conversations: make(map[uint]model.Conversation),
		members:       make(map[model.ConversationUser]struct{}),
		messages:      make(map[uint]model.Message),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) InsertUser(_ context.Context, user *model.User) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.UserName == user.UserName {
			return 0, ErrDuplicate
		}
	}

	s.lastUserID++
	user.ID = s.lastUserID
	s.users[user.ID] = *user
	return user.ID, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, userID uint) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByUserName(_ context.Context, userName string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.UserName == userName {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetUsersByConversationID(_ context.Context, conversationID uint) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.User, 0)
	for m := range s.members {
		if m.ConversationID != conversationID {
			continue
		}
		if u, ok := s.users[m.UserID]; ok {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, userID uint, fields model.UserFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	fields.Apply(&u)
	s.users[userID] = u
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, userID)
	return nil
}

func (s *MemoryStore) InsertConversation(_ context.Context, conversation *model.Conversation) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastConversationID++
	conversation.ID = s.lastConversationID
	s.conversations[conversation.ID] = *conversation
	return conversation.ID, nil
}

func (s *MemoryStore) GetConversationByID(_ context.Context, conversationID uint) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *MemoryStore) GetConversationsByUserID(_ context.Context, userID uint) ([]model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conversations := make([]model.Conversation, 0)
	for m := range s.members {
		if m.UserID != userID {
			continue
		}
		if c, ok := s.conversations[m.ConversationID]; ok {
			conversations = append(conversations, c)
		}
	}
	sort.Slice(conversations, func(i, j int) bool { return conversations[i].ID < conversations[j].ID })
	return conversations, nil
}

func (s *MemoryStore) UpdateConversation(_ context.Context, conversationID uint, fields model.ConversationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return nil
	}
	if fields.Name != nil {
		c.Name = *fields.Name
	}
	s.conversations[conversationID] = c
	return nil
}

func (s *MemoryStore) DeleteConversation(_ context.Context, conversationID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, conversationID)
	for id, m := range s.messages {
		if m.ConversationID == conversationID {
			delete(s.messages, id)
		}
	}
	for m := range s.members {
		if m.ConversationID == conversationID {
			delete(s.members, m)
		}
	}
	return nil
}

func (s *MemoryStore) InsertConversationUser(_ context.Context, conversationID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.ConversationUser{ConversationID: conversationID, UserID: userID}
	if _, ok := s.members[key]; ok {
		return ErrDuplicate
	}
	s.members[key] = struct{}{}
	return nil
}

func (s *MemoryStore) HasConversationUser(_ context.Context, conversationID, userID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.members[model.ConversationUser{ConversationID: conversationID, UserID: userID}]
	return ok, nil
}

func (s *MemoryStore) DeleteConversationUser(_ context.Context, conversationID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.members, model.ConversationUser{ConversationID: conversationID, UserID: userID})
	return nil
}

func (s *MemoryStore) DeleteConversationUsersByUserID(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for m := range s.members {
		if m.UserID == userID {
			delete(s.members, m)
		}
	}
	return nil
}

func (s *MemoryStore) InsertMessage(_ context.Context, message *model.Message) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastMessageID++
	message.ID = s.lastMessageID
	s.messages[message.ID] = *message
	return message.ID, nil
}

func (s *MemoryStore) GetMessageByID(_ context.Context, messageID uint) (*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[messageID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *MemoryStore) GetMessagesByConversationID(_ context.Context, conversationID uint) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]model.Message, 0)
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			messages = append(messages, m)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages, nil
}
