package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tush00nka/bbbab_conversations/internal/model"
	"tush00nka/bbbab_conversations/internal/repository"
)

func TestMessageCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	c, err := f.conversations.Create(ctx, "team", alice.ID, nil)
	require.NoError(t, err)

	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	f.messages.(*messageService).now = func() time.Time { return fixed }

	m, err := f.messages.Create(ctx, c.ID, alice.ID, "  hello  ")
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, "hello", m.Body)
	assert.Equal(t, fixed, m.Timestamp)

	assert.Contains(t, f.publisher.subjects, "conversation.1.message.created")
	assert.Contains(t, f.cache.invalidated, c.ID)
}

func TestMessageCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	c, err := f.conversations.Create(ctx, "team", alice.ID, nil)
	require.NoError(t, err)

	_, err = f.messages.Create(ctx, c.ID, alice.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.messages.Create(ctx, c.ID, alice.ID, strings.Repeat("x", maxMessageLength+1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.messages.Create(ctx, 999, alice.ID, "hi")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = f.messages.Create(ctx, c.ID, 0, "hi")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMessageListUsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	c, err := f.conversations.Create(ctx, "team", alice.ID, nil)
	require.NoError(t, err)

	for _, body := range []string{"one", "two"} {
		_, err := f.messages.Create(ctx, c.ID, alice.ID, body)
		require.NoError(t, err)
	}

	msgs, err := f.messages.ListByConversation(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Body)
	require.Contains(t, f.cache.data, c.ID)

	// a cached list is served without touching the store
	f.cache.data[c.ID] = []model.Message{{ID: 99, ConversationID: c.ID, Body: "cached"}}
	msgs, err = f.messages.ListByConversation(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "cached", msgs[0].Body)

	// posting clears it again
	_, err = f.messages.Create(ctx, c.ID, alice.ID, "three")
	require.NoError(t, err)
	msgs, err = f.messages.ListByConversation(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 3)
}

func TestMessageListWithoutCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	c, err := f.conversations.Create(ctx, "team", alice.ID, nil)
	require.NoError(t, err)

	svc := NewMessageService(f.store, nil, nil, nullLogger())
	_, err = svc.Create(ctx, c.ID, alice.ID, "hi")
	require.NoError(t, err)

	msgs, err := svc.ListByConversation(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	empty, err := svc.ListByConversation(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMessageFindByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	c, err := f.conversations.Create(ctx, "team", alice.ID, nil)
	require.NoError(t, err)
	m, err := f.messages.Create(ctx, c.ID, alice.ID, "hi")
	require.NoError(t, err)

	got, err := f.messages.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Body)

	_, err = f.messages.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

// interleavingStore runs afterRead once, right after the message history
// has been loaded and before it reaches the cache.
type interleavingStore struct {
	*repository.MemoryStore
	afterRead func()
}

func (s *interleavingStore) GetMessagesByConversationID(ctx context.Context, conversationID uint) ([]model.Message, error) {
	messages, err := s.MemoryStore.GetMessagesByConversationID(ctx, conversationID)
	if s.afterRead != nil {
		fn := s.afterRead
		s.afterRead = nil
		fn()
	}
	return messages, err
}

func TestMessageListDoesNotCacheStaleHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "alice")
	c, err := f.conversations.Create(ctx, "team", alice.ID, nil)
	require.NoError(t, err)
	_, err = f.messages.Create(ctx, c.ID, alice.ID, "first")
	require.NoError(t, err)

	store := &interleavingStore{MemoryStore: f.store}
	store.afterRead = func() {
		_, err := f.messages.Create(ctx, c.ID, alice.ID, "second")
		require.NoError(t, err)
	}
	reader := NewMessageService(store, f.cache, nil, nullLogger())

	msgs, err := reader.ListByConversation(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.NotContains(t, f.cache.data, c.ID)

	msgs, err = reader.ListByConversation(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "second", msgs[1].Body)
}
