package service

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"tush00nka/bbbab_conversations/internal/model"
	"tush00nka/bbbab_conversations/internal/pkg/events"
	"tush00nka/bbbab_conversations/internal/repository"
)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() {}

type fakeCache struct {
	data        map[uint][]model.Message
	versions    map[uint]int64
	gets        int
	invalidated []uint
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[uint][]model.Message), versions: make(map[uint]int64)}
}

func (c *fakeCache) GetMessages(_ context.Context, id uint) ([]model.Message, bool, error) {
	c.gets++
	msgs, ok := c.data[id]
	return msgs, ok, nil
}

func (c *fakeCache) Version(_ context.Context, id uint) (int64, error) {
	return c.versions[id], nil
}

func (c *fakeCache) SetMessages(_ context.Context, id uint, version int64, msgs []model.Message) error {
	if c.versions[id] != version {
		return repository.ErrStaleCache
	}
	if len(msgs) == 0 {
		delete(c.data, id)
		return nil
	}
	c.data[id] = msgs
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, id uint) error {
	c.invalidated = append(c.invalidated, id)
	c.versions[id]++
	delete(c.data, id)
	return nil
}

func nullLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

type fixture struct {
	store         *repository.MemoryStore
	publisher     *recordingPublisher
	cache         *fakeCache
	users         UserService
	conversations ConversationService
	messages      MessageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	publisher := &recordingPublisher{}
	cache := newFakeCache()
	log := nullLogger()

	return &fixture{
		store:         store,
		publisher:     publisher,
		cache:         cache,
		users:         NewUserService(store, publisher, log),
		conversations: NewConversationService(store, NewAccessGate(store), cache, publisher, log),
		messages:      NewMessageService(store, cache, publisher, log),
	}
}

func (f *fixture) createUser(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), model.UserConfig{
		UserName: name,
		Password: "password-" + name,
		Email:    name + "@example.com",
	})
	require.NoError(t, err)
	return u
}
