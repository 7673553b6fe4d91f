package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"tush00nka/bbbab_conversations/internal/model"
	"tush00nka/bbbab_conversations/internal/pkg/auth"
	"tush00nka/bbbab_conversations/internal/pkg/metrics"
	"tush00nka/bbbab_conversations/internal/repository"
	"tush00nka/bbbab_conversations/internal/service"
	"tush00nka/bbbab_conversations/internal/ws"
)

type envelope struct {
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

type testServer struct {
	router        *mux.Router
	tokens        *auth.TokenManager
	store         *repository.MemoryStore
	users         service.UserService
	conversations service.ConversationService
	messages      service.MessageService
	metrics       *metrics.Metrics
	hub           *ws.Hub
	log           *logrus.Logger
	hook          *test.Hook
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith builds the API over a MemoryStore. attachments may be nil,
// in which case the attachment routes are not registered.
func newTestServerWith(t *testing.T, attachments service.AttachmentService) *testServer {
	t.Helper()

	log, hook := test.NewNullLogger()
	tokens, err := auth.NewTokenManager("handler-test-key", time.Hour)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	m := metrics.New()
	hub := ws.NewHub(log)
	t.Cleanup(hub.Close)
	users := service.NewUserService(store, hub, log)
	conversations := service.NewConversationService(store, service.NewAccessGate(store), nil, hub, log)
	messages := service.NewMessageService(store, nil, hub, log)

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware(tokens, log))
	NewUserHandler(users, conversations, log).RegisterRoutes(api)
	NewConversationHandler(conversations, messages, m, log).RegisterRoutes(api)
	NewStreamHandler(hub, ws.NewUpgrader([]string{"*"}), conversations, m, log).RegisterRoutes(api)
	if attachments != nil {
		NewAttachmentHandler(attachments, conversations, messages, m, log).RegisterRoutes(api)
	}
	router.HandleFunc("/ping", Serve(Ping(nil))).Methods("GET")

	return &testServer{
		router:        router,
		tokens:        tokens,
		store:         store,
		users:         users,
		conversations: conversations,
		messages:      messages,
		metrics:       m,
		hub:           hub,
		log:           log,
		hook:          hook,
	}
}

func (s *testServer) createUser(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := s.users.Create(context.Background(), model.UserConfig{
		UserName:  name,
		Password:  "password-" + name,
		FirstName: name,
		Email:     name + "@example.com",
	})
	require.NoError(t, err)
	return u
}

func (s *testServer) createConversation(t *testing.T, name string, creator *model.User, members ...*model.User) *model.Conversation {
	t.Helper()
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	c, err := s.conversations.Create(context.Background(), name, creator.ID, ids)
	require.NoError(t, err)
	return c
}

// do sends a request as the given user. userID 0 sends no Authorization header.
func (s *testServer) do(t *testing.T, method, path string, userID uint, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		if raw, isString := body.(string); isString {
			reader = bytes.NewBufferString(raw)
		} else {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, err := s.tokens.GenerateToken(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func memberIDs(users []model.PublicUser) []uint {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func errorEntries(hook *test.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			out = append(out, e)
		}
	}
	return out
}
