package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tush00nka/bbbab_conversations/internal/model"
	"tush00nka/bbbab_conversations/internal/pkg/auth"
	"tush00nka/bbbab_conversations/internal/service"
)

func TestCreateConversation(t *testing.T) {
	s := newTestServer(t)
	a := s.createUser(t, "alice")
	b := s.createUser(t, "bob")

	rr, env := s.do(t, http.MethodPost, "/api/conversation", a.ID, CreateConversationRequest{Name: "team", MemberIDs: []uint{b.ID}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	c := decodeData[model.Conversation](t, env)
	assert.Equal(t, "team", c.Name)

	users, err := s.conversations.Users(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	rr, env = s.do(t, http.MethodPost, "/api/conversation", a.ID, CreateConversationRequest{Name: "team", MemberIDs: []uint{404}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, MsgUserDoesNotExist, env.Error)

	rr, _ = s.do(t, http.MethodPost, "/api/conversation", a.ID, CreateConversationRequest{Name: " "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, env = s.do(t, http.MethodPost, "/api/conversation", 0, CreateConversationRequest{Name: "team"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, MsgUnauthenticated, env.Error)
}

func TestGetConversation(t *testing.T) {
	s := newTestServer(t)
	a := s.createUser(t, "alice")
	x := s.createUser(t, "xavier")
	c := s.createConversation(t, "team", a)
	path := fmt.Sprintf("/api/conversation/%d", c.ID)

	rr, env := s.do(t, http.MethodGet, path, a.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, *c, decodeData[model.Conversation](t, env))

	rr, _ = s.do(t, http.MethodGet, path, x.ID, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, env = s.do(t, http.MethodGet, "/api/conversation/77", a.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, MsgConvoDoesNotExist, env.Error)
}

func TestUpdateConversation(t *testing.T) {
	s := newTestServer(t)
	a := s.createUser(t, "alice")
	x := s.createUser(t, "xavier")
	c := s.createConversation(t, "team", a)
	path := fmt.Sprintf("/api/conversation/%d", c.ID)

	rr, env := s.do(t, http.MethodPatch, path, a.ID, map[string]string{"name": "renamed"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "renamed", decodeData[model.Conversation](t, env).Name)

	rr, _ = s.do(t, http.MethodPatch, path, x.ID, map[string]string{"name": "hijacked"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// a non-member never learns that the body was malformed
	rr, _ = s.do(t, http.MethodPatch, path, x.ID, "{")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, env = s.do(t, http.MethodPatch, path, a.ID, "{")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, MsgInvalidRequest, env.Error)

	stored, err := s.conversations.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", stored.Name)
}

func TestDeleteConversation(t *testing.T) {
	s := newTestServer(t)
	a := s.createUser(t, "alice")
	b := s.createUser(t, "bob")
	c := s.createConversation(t, "team", a, b)
	_, err := s.messages.Create(context.Background(), c.ID, a.ID, "hello")
	require.NoError(t, err)
	path := fmt.Sprintf("/api/conversation/%d", c.ID)

	rr, _ := s.do(t, http.MethodDelete, path, a.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	ctx := context.Background()
	msgs, err := s.store.GetMessagesByConversationID(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	users, err := s.store.GetUsersByConversationID(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, users)

	rr, env := s.do(t, http.MethodDelete, path, b.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, MsgConvoDoesNotExist, env.Error)
}

type brokenConversations struct {
	service.ConversationService
}

func (brokenConversations) FindByID(context.Context, uint) (*model.Conversation, error) {
	return nil, errors.New("connection reset")
}

func TestInternalErrorIsLoggedNotLeaked(t *testing.T) {
	log, hook := test.NewNullLogger()
	h := NewConversationHandler(brokenConversations{}, nil, nil, log)

	router := mux.NewRouter()
	h.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/conversation/1/members", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: 1}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"ERROR_FINDING_CONVO_MEMBERS"}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "connection reset")

	entries := errorEntries(hook)
	require.Len(t, entries, 1)
	assert.Equal(t, "GetConversationMembers", entries[0].Data["endpoint"])
}

func TestEndpointTakesExplicitIdentity(t *testing.T) {
	s := newTestServer(t)
	a := s.createUser(t, "alice")
	c := s.createConversation(t, "team", a)
	h := NewConversationHandler(s.conversations, s.messages, nil, s.log)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"conversationId": fmt.Sprint(c.ID)})

	res := h.GetConversationMembers(req, auth.Identity{UserID: a.ID})
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, []model.PublicUser{a.Public()}, res.Body.Data)

	res = h.GetConversationMembers(req, auth.Identity{})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, MsgUnauthenticated, res.Body.Error)
}
