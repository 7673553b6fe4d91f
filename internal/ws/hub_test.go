package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tush00nka/bbbab_conversations/internal/pkg/events"
)

// hubServer upgrades every request and joins it to the hub as
// ?user=<id>&conversation=<id>.
func hubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	log, _ := test.NewNullLogger()
	upgrader := NewUpgrader([]string{"*"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := strconv.ParseUint(r.URL.Query().Get("user"), 10, 0)
		conversationID, _ := strconv.ParseUint(r.URL.Query().Get("conversation"), 10, 0)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(r.Context(), conn, uint(userID), uint(conversationID), log)
		if err := hub.Join(client); err != nil {
			client.Close()
			return
		}
		defer hub.Leave(client)

		go client.WritePump()
		client.ReadPump()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func connect(t *testing.T, srv *httptest.Server, userID, conversationID uint) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/?user=" + strconv.Itoa(int(userID)) + "&conversation=" + strconv.Itoa(int(conversationID))
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func readOut(t *testing.T, conn *websocket.Conn) (OutEvent, error) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return OutEvent{}, err
	}
	var ev OutEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev, nil
}

func newTestHub() *Hub {
	log, _ := test.NewNullLogger()
	return NewHub(log)
}

func TestHubPublishesToRoomOnly(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()
	srv := hubServer(t, hub)

	inRoom := connect(t, srv, 1, 10)
	otherRoom := connect(t, srv, 2, 20)
	waitFor(t, func() bool { return hub.Stats().Connections == 2 })

	err := hub.Publish(context.Background(), "conversation.10.message.created", events.Event{
		Type:           events.TypeMessageCreated,
		ConversationID: 10,
		UserID:         1,
		Data:           map[string]string{"body": "hi"},
	})
	require.NoError(t, err)

	ev, err := readOut(t, inRoom)
	require.NoError(t, err)
	assert.Equal(t, events.TypeMessageCreated, ev.Type)
	assert.Equal(t, uint(10), ev.ConversationID)

	require.NoError(t, otherRoom.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = otherRoom.ReadMessage()
	assert.Error(t, err)

	stats := hub.Stats()
	assert.Equal(t, 2, stats.Rooms)
	assert.Equal(t, int64(1), stats.EventsSent)
}

func TestHubPublishWithoutListeners(t *testing.T) {
	hub := newTestHub()
	assert.NoError(t, hub.Publish(context.Background(), "x", events.Event{Type: events.TypeMessageCreated, ConversationID: 1}))
	assert.Equal(t, HubStats{}, hub.Stats())
}

func TestHubReplacesConnectionOfSameUser(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()
	srv := hubServer(t, hub)

	first := connect(t, srv, 1, 10)
	waitFor(t, func() bool { return hub.Stats().Connections == 1 })
	second := connect(t, srv, 1, 10)

	_, err := readOut(t, first)
	assert.Error(t, err)

	waitFor(t, func() bool { return hub.Stats().Connections == 1 && hub.Stats().Rooms == 1 })
	require.NoError(t, hub.Publish(context.Background(), "x", events.Event{Type: events.TypeMemberAdded, ConversationID: 10}))
	ev, err := readOut(t, second)
	require.NoError(t, err)
	assert.Equal(t, events.TypeMemberAdded, ev.Type)
}

func TestHubDisconnectsRemovedMember(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()
	srv := hubServer(t, hub)

	stays := connect(t, srv, 1, 10)
	removed := connect(t, srv, 2, 10)
	waitFor(t, func() bool { return hub.Stats().Connections == 2 })

	require.NoError(t, hub.Publish(context.Background(), "x", events.Event{Type: events.TypeMemberRemoved, ConversationID: 10, UserID: 2}))

	for _, conn := range []*websocket.Conn{stays, removed} {
		ev, err := readOut(t, conn)
		require.NoError(t, err)
		assert.Equal(t, uint(2), ev.UserID)
	}

	_, err := readOut(t, removed)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "%v", err)

	waitFor(t, func() bool { return hub.Stats().Connections == 1 })
}

func TestHubClosesRoomOnConversationDeleted(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()
	srv := hubServer(t, hub)

	a := connect(t, srv, 1, 10)
	b := connect(t, srv, 2, 10)
	waitFor(t, func() bool { return hub.Stats().Connections == 2 })

	require.NoError(t, hub.Publish(context.Background(), "x", events.Event{Type: events.TypeConversationDeleted, ConversationID: 10}))

	for _, conn := range []*websocket.Conn{a, b} {
		ev, err := readOut(t, conn)
		require.NoError(t, err)
		assert.Equal(t, events.TypeConversationDeleted, ev.Type)
		_, err = readOut(t, conn)
		assert.Error(t, err)
	}

	waitFor(t, func() bool { return hub.Stats().Rooms == 0 })
}

func TestHubRoomLimit(t *testing.T) {
	hub := newTestHub()
	hub.maxRoomSize = 1
	defer hub.Close()
	srv := hubServer(t, hub)

	connect(t, srv, 1, 10)
	waitFor(t, func() bool { return hub.Stats().Connections == 1 })

	rejected := connect(t, srv, 2, 10)
	_, err := readOut(t, rejected)
	assert.Error(t, err)
	assert.Equal(t, int64(1), hub.Stats().Connections)
}

func TestUpgraderOrigins(t *testing.T) {
	u := NewUpgrader([]string{"https://app.example.com"})

	check := func(origin string) bool {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return u.CheckOrigin(r)
	}

	assert.True(t, check("https://app.example.com"))
	assert.False(t, check("https://evil.example.com"))
	assert.True(t, check(""))
	assert.True(t, NewUpgrader([]string{"*"}).CheckOrigin(httptest.NewRequest(http.MethodGet, "/", nil)))
}
