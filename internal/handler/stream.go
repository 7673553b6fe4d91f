package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tush00nka/bbbab_conversations/internal/pkg/auth"
	"tush00nka/bbbab_conversations/internal/pkg/httputils"
	"tush00nka/bbbab_conversations/internal/pkg/metrics"
	"tush00nka/bbbab_conversations/internal/service"
	"tush00nka/bbbab_conversations/internal/ws"
)

const MsgRoomFull = "ROOM_FULL"

type StreamHandler struct {
	hub      *ws.Hub
	upgrader *websocket.Upgrader
	gate     conversationGate
	log      logrus.FieldLogger
}

func NewStreamHandler(
	hub *ws.Hub,
	upgrader *websocket.Upgrader,
	conversations service.ConversationService,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) *StreamHandler {
	return &StreamHandler{
		hub:      hub,
		upgrader: upgrader,
		gate:     conversationGate{conversations: conversations, metrics: m, log: log},
		log:      log,
	}
}

func (h *StreamHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/conversation/{conversationId}/stream", h.StreamConversation).Methods("GET")
}

// @Summary Conversation events
// @Description Upgrade to a WebSocket that receives the conversation's events (message.created, member.added, member.removed, conversation.renamed, conversation.deleted). The socket is closed when the caller leaves or is removed.
// @ID stream-conversation
// @Tags conversation
// @Security BearerAuth
// @Param conversationId path int true "Conversation ID"
// @Success 101
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /conversation/{conversationId}/stream [get]
func (h *StreamHandler) StreamConversation(w http.ResponseWriter, r *http.Request) {
	caller := auth.IdentityFromContext(r.Context())
	conversation, res, allowed := h.gate.enter(r, caller, "StreamConversation", MsgErrorFindingConvo)
	if !allowed {
		httputils.ResponseJSON(w, res.Status, res.Body)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	client := ws.NewClient(r.Context(), conn, caller.UserID, conversation.ID, h.log)
	if err := h.hub.Join(client); err != nil {
		if errors.Is(err, ws.ErrRoomFull) {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, MsgRoomFull))
		}
		client.Close()
		return
	}
	defer h.hub.Leave(client)

	// участника могли исключить между проверкой и входом в комнату,
	// тогда его member.removed уже прошел мимо хаба
	member, err := h.gate.conversations.HasUser(r.Context(), conversation.ID, caller.UserID)
	if err != nil || !member {
		if err != nil {
			h.log.WithError(err).WithField("endpoint", "StreamConversation").Error("failed to recheck membership")
		}
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, MsgUnauthorized))
		client.Close()
		return
	}

	go func() {
		if err := client.WritePump(); err != nil {
			h.log.WithError(err).Debug("websocket write failed")
		}
	}()
	client.ReadPump()
}
