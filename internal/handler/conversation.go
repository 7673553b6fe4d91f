package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"tush00nka/bbbab_conversations/internal/model"
	"tush00nka/bbbab_conversations/internal/pkg/auth"
	"tush00nka/bbbab_conversations/internal/pkg/metrics"
	"tush00nka/bbbab_conversations/internal/service"
)

type ConversationHandler struct {
	conversations service.ConversationService
	messages      service.MessageService
	gate          conversationGate
	log           logrus.FieldLogger
}

func NewConversationHandler(
	conversations service.ConversationService,
	messages service.MessageService,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		messages:      messages,
		gate:          conversationGate{conversations: conversations, metrics: m, log: log},
		log:           log,
	}
}

func (h *ConversationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/conversation", Serve(h.CreateConversation)).Methods("POST", "OPTIONS")
	router.HandleFunc("/conversation/{conversationId}", Serve(h.GetConversation)).Methods("GET", "OPTIONS")
	router.HandleFunc("/conversation/{conversationId}", Serve(h.UpdateConversation)).Methods("PATCH", "OPTIONS")
	router.HandleFunc("/conversation/{conversationId}", Serve(h.DeleteConversation)).Methods("DELETE", "OPTIONS")

	router.HandleFunc("/conversation/{conversationId}/members", Serve(h.GetConversationMembers)).Methods("GET", "OPTIONS")
	router.HandleFunc("/conversation/{conversationId}/members", Serve(h.AddConversationMember)).Methods("POST", "OPTIONS")
	router.HandleFunc("/conversation/{conversationId}/members/{userId}", Serve(h.RemoveConversationMember)).Methods("DELETE", "OPTIONS")

	router.HandleFunc("/conversation/{conversationId}/messages", Serve(h.GetConversationMessages)).Methods("GET", "OPTIONS")
	router.HandleFunc("/conversation/{conversationId}/messages", Serve(h.CreateMessage)).Methods("POST", "OPTIONS")
}

type CreateConversationRequest struct {
	Name      string `json:"name" example:"weekend plans"`
	MemberIDs []uint `json:"memberIds"`
}

// @Summary Create conversation
// @Description Create a conversation. The caller always becomes a member.
// @ID create-conversation
// @Tags conversation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conversationData body CreateConversationRequest true "Conversation data"
// @Success 201 {object} model.Conversation
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /conversation [post]
func (h *ConversationHandler) CreateConversation(r *http.Request, caller auth.Identity) Result {
	if !caller.Authenticated() {
		return fail(http.StatusUnauthorized, MsgUnauthenticated)
	}

	var request CreateConversationRequest
	if err := decode(r, &request); err != nil {
		return fail(http.StatusBadRequest, MsgInvalidRequest)
	}

	conversation, err := h.conversations.Create(r.Context(), request.Name, caller.UserID, request.MemberIDs)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return fail(http.StatusBadRequest, MsgUserDoesNotExist)
	case errors.Is(err, service.ErrInvalidInput):
		return fail(http.StatusBadRequest, err.Error())
	case err != nil:
		return internalError(h.log, "CreateConversation", err, MsgErrorCreatingConvo)
	}

	return ok(http.StatusCreated, conversation)
}

// @Summary Get conversation
// @Description Get a conversation the caller is a member of
// @ID get-conversation
// @Tags conversation
// @Produce json
// @Security BearerAuth
// @Param conversationId path int true "Conversation ID"
// @Success 200 {object} model.Conversation
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /conversation/{conversationId} [get]
func (h *ConversationHandler) GetConversation(r *http.Request, caller auth.Identity) Result {
	conversation, res, allowed := h.gate.enter(r, caller, "GetConversation", MsgErrorFindingConvo)
	if !allowed {
		return res
	}
	return ok(http.StatusOK, conversation)
}

// @Summary Rename conversation
// @ID update-conversation
// @Tags conversation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conversationId path int true "Conversation ID"
// @Param updateData body model.ConversationUpdate true "Fields to change"
// @Success 200 {object} model.Conversation
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /conversation/{conversationId} [patch]
func (h *ConversationHandler) UpdateConversation(r *http.Request, caller auth.Identity) Result {
	conversation, res, allowed := h.gate.enter(r, caller, "UpdateConversation", MsgErrorUpdatingConvo)
	if !allowed {
		return res
	}

	var request model.ConversationUpdate
	if err := decode(r, &request); err != nil {
		return fail(http.StatusBadRequest, MsgInvalidRequest)
	}

	updated, err := h.conversations.Update(r.Context(), conversation.ID, request)
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		return fail(http.StatusBadRequest, MsgConvoDoesNotExist)
	case errors.Is(err, service.ErrInvalidInput):
		return fail(http.StatusBadRequest, err.Error())
	case err != nil:
		return internalError(h.log, "UpdateConversation", err, MsgErrorUpdatingConvo)
	}

	return ok(http.StatusOK, updated)
}

// @Summary Delete conversation
// @Description Delete a conversation with all of its messages and memberships
// @ID delete-conversation
// @Tags conversation
// @Produce json
// @Security BearerAuth
// @Param conversationId path int true "Conversation ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /conversation/{conversationId} [delete]
func (h *ConversationHandler) DeleteConversation(r *http.Request, caller auth.Identity) Result {
	conversation, res, allowed := h.gate.enter(r, caller, "DeleteConversation", MsgErrorDeletingConvo)
	if !allowed {
		return res
	}

	err := h.conversations.Delete(r.Context(), conversation.ID)
	if errors.Is(err, service.ErrConversationNotFound) {
		return fail(http.StatusBadRequest, MsgConvoDoesNotExist)
	}
	if err != nil {
		return internalError(h.log, "DeleteConversation", err, MsgErrorDeletingConvo)
	}

	return ok(http.StatusOK, "Conversation deleted")
}
