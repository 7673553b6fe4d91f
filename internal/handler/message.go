package handler

import (
	"errors"
	"net/http"

	"tush00nka/bbbab_conversations/internal/model"
	"tush00nka/bbbab_conversations/internal/pkg/auth"
	"tush00nka/bbbab_conversations/internal/service"
)

// @Summary Get messages
// @Description Get the message history of a conversation, oldest first
// @ID get-conversation-messages
// @Tags message
// @Produce json
// @Security BearerAuth
// @Param conversationId path int true "Conversation ID"
// @Success 200 {array} model.Message
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /conversation/{conversationId}/messages [get]
func (h *ConversationHandler) GetConversationMessages(r *http.Request, caller auth.Identity) Result {
	conversation, res, allowed := h.gate.enter(r, caller, "GetConversationMessages", MsgErrorFindingMessages)
	if !allowed {
		return res
	}

	messages, err := h.messages.ListByConversation(r.Context(), conversation.ID)
	if err != nil {
		return internalError(h.log, "GetConversationMessages", err, MsgErrorFindingMessages)
	}
	if messages == nil {
		messages = []model.Message{}
	}

	return ok(http.StatusOK, messages)
}

type SendMessageRequest struct {
	Body string `json:"body" example:"hello there"`
}

// @Summary Send message
// @Description Post a message to a conversation the caller belongs to
// @ID create-message
// @Tags message
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conversationId path int true "Conversation ID"
// @Param messageData body SendMessageRequest true "Message data"
// @Success 201 {object} model.Message
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /conversation/{conversationId}/messages [post]
func (h *ConversationHandler) CreateMessage(r *http.Request, caller auth.Identity) Result {
	conversation, res, allowed := h.gate.enter(r, caller, "CreateMessage", MsgErrorCreatingMessage)
	if !allowed {
		return res
	}

	var request SendMessageRequest
	if err := decode(r, &request); err != nil {
		return fail(http.StatusBadRequest, MsgInvalidRequest)
	}

	message, err := h.messages.Create(r.Context(), conversation.ID, caller.UserID, request.Body)
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		return fail(http.StatusBadRequest, MsgConvoDoesNotExist)
	case errors.Is(err, service.ErrInvalidInput):
		return fail(http.StatusBadRequest, err.Error())
	case err != nil:
		return internalError(h.log, "CreateMessage", err, MsgErrorCreatingMessage)
	}

	return ok(http.StatusCreated, message)
}
