package handler

import (
	"errors"
	"net/http"

	"tush00nka/bbbab_conversations/internal/model"
	"tush00nka/bbbab_conversations/internal/pkg/auth"
	"tush00nka/bbbab_conversations/internal/service"
)

// @Summary Conversation members
// @Description List the members of a conversation the caller belongs to
// @ID get-conversation-members
// @Tags member
// @Produce json
// @Security BearerAuth
// @Param conversationId path int true "Conversation ID"
// @Success 200 {array} model.PublicUser
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /conversation/{conversationId}/members [get]
func (h *ConversationHandler) GetConversationMembers(r *http.Request, caller auth.Identity) Result {
	conversation, res, allowed := h.gate.enter(r, caller, "GetConversationMembers", MsgErrorFindingConvoMembers)
	if !allowed {
		return res
	}

	users, err := h.conversations.Users(r.Context(), conversation.ID)
	if err != nil {
		return internalError(h.log, "GetConversationMembers", err, MsgErrorFindingConvoMembers)
	}

	return ok(http.StatusOK, model.PublicUsers(users))
}

type AddMemberRequest struct {
	UserID uint `json:"userId" example:"2"`
}

// @Summary Add member
// @Description Add a user to a conversation the caller belongs to
// @ID add-conversation-member
// @Tags member
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conversationId path int true "Conversation ID"
// @Param memberData body AddMemberRequest true "User to add"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /conversation/{conversationId}/members [post]
func (h *ConversationHandler) AddConversationMember(r *http.Request, caller auth.Identity) Result {
	conversation, res, allowed := h.gate.enter(r, caller, "AddConversationMember", MsgErrorAddingUserToConvo)
	if !allowed {
		return res
	}

	var request AddMemberRequest
	if err := decode(r, &request); err != nil {
		return fail(http.StatusBadRequest, MsgInvalidRequest)
	}
	if request.UserID == 0 {
		return fail(http.StatusBadRequest, MsgInvalidUserID)
	}

	err := h.conversations.AddUser(r.Context(), conversation.ID, request.UserID)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return fail(http.StatusBadRequest, MsgUserDoesNotExist)
	case errors.Is(err, service.ErrAlreadyMember):
		return fail(http.StatusConflict, MsgUserAlreadyInConvo)
	case err != nil:
		return internalError(h.log, "AddConversationMember", err, MsgErrorAddingUserToConvo)
	}

	return ok(http.StatusCreated, "User added to conversation")
}

// @Summary Remove member
// @Description Remove a member from a conversation. The caller must be a member; removing oneself is allowed.
// @ID remove-conversation-member
// @Tags member
// @Produce json
// @Security BearerAuth
// @Param conversationId path int true "Conversation ID"
// @Param userId path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /conversation/{conversationId}/members/{userId} [delete]
func (h *ConversationHandler) RemoveConversationMember(r *http.Request, caller auth.Identity) Result {
	if !caller.Authenticated() {
		return fail(http.StatusUnauthorized, MsgUnauthenticated)
	}

	conversationID, valid := pathID(r, "conversationId")
	if !valid {
		return fail(http.StatusBadRequest, MsgInvalidConvoID)
	}
	userID, valid := pathID(r, "userId")
	if !valid {
		return fail(http.StatusBadRequest, MsgInvalidUserID)
	}

	conversation, res, allowed := h.gate.authorize(r, caller, conversationID, "RemoveConversationMember", MsgErrorRemovingUserFromConvo, MsgUserNotInConvo)
	if !allowed {
		return res
	}

	member, err := h.conversations.HasUser(r.Context(), conversation.ID, userID)
	if err != nil {
		return internalError(h.log, "RemoveConversationMember", err, MsgErrorRemovingUserFromConvo)
	}
	if !member {
		return fail(http.StatusBadRequest, MsgUserNotInConvo)
	}

	if err := h.conversations.RemoveUser(r.Context(), conversation.ID, userID); err != nil {
		return internalError(h.log, "RemoveConversationMember", err, MsgErrorRemovingUserFromConvo)
	}

	return ok(http.StatusOK, "User removed from conversation")
}
