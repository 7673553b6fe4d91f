package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"tush00nka/bbbab_conversations/internal/model"
	"tush00nka/bbbab_conversations/internal/pkg/auth"
	"tush00nka/bbbab_conversations/internal/service"
)

type UserHandler struct {
	users         service.UserService
	conversations service.ConversationService
	log           logrus.FieldLogger
}

func NewUserHandler(users service.UserService, conversations service.ConversationService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{users: users, conversations: conversations, log: log}
}

func (h *UserHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/user", Serve(h.RegisterUser)).Methods("POST", "OPTIONS")
	router.HandleFunc("/user", Serve(h.GetCurrentUser)).Methods("GET", "OPTIONS")
	router.HandleFunc("/user", Serve(h.UpdateUser)).Methods("PATCH", "OPTIONS")
	router.HandleFunc("/user", Serve(h.DeleteUser)).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/user/conversations", Serve(h.GetUserConversations)).Methods("GET", "OPTIONS")
	router.HandleFunc("/user/{userId}", Serve(h.GetUser)).Methods("GET", "OPTIONS")
}

type RegisterRequest struct {
	UserName  string `json:"userName" example:"alice"`
	Password  string `json:"password" example:"correct-horse"`
	FirstName string `json:"firstName" example:"Alice"`
	LastName  string `json:"lastName" example:"Liddell"`
	Email     string `json:"email" example:"alice@example.com"`
}

// @Summary Register
// @Description Create a user account
// @ID register-user
// @Tags user
// @Accept json
// @Produce json
// @Param registerData body RegisterRequest true "Register data"
// @Success 201 {object} model.PublicUser
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /user [post]
func (h *UserHandler) RegisterUser(r *http.Request, _ auth.Identity) Result {
	var request RegisterRequest
	if err := decode(r, &request); err != nil {
		return fail(http.StatusBadRequest, MsgInvalidRequest)
	}

	user, err := h.users.Create(r.Context(), model.UserConfig{
		UserName:  request.UserName,
		Password:  request.Password,
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Email:     request.Email,
	})
	switch {
	case errors.Is(err, service.ErrUserNameTaken):
		return fail(http.StatusConflict, MsgUserNameTaken)
	case errors.Is(err, service.ErrInvalidInput):
		return fail(http.StatusBadRequest, err.Error())
	case err != nil:
		return internalError(h.log, "RegisterUser", err, MsgErrorCreatingUser)
	}

	return ok(http.StatusCreated, user.Public())
}

// @Summary Current user
// @Description Get the authenticated user
// @ID get-current-user
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.PublicUser
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /user [get]
func (h *UserHandler) GetCurrentUser(r *http.Request, caller auth.Identity) Result {
	if !caller.Authenticated() {
		return fail(http.StatusUnauthorized, MsgUnauthenticated)
	}
	return h.findUser(r, caller.UserID, "GetCurrentUser")
}

// @Summary Get user
// @Description Get user by id
// @ID get-user
// @Tags user
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} model.PublicUser
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /user/{userId} [get]
func (h *UserHandler) GetUser(r *http.Request, caller auth.Identity) Result {
	if !caller.Authenticated() {
		return fail(http.StatusUnauthorized, MsgUnauthenticated)
	}

	userID, valid := pathID(r, "userId")
	if !valid {
		return fail(http.StatusBadRequest, MsgInvalidUserID)
	}
	return h.findUser(r, userID, "GetUser")
}

func (h *UserHandler) findUser(r *http.Request, userID uint, endpoint string) Result {
	user, err := h.users.FindByID(r.Context(), userID)
	if errors.Is(err, service.ErrUserNotFound) {
		return fail(http.StatusBadRequest, MsgUserDoesNotExist)
	}
	if err != nil {
		return internalError(h.log, endpoint, err, MsgErrorFindingUser)
	}
	return ok(http.StatusOK, user.Public())
}

// UpdateUserRequest carries the mutable profile fields. ID and UserName are
// only decoded so that an attempt to change them can be rejected.
type UpdateUserRequest struct {
	ID        *uint   `json:"id,omitempty" swaggerignore:"true"`
	UserName  *string `json:"userName,omitempty" swaggerignore:"true"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
}

// @Summary Update user
// @Description Update the authenticated user's profile. id and userName cannot be changed.
// @ID update-user
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param updateData body UpdateUserRequest true "Fields to change"
// @Success 200 {object} model.PublicUser
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /user [patch]
func (h *UserHandler) UpdateUser(r *http.Request, caller auth.Identity) Result {
	if !caller.Authenticated() {
		return fail(http.StatusUnauthorized, MsgUnauthenticated)
	}

	var request UpdateUserRequest
	if err := decode(r, &request); err != nil {
		return fail(http.StatusBadRequest, MsgInvalidRequest)
	}
	if request.ID != nil || request.UserName != nil {
		return fail(http.StatusBadRequest, MsgImmutableField)
	}

	user, err := h.users.Update(r.Context(), caller.UserID, model.UserUpdate{
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Email:     request.Email,
		Password:  request.Password,
	})
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return fail(http.StatusBadRequest, MsgUserDoesNotExist)
	case errors.Is(err, service.ErrInvalidInput):
		return fail(http.StatusBadRequest, err.Error())
	case err != nil:
		return internalError(h.log, "UpdateUser", err, MsgErrorUpdatingUser)
	}

	return ok(http.StatusOK, user.Public())
}

// @Summary Delete user
// @Description Delete the authenticated user and all of their memberships
// @ID delete-user
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /user [delete]
func (h *UserHandler) DeleteUser(r *http.Request, caller auth.Identity) Result {
	if !caller.Authenticated() {
		return fail(http.StatusUnauthorized, MsgUnauthenticated)
	}

	err := h.users.Delete(r.Context(), caller.UserID)
	if errors.Is(err, service.ErrUserNotFound) {
		return fail(http.StatusBadRequest, MsgUserDoesNotExist)
	}
	if err != nil {
		return internalError(h.log, "DeleteUser", err, MsgErrorDeletingUser)
	}

	return ok(http.StatusOK, "User deleted")
}

// @Summary User conversations
// @Description List the conversations the authenticated user is a member of
// @ID get-user-conversations
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Conversation
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /user/conversations [get]
func (h *UserHandler) GetUserConversations(r *http.Request, caller auth.Identity) Result {
	if !caller.Authenticated() {
		return fail(http.StatusUnauthorized, MsgUnauthenticated)
	}

	conversations, err := h.conversations.ForUser(r.Context(), caller.UserID)
	if err != nil {
		return internalError(h.log, "GetUserConversations", err, MsgErrorFindingConvos)
	}
	if conversations == nil {
		conversations = []model.Conversation{}
	}
	return ok(http.StatusOK, conversations)
}
