package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"tush00nka/bbbab_conversations/api/response"
	"tush00nka/bbbab_conversations/internal/model"
	"tush00nka/bbbab_conversations/internal/pkg/auth"
	"tush00nka/bbbab_conversations/internal/pkg/httputils"
	"tush00nka/bbbab_conversations/internal/pkg/metrics"
	"tush00nka/bbbab_conversations/internal/service"
)

// Result is what every endpoint produces: a status code and the response
// envelope. Endpoints never write to the ResponseWriter themselves.
type Result struct {
	Status int
	Body   response.Envelope
}

func ok(status int, data any) Result {
	return Result{Status: status, Body: response.OK(data)}
}

func fail(status int, message string) Result {
	return Result{Status: status, Body: response.Fail(message)}
}

// Endpoint handles one request on behalf of an explicit caller.
type Endpoint func(r *http.Request, caller auth.Identity) Result

// Serve adapts an Endpoint to net/http. The caller identity is taken from
// the request context populated by auth.Middleware.
func Serve(endpoint Endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := endpoint(r, auth.IdentityFromContext(r.Context()))
		httputils.ResponseJSON(w, res.Status, res.Body)
	}
}

func internalError(log logrus.FieldLogger, endpoint string, err error, message string) Result {
	log.WithError(err).WithField("endpoint", endpoint).Error("request failed")
	return fail(http.StatusInternalServerError, message)
}

func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// conversationGate runs the part of the pipeline shared by every
// conversation-scoped endpoint: caller, conversation id, existence and
// membership, in that order.
type conversationGate struct {
	conversations service.ConversationService
	metrics       *metrics.Metrics
	log           logrus.FieldLogger
}

func (g conversationGate) enter(r *http.Request, caller auth.Identity, endpoint, errMessage string) (*model.Conversation, Result, bool) {
	if !caller.Authenticated() {
		return nil, fail(http.StatusUnauthorized, MsgUnauthenticated), false
	}

	conversationID, valid := pathID(r, "conversationId")
	if !valid {
		return nil, fail(http.StatusBadRequest, MsgInvalidConvoID), false
	}

	return g.check(r, caller, conversationID, endpoint, errMessage)
}

func (g conversationGate) check(r *http.Request, caller auth.Identity, conversationID uint, endpoint, errMessage string) (*model.Conversation, Result, bool) {
	return g.authorize(r, caller, conversationID, endpoint, errMessage, MsgUnauthorized)
}

// authorize is check with the message reported to a non-member caller.
func (g conversationGate) authorize(r *http.Request, caller auth.Identity, conversationID uint, endpoint, errMessage, deniedMessage string) (*model.Conversation, Result, bool) {
	conversation, err := g.conversations.FindByID(r.Context(), conversationID)
	if errors.Is(err, service.ErrConversationNotFound) {
		return nil, fail(http.StatusBadRequest, MsgConvoDoesNotExist), false
	}
	if err != nil {
		return nil, internalError(g.log, endpoint, err, errMessage), false
	}

	member, err := g.conversations.HasUser(r.Context(), conversation.ID, caller.UserID)
	if err != nil {
		return nil, internalError(g.log, endpoint, err, errMessage), false
	}
	if !member {
		g.metrics.AccessDenied(endpoint)
		return nil, fail(http.StatusForbidden, deniedMessage), false
	}

	return conversation, Result{}, true
}
