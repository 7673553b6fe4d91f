package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"tush00nka/bbbab_conversations/internal/pkg/auth"
	"tush00nka/bbbab_conversations/internal/pkg/metrics"
	"tush00nka/bbbab_conversations/internal/service"
)

const maxAttachmentSize = 32 << 20

type AttachmentHandler struct {
	attachments service.AttachmentService
	messages    service.MessageService
	gate        conversationGate
	log         logrus.FieldLogger
}

func NewAttachmentHandler(
	attachments service.AttachmentService,
	conversations service.ConversationService,
	messages service.MessageService,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) *AttachmentHandler {
	return &AttachmentHandler{
		attachments: attachments,
		messages:    messages,
		gate:        conversationGate{conversations: conversations, metrics: m, log: log},
		log:         log,
	}
}

func (h *AttachmentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/conversation/{conversationId}/attachments", Serve(h.UploadAttachment)).Methods("POST", "OPTIONS")
	router.HandleFunc("/conversation/{conversationId}/attachments/{messageId}", Serve(h.GetAttachmentURL)).Methods("GET", "OPTIONS")
}

type AttachmentURLResponse struct {
	MessageID uint   `json:"messageId"`
	URL       string `json:"url"`
}

// @Summary Upload attachment
// @Description Upload a file into a conversation. The file is posted as a message whose body is the file name.
// @ID upload-attachment
// @Tags attachment
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param conversationId path int true "Conversation ID"
// @Param file formData file true "File"
// @Success 201 {object} model.FileMetadata
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /conversation/{conversationId}/attachments [post]
func (h *AttachmentHandler) UploadAttachment(r *http.Request, caller auth.Identity) Result {
	conversation, res, allowed := h.gate.enter(r, caller, "UploadAttachment", MsgErrorUploadingAttachment)
	if !allowed {
		return res
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxAttachmentSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		return fail(http.StatusBadRequest, MsgInvalidRequest)
	}
	defer file.Close()

	meta, err := h.attachments.Upload(r.Context(), service.AttachmentUpload{
		ConversationID: conversation.ID,
		UserID:         caller.UserID,
		Filename:       header.Filename,
		ContentType:    header.Header.Get("Content-Type"),
		Size:           header.Size,
		Body:           file,
	})
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return fail(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConversationNotFound):
		return fail(http.StatusBadRequest, MsgConvoDoesNotExist)
	case err != nil:
		return internalError(h.log, "UploadAttachment", err, MsgErrorUploadingAttachment)
	}

	return ok(http.StatusCreated, meta)
}

// @Summary Attachment link
// @Description Get a short-lived download link for an attachment message
// @ID get-attachment-url
// @Tags attachment
// @Produce json
// @Security BearerAuth
// @Param conversationId path int true "Conversation ID"
// @Param messageId path int true "Message ID"
// @Success 200 {object} AttachmentURLResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /conversation/{conversationId}/attachments/{messageId} [get]
func (h *AttachmentHandler) GetAttachmentURL(r *http.Request, caller auth.Identity) Result {
	if !caller.Authenticated() {
		return fail(http.StatusUnauthorized, MsgUnauthenticated)
	}

	conversationID, valid := pathID(r, "conversationId")
	if !valid {
		return fail(http.StatusBadRequest, MsgInvalidConvoID)
	}
	messageID, valid := pathID(r, "messageId")
	if !valid {
		return fail(http.StatusBadRequest, MsgInvalidMessageID)
	}

	conversation, res, allowed := h.gate.check(r, caller, conversationID, "GetAttachmentURL", MsgErrorResolvingAttachmentURL)
	if !allowed {
		return res
	}

	message, err := h.messages.FindByID(r.Context(), messageID)
	if errors.Is(err, service.ErrMessageNotFound) {
		return fail(http.StatusBadRequest, MsgMessageDoesNotExist)
	}
	if err != nil {
		return internalError(h.log, "GetAttachmentURL", err, MsgErrorResolvingAttachmentURL)
	}
	// a message of another conversation is reported as missing
	if message.ConversationID != conversation.ID {
		return fail(http.StatusBadRequest, MsgMessageDoesNotExist)
	}

	url, err := h.attachments.PresignedURL(r.Context(), message)
	if errors.Is(err, service.ErrNotAnAttachment) {
		return fail(http.StatusBadRequest, MsgNotAnAttachment)
	}
	if err != nil {
		return internalError(h.log, "GetAttachmentURL", err, MsgErrorResolvingAttachmentURL)
	}

	return ok(http.StatusOK, AttachmentURLResponse{MessageID: message.ID, URL: url})
}
