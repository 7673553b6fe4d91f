package handler

// Error messages returned in the "error" field of a response body.
const (
	MsgUnauthenticated  = "UNAUTHENTICATED"
	MsgUnauthorized     = "UNAUTHORIZED"
	MsgInvalidRequest   = "INVALID_REQUEST_BODY"
	MsgInvalidConvoID   = "INVALID_CONVO_ID"
	MsgInvalidUserID    = "INVALID_USER_ID"
	MsgInvalidMessageID = "INVALID_MESSAGE_ID"
	MsgImmutableField   = "IMMUTABLE_FIELD"

	MsgConvoDoesNotExist   = "CONVO_DOES_NOT_EXIST"
	MsgUserDoesNotExist    = "USER_DOES_NOT_EXIST"
	MsgMessageDoesNotExist = "MESSAGE_DOES_NOT_EXIST"
	MsgUserNotInConvo      = "USER_NOT_IN_CONVO"
	MsgUserAlreadyInConvo  = "USER_ALREADY_IN_CONVO"
	MsgUserNameTaken       = "USERNAME_TAKEN"
	MsgNotAnAttachment     = "NOT_AN_ATTACHMENT"

	MsgErrorCreatingUser           = "ERROR_CREATING_USER"
	MsgErrorFindingUser            = "ERROR_FINDING_USER"
	MsgErrorUpdatingUser           = "ERROR_UPDATING_USER"
	MsgErrorDeletingUser           = "ERROR_DELETING_USER"
	MsgErrorCreatingConvo          = "ERROR_CREATING_CONVO"
	MsgErrorFindingConvo           = "ERROR_FINDING_CONVO"
	MsgErrorFindingConvos          = "ERROR_FINDING_CONVOS"
	MsgErrorUpdatingConvo          = "ERROR_UPDATING_CONVO"
	MsgErrorDeletingConvo          = "ERROR_DELETING_CONVO"
	MsgErrorFindingConvoMembers    = "ERROR_FINDING_CONVO_MEMBERS"
	MsgErrorAddingUserToConvo      = "ERROR_ADDING_USER_TO_CONVO"
	MsgErrorRemovingUserFromConvo  = "ERROR_REMOVING_USER_FROM_CONVO"
	MsgErrorFindingMessages        = "ERROR_FINDING_MESSAGES"
	MsgErrorCreatingMessage        = "ERROR_CREATING_MESSAGE"
	MsgErrorUploadingAttachment    = "ERROR_UPLOADING_ATTACHMENT"
	MsgErrorResolvingAttachmentURL = "ERROR_RESOLVING_ATTACHMENT_URL"
)
