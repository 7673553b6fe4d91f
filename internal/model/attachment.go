package model

import "time"

// FileMetadata describes an uploaded attachment and the message that carries it.
type FileMetadata struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	Size           int64     `json:"size"`
	ContentType    string    `json:"contentType"`
	Key            string    `json:"key"`
	Bucket         string    `json:"bucket"`
	SenderID       uint      `json:"senderId"`
	ConversationID uint      `json:"conversationId"`
	MessageID      uint      `json:"messageId"`
	CreatedAt      time.Time `json:"createdAt"`
}
