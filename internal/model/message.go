package model

import "time"

type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"index;not null" json:"conversationId"`
	SenderID       uint      `gorm:"index;not null" json:"senderId"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	Timestamp      time.Time `gorm:"index;not null" json:"timestamp"`
	AttachmentKey  string    `gorm:"size:512" json:"attachmentKey,omitempty"`
	ContentType    string    `gorm:"size:255" json:"contentType,omitempty"`
}

func (Message) TableName() string {
	return "message"
}

func (m Message) HasAttachment() bool {
	return m.AttachmentKey != ""
}
