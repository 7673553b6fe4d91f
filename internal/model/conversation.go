package model

type Conversation struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
}

func (Conversation) TableName() string {
	return "conversation"
}

// ConversationUser is a membership row. The (conversation, user) pair is the
// primary key, so duplicates are rejected by the database.
type ConversationUser struct {
	ConversationID uint `gorm:"primaryKey;autoIncrement:false" json:"conversationId"`
	UserID         uint `gorm:"primaryKey;autoIncrement:false;index" json:"userId"`
}

func (ConversationUser) TableName() string {
	return "conversation_user"
}

type ConversationUpdate struct {
	Name *string `json:"name"`
}

func (u ConversationUpdate) Columns() map[string]any {
	cols := make(map[string]any)
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	return cols
}
