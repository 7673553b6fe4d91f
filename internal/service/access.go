package service

import (
	"context"

	"tush00nka/bbbab_conversations/internal/repository"
)

type membershipGate struct {
	store repository.Store
}

// NewAccessGate создает проверку членства поверх таблицы conversation_user
func NewAccessGate(store repository.Store) AccessGate {
	return &membershipGate{store: store}
}

func (g *membershipGate) IsMember(ctx context.Context, conversationID, userID uint) (bool, error) {
	if conversationID == 0 || userID == 0 {
		return false, nil
	}
	return g.store.HasConversationUser(ctx, conversationID, userID)
}
