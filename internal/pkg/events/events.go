package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	TypeMessageCreated      = "message.created"
	TypeMemberAdded         = "member.added"
	TypeMemberRemoved       = "member.removed"
	TypeConversationRenamed = "conversation.renamed"
	TypeConversationDeleted = "conversation.deleted"
)

const (
	SubjectMessageCreated      = "conversation.%d.message.created"
	SubjectMemberAdded         = "conversation.%d.member.added"
	SubjectMemberRemoved       = "conversation.%d.member.removed"
	SubjectConversationDeleted = "conversation.%d.deleted"
	SubjectConversationRenamed = "conversation.%d.renamed"
)

// Event is the payload published for every membership or message change.
type Event struct {
	Type           string    `json:"type"`
	ConversationID uint      `json:"conversation_id"`
	UserID         uint      `json:"user_id,omitempty"`
	Data           any       `json:"data,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, subject string, event Event) error
	Close()
}

func Subject(format string, conversationID uint) string {
	return fmt.Sprintf(format, conversationID)
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("bbbab-conversations"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}

// Nop discards every event. Used when NATS_URL is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, Event) error { return nil }
func (Nop) Close()                                       {}

// Fanout delivers every event to all of its publishers.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, subject string, event Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, subject, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() {
	for _, p := range f {
		p.Close()
	}
}
