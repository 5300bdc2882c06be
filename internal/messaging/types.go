package messaging

import (
	"context"
	"time"

	"faithresponders.org/internal/roster"
	"faithresponders.org/internal/workgroup"
)

// Channel is the delivery medium picked from the recipient's communication
// preference.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Delivery records one recipient of a message and the address the relay
// handed it to.
type Delivery struct {
	UserID  string  `json:"userId"`
	Channel Channel `json:"channel"`
	Address string  `json:"address"`
}

// Message is a broadcast to every member of a workgroup, center, or group.
// ThreadID is the id of the scope the message was sent to, so all traffic
// for one scope reads back as a thread.
type Message struct {
	ID         string     `json:"id"`
	ThreadID   string     `json:"threadId"`
	SenderID   string     `json:"senderId"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	Deliveries []Delivery `json:"deliveries"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Store persists sent messages.
type Store interface {
	Create(ctx context.Context, m *Message) error
	Thread(ctx context.Context, threadID string, limit int) ([]*Message, error)
}

// Lookup interfaces for resolving recipients from the scope documents.
type GroupFinder interface {
	Find(ctx context.Context, id string) (*roster.Group, error)
}

type CenterFinder interface {
	Find(ctx context.Context, id string) (*roster.Center, error)
}

type WorkgroupFinder interface {
	Find(ctx context.Context, id string) (*workgroup.Workgroup, error)
}
