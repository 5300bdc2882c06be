package roster

import (
	"context"
	"time"
)

// Group is a named disaster-response effort owning centers and member users
// by reference.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	EventType   string    `json:"eventType"`
	Description string    `json:"description"`
	UserIDs     []string  `json:"userIds"`
	CenterIDs   []string  `json:"centerIds"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Center is a physical relief site belonging to exactly one group.
type Center struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	GroupID     string    `json:"groupId"`
	LeadUserIDs []string  `json:"leadUserIds"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GroupStore persists groups. Membership additions are array unions applied
// atomically per document.
type GroupStore interface {
	Create(ctx context.Context, g *Group) error
	Find(ctx context.Context, id string) (*Group, error)
	List(ctx context.Context, limit int) ([]*Group, error)
	Patch(ctx context.Context, id string, updates map[string]any) error
	AddUser(ctx context.Context, groupID, userID string) error
	AddCenter(ctx context.Context, groupID, centerID string) error
}

// CenterStore persists centers.
type CenterStore interface {
	Create(ctx context.Context, c *Center) error
	Find(ctx context.Context, id string) (*Center, error)
	List(ctx context.Context, groupID string, limit int) ([]*Center, error)
	Patch(ctx context.Context, id string, updates map[string]any) error
}
