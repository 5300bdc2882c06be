// Package messaging relays broadcasts to the members of a workgroup, center,
// or group, choosing email or sms per recipient preference. Delivery is
// recorded on the message document; no external provider is called.
package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"faithresponders.org/internal/audit"
	"faithresponders.org/internal/directory"
	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/ids"
)

// Service resolves recipients and records broadcasts.
type Service struct {
	store      Store
	users      directory.Store
	groups     GroupFinder
	centers    CenterFinder
	workgroups WorkgroupFinder
	dir        *directory.Service
	now        func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the messaging service.
func NewService(store Store, users directory.Store, groups GroupFinder, centers CenterFinder, workgroups WorkgroupFinder, dir *directory.Service, opts ...Option) *Service {
	s := &Service{
		store:      store,
		users:      users,
		groups:     groups,
		centers:    centers,
		workgroups: workgroups,
		dir:        dir,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendInput addresses a broadcast. Exactly the most specific populated scope
// wins: workgroupId over centerId over groupId.
type SendInput struct {
	WorkgroupID string `json:"workgroupId"`
	CenterID    string `json:"centerId"`
	GroupID     string `json:"groupId"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// Send broadcasts to the resolved scope. Workgroups reach the lead and all
// workers, centers reach their lead users, groups reach every member.
// Requires administrator, workGroupLead, or assessor role. A scope that
// resolves to zero recipients is a not-found error.
func (s *Service) Send(ctx context.Context, callerID string, in SendInput) (*Message, error) {
	if in.Body == "" {
		return nil, fmt.Errorf("%w: body is required", fault.ErrInvalidArgument)
	}
	if in.WorkgroupID == "" && in.CenterID == "" && in.GroupID == "" {
		return nil, fmt.Errorf("%w: one of workgroupId, centerId, groupId is required", fault.ErrInvalidArgument)
	}
	if _, err := s.dir.Authorize(ctx, callerID,
		directory.RoleAdministrator, directory.RoleWorkGroupLead, directory.RoleAssessor); err != nil {
		return nil, err
	}

	threadID, recipientIDs, err := s.resolveRecipients(ctx, in)
	if err != nil {
		return nil, err
	}

	deliveries := make([]Delivery, 0, len(recipientIDs))
	for _, userID := range dedupe(recipientIDs) {
		u, err := s.users.Find(ctx, userID)
		if err != nil {
			// Stale membership reference; skip rather than fail the whole
			// broadcast.
			audit.LogEvent(ctx, "messaging.recipient_missing", map[string]any{"recipient_id": userID})
			continue
		}
		d := Delivery{UserID: u.ID, Channel: ChannelEmail, Address: u.Email}
		if u.CommunicationPreference == directory.PreferSMS {
			d.Channel = ChannelSMS
			d.Address = u.PhoneNumber
		}
		deliveries = append(deliveries, d)
	}
	if len(deliveries) == 0 {
		return nil, fmt.Errorf("%w: no recipients found", fault.ErrNotFound)
	}

	m := &Message{
		ID:         ids.New(),
		ThreadID:   threadID,
		SenderID:   callerID,
		Subject:    in.Subject,
		Body:       in.Body,
		Deliveries: deliveries,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	audit.LogEvent(ctx, "messaging.sent", map[string]any{
		"message_id": m.ID,
		"thread_id":  m.ThreadID,
		"recipients": len(m.Deliveries),
	})
	return m, nil
}

// Thread lists messages sent to one scope, newest first.
func (s *Service) Thread(ctx context.Context, callerID, threadID string, limit int) ([]*Message, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	if strings.TrimSpace(threadID) == "" {
		return nil, fmt.Errorf("%w: threadId is required", fault.ErrInvalidArgument)
	}
	return s.store.Thread(ctx, threadID, limit)
}

func (s *Service) resolveRecipients(ctx context.Context, in SendInput) (string, []string, error) {
	switch {
	case in.WorkgroupID != "":
		w, err := s.workgroups.Find(ctx, in.WorkgroupID)
		if err != nil {
			return "", nil, err
		}
		recipients := append([]string{w.LeadUserID}, w.WorkerUserIDs...)
		return w.ID, recipients, nil
	case in.CenterID != "":
		c, err := s.centers.Find(ctx, in.CenterID)
		if err != nil {
			return "", nil, err
		}
		return c.ID, c.LeadUserIDs, nil
	default:
		g, err := s.groups.Find(ctx, in.GroupID)
		if err != nil {
			return "", nil, err
		}
		return g.ID, g.UserIDs, nil
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
