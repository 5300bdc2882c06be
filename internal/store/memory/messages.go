package memory

import (
	"context"
	"fmt"
	"time"

	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/messaging"
	"faithresponders.org/internal/release"
)

// MessageStore implements messaging.Store over the shared in-memory state.
type MessageStore struct {
	s *Store
}

func (ms *MessageStore) Create(_ context.Context, m *messaging.Message) error {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()
	ms.s.messages[m.ID] = clone(m)
	return nil
}

func (ms *MessageStore) Thread(_ context.Context, threadID string, limit int) ([]*messaging.Message, error) {
	ms.s.mu.RLock()
	defer ms.s.mu.RUnlock()
	out := make([]*messaging.Message, 0)
	for _, m := range ms.s.messages {
		if m.ThreadID != threadID {
			continue
		}
		out = append(out, clone(m))
	}
	sortNewestFirst(out, func(m *messaging.Message) string { return m.ID })
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// ReleaseStore implements release.Store over the shared in-memory state.
type ReleaseStore struct {
	s *Store
}

func (rs *ReleaseStore) Create(_ context.Context, r *release.LegalRelease) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	rs.s.releases[r.ID] = clone(r)
	return nil
}

func (rs *ReleaseStore) Find(_ context.Context, id string) (*release.LegalRelease, error) {
	rs.s.mu.RLock()
	defer rs.s.mu.RUnlock()
	r, ok := rs.s.releases[id]
	if !ok {
		return nil, fmt.Errorf("%w: legal release %s", fault.ErrNotFound, id)
	}
	return clone(r), nil
}

func (rs *ReleaseStore) MarkSigned(_ context.Context, id string, at time.Time, signatureImageURL string) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	r, ok := rs.s.releases[id]
	if !ok {
		return fmt.Errorf("%w: legal release %s", fault.ErrNotFound, id)
	}
	r.Signed = true
	r.SignedDigitally = true
	if signatureImageURL != "" {
		r.SignatureImageURL = signatureImageURL
	}
	signed := at
	r.SignedAt = &signed
	r.UpdatedAt = rs.s.now().UTC()
	return nil
}
