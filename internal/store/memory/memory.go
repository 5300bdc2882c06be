// Package memory is the in-process store used in development and tests. One
// RWMutex guards every collection, which keeps cross-document sequences
// (escalation create plus workgroup push) observable in the same order a
// single-writer database would produce.
package memory

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"faithresponders.org/internal/assessment"
	"faithresponders.org/internal/directory"
	"faithresponders.org/internal/escalation"
	"faithresponders.org/internal/messaging"
	"faithresponders.org/internal/release"
	"faithresponders.org/internal/roster"
	"faithresponders.org/internal/workgroup"
)

// Store holds every collection behind a single lock.
type Store struct {
	mu sync.RWMutex

	users       map[string]*directory.User
	groups      map[string]*roster.Group
	centers     map[string]*roster.Center
	assessments map[string]*assessment.Assessment
	workgroups  map[string]*workgroup.Workgroup
	escalations map[string]*escalation.Escalation
	messages    map[string]*messaging.Message
	releases    map[string]*release.LegalRelease

	now func() time.Time
}

// New initialises an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]*directory.User),
		groups:      make(map[string]*roster.Group),
		centers:     make(map[string]*roster.Center),
		assessments: make(map[string]*assessment.Assessment),
		workgroups:  make(map[string]*workgroup.Workgroup),
		escalations: make(map[string]*escalation.Escalation),
		messages:    make(map[string]*messaging.Message),
		releases:    make(map[string]*release.LegalRelease),
		now:         time.Now,
	}
}

// Collection accessors. Each returns a view sharing the parent's lock.

func (s *Store) Users() *UserStore             { return &UserStore{s} }
func (s *Store) Groups() *GroupStore           { return &GroupStore{s} }
func (s *Store) Centers() *CenterStore         { return &CenterStore{s} }
func (s *Store) Assessments() *AssessmentStore { return &AssessmentStore{s} }
func (s *Store) Workgroups() *WorkgroupStore   { return &WorkgroupStore{s} }
func (s *Store) Escalations() *EscalationStore { return &EscalationStore{s} }
func (s *Store) Messages() *MessageStore       { return &MessageStore{s} }
func (s *Store) Releases() *ReleaseStore       { return &ReleaseStore{s} }

// clone deep-copies a document via a JSON round trip so callers never share
// slices or maps with stored state.
func clone[T any](v *T) *T {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

// union appends v to list if absent, returning the (possibly new) slice.
func union(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// clampLimit applies the default and maximum page sizes.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// sortNewestFirst orders ids descending. Ids are ULIDs, so lexicographic
// order matches creation order.
func sortNewestFirst[T any](items []*T, id func(*T) string) {
	sort.Slice(items, func(i, j int) bool {
		return id(items[i]) > id(items[j])
	})
}
