package messaging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"faithresponders.org/internal/directory"
	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/messaging"
	"faithresponders.org/internal/roster"
	"faithresponders.org/internal/store/memory"
	"faithresponders.org/internal/workgroup"
)

func seedUser(t *testing.T, store directory.Store, id, preference string, roles ...directory.Role) {
	t.Helper()
	now := time.Now().UTC()
	err := store.Put(context.Background(), &directory.User{
		ID:                      id,
		Email:                   id + "@example.org",
		PhoneNumber:             "+1555" + id,
		CommunicationPreference: preference,
		Roles:                   roles,
		RoleApprovalStatus:      directory.ApprovalApproved,
		CreatedAt:               now,
		UpdatedAt:               now,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func newMessaging(t *testing.T) (*messaging.Service, *memory.Store) {
	t.Helper()
	mem := memory.New()
	dir := directory.NewService(mem.Users())
	svc := messaging.NewService(mem.Messages(), mem.Users(), mem.Groups(), mem.Centers(), mem.Workgroups(), dir)
	seedUser(t, mem.Users(), "admin", directory.PreferEmail, directory.RoleAdministrator)
	seedUser(t, mem.Users(), "lead", directory.PreferEmail, directory.RoleWorkGroupLead)
	seedUser(t, mem.Users(), "worker-1", directory.PreferSMS, directory.RoleWorker)
	return svc, mem
}

func TestSendToWorkgroupReachesLeadAndWorkers(t *testing.T) {
	svc, mem := newMessaging(t)
	w := &workgroup.Workgroup{
		ID:            "wg-1",
		Name:          "Debris Crew",
		LeadUserID:    "lead",
		WorkerUserIDs: []string{"worker-1"},
	}
	if err := mem.Workgroups().Create(context.Background(), w); err != nil {
		t.Fatalf("seed workgroup: %v", err)
	}

	msg, err := svc.Send(context.Background(), "lead", messaging.SendInput{
		WorkgroupID: "wg-1",
		Subject:     "Tomorrow",
		Body:        "Meet at the church at 7am",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ThreadID != "wg-1" {
		t.Fatalf("thread id must be the scope id, got %s", msg.ThreadID)
	}
	if len(msg.Deliveries) != 2 {
		t.Fatalf("expected lead + worker, got %v", msg.Deliveries)
	}

	channels := map[string]messaging.Channel{}
	for _, d := range msg.Deliveries {
		channels[d.UserID] = d.Channel
	}
	if channels["lead"] != messaging.ChannelEmail || channels["worker-1"] != messaging.ChannelSMS {
		t.Fatalf("channels must follow preference: %v", channels)
	}
}

func TestSendScopePrecedence(t *testing.T) {
	svc, mem := newMessaging(t)
	if err := mem.Workgroups().Create(context.Background(), &workgroup.Workgroup{
		ID: "wg-1", LeadUserID: "lead",
	}); err != nil {
		t.Fatalf("seed workgroup: %v", err)
	}
	if err := mem.Groups().Create(context.Background(), &roster.Group{
		ID: "grp-1", UserIDs: []string{"worker-1"},
	}); err != nil {
		t.Fatalf("seed group: %v", err)
	}

	// workgroupId wins over groupId
	msg, err := svc.Send(context.Background(), "admin", messaging.SendInput{
		WorkgroupID: "wg-1",
		GroupID:     "grp-1",
		Body:        "scope check",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ThreadID != "wg-1" {
		t.Fatalf("workgroup scope must win, got thread %s", msg.ThreadID)
	}
}

func TestSendToCenterReachesLeads(t *testing.T) {
	svc, mem := newMessaging(t)
	if err := mem.Centers().Create(context.Background(), &roster.Center{
		ID: "ctr-1", Name: "North Shelter", LeadUserIDs: []string{"lead"},
	}); err != nil {
		t.Fatalf("seed center: %v", err)
	}

	msg, err := svc.Send(context.Background(), "admin", messaging.SendInput{
		CenterID: "ctr-1",
		Body:     "supplies arriving",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(msg.Deliveries) != 1 || msg.Deliveries[0].UserID != "lead" {
		t.Fatalf("unexpected deliveries: %v", msg.Deliveries)
	}
}

func TestSendNoRecipients(t *testing.T) {
	svc, mem := newMessaging(t)
	if err := mem.Groups().Create(context.Background(), &roster.Group{ID: "empty-grp"}); err != nil {
		t.Fatalf("seed group: %v", err)
	}

	_, err := svc.Send(context.Background(), "admin", messaging.SendInput{
		GroupID: "empty-grp",
		Body:    "anyone there?",
	})
	if !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSendSkipsStaleMembers(t *testing.T) {
	svc, mem := newMessaging(t)
	if err := mem.Groups().Create(context.Background(), &roster.Group{
		ID: "grp-1", UserIDs: []string{"worker-1", "deleted-user"},
	}); err != nil {
		t.Fatalf("seed group: %v", err)
	}

	msg, err := svc.Send(context.Background(), "admin", messaging.SendInput{
		GroupID: "grp-1",
		Body:    "hello",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(msg.Deliveries) != 1 || msg.Deliveries[0].UserID != "worker-1" {
		t.Fatalf("stale member must be skipped: %v", msg.Deliveries)
	}
}

func TestSendValidationAndGating(t *testing.T) {
	svc, _ := newMessaging(t)

	if _, err := svc.Send(context.Background(), "admin", messaging.SendInput{Body: "x"}); !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("no scope: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.Send(context.Background(), "admin", messaging.SendInput{GroupID: "g"}); !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("no body: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.Send(context.Background(), "worker-1", messaging.SendInput{GroupID: "g", Body: "x"}); !errors.Is(err, fault.ErrPermissionDenied) {
		t.Fatalf("worker send: expected ErrPermissionDenied, got %v", err)
	}
}

func TestThreadListsScopeTraffic(t *testing.T) {
	svc, mem := newMessaging(t)
	if err := mem.Groups().Create(context.Background(), &roster.Group{
		ID: "grp-1", UserIDs: []string{"worker-1"},
	}); err != nil {
		t.Fatalf("seed group: %v", err)
	}

	for _, body := range []string{"first", "second"} {
		if _, err := svc.Send(context.Background(), "admin", messaging.SendInput{GroupID: "grp-1", Body: body}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	items, err := svc.Thread(context.Background(), "worker-1", "grp-1", 0)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(items))
	}
	// newest first
	if items[0].Body != "second" {
		t.Fatalf("unexpected ordering: %s", items[0].Body)
	}
}
