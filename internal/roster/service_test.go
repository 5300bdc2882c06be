package roster_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"faithresponders.org/internal/directory"
	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/roster"
	"faithresponders.org/internal/store/memory"
)

func seedUser(t *testing.T, store directory.Store, id string, roles ...directory.Role) {
	t.Helper()
	now := time.Now().UTC()
	err := store.Put(context.Background(), &directory.User{
		ID:                      id,
		Email:                   id + "@example.org",
		PhoneNumber:             "+15550000000",
		CommunicationPreference: directory.PreferEmail,
		Roles:                   roles,
		RoleApprovalStatus:      directory.ApprovalApproved,
		CreatedAt:               now,
		UpdatedAt:               now,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func newRoster(t *testing.T) (*roster.Service, *memory.Store) {
	t.Helper()
	mem := memory.New()
	dir := directory.NewService(mem.Users())
	svc := roster.NewService(mem.Groups(), mem.Centers(), mem.Users(), dir)
	seedUser(t, mem.Users(), "admin", directory.RoleAdministrator)
	return svc, mem
}

func TestCreateGroupFansOutMembership(t *testing.T) {
	svc, mem := newRoster(t)
	seedUser(t, mem.Users(), "vol-1", directory.RoleWorker)
	seedUser(t, mem.Users(), "vol-2", directory.RoleWorker)

	group, err := svc.CreateGroup(context.Background(), "admin", roster.CreateGroupInput{
		Name:      "Hurricane Response",
		EventType: "hurricane",
		UserIDs:   []string{"vol-1", "vol-2"},
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	for _, id := range []string{"vol-1", "vol-2"} {
		u, err := mem.Users().Find(context.Background(), id)
		if err != nil {
			t.Fatalf("find %s: %v", id, err)
		}
		if len(u.GroupIDs) != 1 || u.GroupIDs[0] != group.ID {
			t.Fatalf("user %s missing group membership: %v", id, u.GroupIDs)
		}
	}
}

func TestCreateGroupRequiresAdmin(t *testing.T) {
	svc, mem := newRoster(t)
	seedUser(t, mem.Users(), "lead", directory.RoleWorkGroupLead)

	_, err := svc.CreateGroup(context.Background(), "lead", roster.CreateGroupInput{
		Name:      "Flood Response",
		EventType: "flood",
	})
	if !errors.Is(err, fault.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestCreateGroupValidation(t *testing.T) {
	svc, _ := newRoster(t)
	_, err := svc.CreateGroup(context.Background(), "admin", roster.CreateGroupInput{Name: "No Event"})
	if !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestCreateCenterFansOut(t *testing.T) {
	svc, mem := newRoster(t)
	seedUser(t, mem.Users(), "lead", directory.RoleWorkGroupLead)

	group, err := svc.CreateGroup(context.Background(), "admin", roster.CreateGroupInput{
		Name:      "Hurricane Response",
		EventType: "hurricane",
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	center, err := svc.CreateCenter(context.Background(), "admin", roster.CreateCenterInput{
		Name:        "North Shelter",
		Address:     "12 Main St",
		GroupID:     group.ID,
		LeadUserIDs: []string{"lead"},
	})
	if err != nil {
		t.Fatalf("create center: %v", err)
	}

	g, _ := mem.Groups().Find(context.Background(), group.ID)
	if len(g.CenterIDs) != 1 || g.CenterIDs[0] != center.ID {
		t.Fatalf("group missing center reference: %v", g.CenterIDs)
	}
	u, _ := mem.Users().Find(context.Background(), "lead")
	if len(u.CenterIDs) != 1 || u.CenterIDs[0] != center.ID {
		t.Fatalf("lead missing center reference: %v", u.CenterIDs)
	}
}

func TestCreateCenterMissingGroupFails(t *testing.T) {
	svc, _ := newRoster(t)
	_, err := svc.CreateCenter(context.Background(), "admin", roster.CreateCenterInput{
		Name:    "Orphan Shelter",
		Address: "1 Nowhere Rd",
		GroupID: "missing",
	})
	if !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from fan-out, got %v", err)
	}
}

func TestAddUserToGroupBothSides(t *testing.T) {
	svc, mem := newRoster(t)
	seedUser(t, mem.Users(), "vol-1", directory.RoleWorker)

	group, err := svc.CreateGroup(context.Background(), "admin", roster.CreateGroupInput{
		Name:      "Wildfire Response",
		EventType: "wildfire",
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	if err := svc.AddUserToGroup(context.Background(), "admin", group.ID, "vol-1"); err != nil {
		t.Fatalf("add user: %v", err)
	}
	g, _ := mem.Groups().Find(context.Background(), group.ID)
	u, _ := mem.Users().Find(context.Background(), "vol-1")
	if len(g.UserIDs) != 1 || len(u.GroupIDs) != 1 {
		t.Fatalf("membership not recorded both ways: group=%v user=%v", g.UserIDs, u.GroupIDs)
	}

	// adding again must not duplicate
	if err := svc.AddUserToGroup(context.Background(), "admin", group.ID, "vol-1"); err != nil {
		t.Fatalf("re-add user: %v", err)
	}
	g, _ = mem.Groups().Find(context.Background(), group.ID)
	if len(g.UserIDs) != 1 {
		t.Fatalf("duplicate membership: %v", g.UserIDs)
	}

	if err := svc.AddUserToGroup(context.Background(), "admin", group.ID, "ghost"); !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestUpdateGroupStripsProtectedFields(t *testing.T) {
	svc, mem := newRoster(t)
	group, err := svc.CreateGroup(context.Background(), "admin", roster.CreateGroupInput{
		Name:      "Tornado Response",
		EventType: "tornado",
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	err = svc.UpdateGroup(context.Background(), "admin", group.ID, map[string]any{
		"description": "cleanup phase",
		"createdBy":   "someone-else",
	})
	if err != nil {
		t.Fatalf("update group: %v", err)
	}
	g, _ := mem.Groups().Find(context.Background(), group.ID)
	if g.Description != "cleanup phase" {
		t.Fatalf("description not updated: %s", g.Description)
	}
	if g.CreatedBy != "admin" {
		t.Fatalf("createdBy changed: %s", g.CreatedBy)
	}
}

func TestListCentersByGroup(t *testing.T) {
	svc, _ := newRoster(t)
	g1, _ := svc.CreateGroup(context.Background(), "admin", roster.CreateGroupInput{Name: "A", EventType: "flood"})
	g2, _ := svc.CreateGroup(context.Background(), "admin", roster.CreateGroupInput{Name: "B", EventType: "flood"})
	if _, err := svc.CreateCenter(context.Background(), "admin", roster.CreateCenterInput{Name: "C1", Address: "x", GroupID: g1.ID}); err != nil {
		t.Fatalf("create center: %v", err)
	}
	if _, err := svc.CreateCenter(context.Background(), "admin", roster.CreateCenterInput{Name: "C2", Address: "x", GroupID: g2.ID}); err != nil {
		t.Fatalf("create center: %v", err)
	}

	centers, err := svc.ListCenters(context.Background(), "admin", g1.ID, 0)
	if err != nil {
		t.Fatalf("list centers: %v", err)
	}
	if len(centers) != 1 || centers[0].GroupID != g1.ID {
		t.Fatalf("unexpected centers: %v", centers)
	}
}
