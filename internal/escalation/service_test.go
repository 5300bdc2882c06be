package escalation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"faithresponders.org/internal/directory"
	"faithresponders.org/internal/escalation"
	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/store/memory"
	"faithresponders.org/internal/stream"
	"faithresponders.org/internal/workgroup"
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

type fixture struct {
	svc    *escalation.Service
	wgSvc  *workgroup.Service
	mem    *memory.Store
	events *stream.Stream
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.New()
	dir := directory.NewService(mem.Users())
	events := stream.New()
	seedUser(t, mem.Users(), "lead", directory.RoleWorkGroupLead)
	seedUser(t, mem.Users(), "assessor", directory.RoleAssessor)
	seedUser(t, mem.Users(), "worker", directory.RoleWorker)
	seedUser(t, mem.Users(), "admin", directory.RoleAdministrator)
	return &fixture{
		svc:    escalation.NewService(mem.Escalations(), mem.Workgroups(), dir, events),
		wgSvc:  workgroup.NewService(mem.Workgroups(), dir),
		mem:    mem,
		events: events,
	}
}

func (f *fixture) createWorkgroup(t *testing.T) *workgroup.Workgroup {
	t.Helper()
	w, err := f.wgSvc.Create(context.Background(), "lead", workgroup.CreateInput{
		Name:            "Debris Crew",
		CenterID:        "center-1",
		GroupID:         "group-1",
		AssessmentID:    "assessment-1",
		LeadUserID:      "lead",
		TaskDescription: "clear fallen trees",
	})
	if err != nil {
		t.Fatalf("create workgroup: %v", err)
	}
	return w
}

func TestCreateEscalationPushesWorkgroup(t *testing.T) {
	f := newFixture(t)
	w := f.createWorkgroup(t)

	e, err := f.svc.Create(context.Background(), "lead", escalation.CreateInput{
		WorkgroupID: w.ID,
		CenterID:    w.CenterID,
		GroupID:     w.GroupID,
		Type:        escalation.TypeAdministrative,
		Reason:      "gas leak on site",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Status != escalation.StatusPending {
		t.Fatalf("new escalation must be pending, got %s", e.Status)
	}

	got, _ := f.mem.Workgroups().Find(context.Background(), w.ID)
	if got.TaskStatus != workgroup.StatusNeedsEscalation {
		t.Fatalf("workgroup not pushed to needsEscalation: %s", got.TaskStatus)
	}
}

func TestCreateEscalationPublishesEvent(t *testing.T) {
	f := newFixture(t)
	w := f.createWorkgroup(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := f.events.Subscribe(ctx)

	e, err := f.svc.Create(context.Background(), "assessor", escalation.CreateInput{
		WorkgroupID: w.ID,
		CenterID:    w.CenterID,
		GroupID:     w.GroupID,
		Type:        escalation.TypeAssessor,
		Reason:      "needs reassessment",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case evt := <-ch:
		if evt.EscalationID != e.ID || evt.WorkgroupID != w.ID {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestCreateEscalationRoleGate(t *testing.T) {
	f := newFixture(t)
	w := f.createWorkgroup(t)

	_, err := f.svc.Create(context.Background(), "worker", escalation.CreateInput{
		WorkgroupID: w.ID,
		CenterID:    w.CenterID,
		GroupID:     w.GroupID,
		Type:        escalation.TypeAdministrative,
		Reason:      "blocked",
	})
	if !errors.Is(err, fault.ErrPermissionDenied) {
		t.Fatalf("worker create: expected ErrPermissionDenied, got %v", err)
	}
}

func TestCreateEscalationMissingWorkgroup(t *testing.T) {
	f := newFixture(t)

	// The escalation itself is written before the workgroup push fails, so
	// the record survives while the error reports the missing workgroup.
	_, err := f.svc.Create(context.Background(), "lead", escalation.CreateInput{
		WorkgroupID: "ghost",
		CenterID:    "center-1",
		GroupID:     "group-1",
		Type:        escalation.TypeAdministrative,
		Reason:      "blocked",
	})
	if !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	items, _ := f.mem.Escalations().List(context.Background(), escalation.Filter{WorkgroupID: "ghost"})
	if len(items) != 1 {
		t.Fatalf("escalation record must survive the failed push, got %d", len(items))
	}
}

func TestCreateEscalationValidation(t *testing.T) {
	f := newFixture(t)
	w := f.createWorkgroup(t)

	_, err := f.svc.Create(context.Background(), "lead", escalation.CreateInput{
		WorkgroupID: w.ID,
		CenterID:    w.CenterID,
		GroupID:     w.GroupID,
		Type:        "sideways",
		Reason:      "blocked",
	})
	if !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("unknown type: expected ErrInvalidArgument, got %v", err)
	}

	_, err = f.svc.Create(context.Background(), "lead", escalation.CreateInput{
		WorkgroupID: w.ID,
		GroupID:     w.GroupID,
		Type:        escalation.TypeAdministrative,
		Reason:      "blocked",
	})
	if !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("missing centerId: expected ErrInvalidArgument, got %v", err)
	}

	_, err = f.svc.Create(context.Background(), "lead", escalation.CreateInput{
		WorkgroupID: w.ID,
		CenterID:    w.CenterID,
		Type:        escalation.TypeAdministrative,
		Reason:      "blocked",
	})
	if !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("missing groupId: expected ErrInvalidArgument, got %v", err)
	}
}

func TestCreateEscalationKeepsAssessmentLink(t *testing.T) {
	f := newFixture(t)
	w := f.createWorkgroup(t)

	e, err := f.svc.Create(context.Background(), "lead", escalation.CreateInput{
		WorkgroupID:  w.ID,
		CenterID:     w.CenterID,
		GroupID:      w.GroupID,
		AssessmentID: w.AssessmentID,
		Type:         escalation.TypeAssessor,
		Reason:       "damage worse than reported",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, _ := f.mem.Escalations().Find(context.Background(), e.ID)
	if got.AssessmentID != w.AssessmentID {
		t.Fatalf("assessment link not stored: %+v", got)
	}
}

func TestUpdateStatusAndAssign(t *testing.T) {
	f := newFixture(t)
	w := f.createWorkgroup(t)
	e, err := f.svc.Create(context.Background(), "lead", escalation.CreateInput{
		WorkgroupID: w.ID,
		CenterID:    w.CenterID,
		GroupID:     w.GroupID,
		Type:        escalation.TypeThirdParty,
		Reason:      "utility company needed",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.svc.UpdateStatus(context.Background(), "assessor", e.ID, escalation.StatusInProgress, ""); !errors.Is(err, fault.ErrPermissionDenied) {
		t.Fatalf("assessor update: expected ErrPermissionDenied, got %v", err)
	}
	if err := f.svc.UpdateStatus(context.Background(), "admin", e.ID, escalation.StatusInProgress, "admin"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ := f.mem.Escalations().Find(context.Background(), e.ID)
	if got.Status != escalation.StatusInProgress || got.AssignedTo != "admin" {
		t.Fatalf("unexpected escalation: %+v", got)
	}
}

func TestResolveLeavesWorkgroupEscalated(t *testing.T) {
	f := newFixture(t)
	w := f.createWorkgroup(t)
	e, err := f.svc.Create(context.Background(), "lead", escalation.CreateInput{
		WorkgroupID: w.ID,
		CenterID:    w.CenterID,
		GroupID:     w.GroupID,
		Type:        escalation.TypeAdministrative,
		Reason:      "gas leak on site",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.svc.Resolve(context.Background(), "admin", e.ID, "utility shut off the main"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got, _ := f.mem.Escalations().Find(context.Background(), e.ID)
	if got.Status != escalation.StatusResolved || got.Resolution == "" || got.ResolvedAt == nil {
		t.Fatalf("unexpected resolved escalation: %+v", got)
	}

	// resolving the escalation never moves the workgroup back; the crew
	// does that explicitly
	wg, _ := f.mem.Workgroups().Find(context.Background(), w.ID)
	if wg.TaskStatus != workgroup.StatusNeedsEscalation {
		t.Fatalf("workgroup status must not auto-revert: %s", wg.TaskStatus)
	}
}

func TestResolveRequiresResolution(t *testing.T) {
	f := newFixture(t)
	w := f.createWorkgroup(t)
	e, err := f.svc.Create(context.Background(), "lead", escalation.CreateInput{
		WorkgroupID: w.ID,
		CenterID:    w.CenterID,
		GroupID:     w.GroupID,
		Type:        escalation.TypeAdministrative,
		Reason:      "blocked",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.Resolve(context.Background(), "admin", e.ID, ""); !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("empty resolution: expected ErrInvalidArgument, got %v", err)
	}
}
