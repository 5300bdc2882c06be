package assessment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"faithresponders.org/internal/assessment"
	"faithresponders.org/internal/directory"
	"faithresponders.org/internal/fault"
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

func newAssessments(t *testing.T) (*assessment.Service, *memory.Store) {
	t.Helper()
	mem := memory.New()
	dir := directory.NewService(mem.Users())
	svc := assessment.NewService(mem.Assessments(), dir)
	seedUser(t, mem.Users(), "assessor-1", directory.RoleAssessor)
	seedUser(t, mem.Users(), "assessor-2", directory.RoleAssessor)
	seedUser(t, mem.Users(), "admin", directory.RoleAdministrator)
	seedUser(t, mem.Users(), "worker", directory.RoleWorker)
	return svc, mem
}

func validInput() assessment.CreateInput {
	affected := 4
	return assessment.CreateInput{
		CenterID:       "center-1",
		GroupID:        "group-1",
		PlaceName:      "Miller residence",
		Address:        "42 Oak St",
		Severity:       assessment.SeverityHigh,
		Damages:        "roof torn open, water in the kitchen",
		Needs:          "tarps, dehumidifier",
		AffectedPeople: &affected,
	}
}

func TestCreateAssessment(t *testing.T) {
	svc, _ := newAssessments(t)

	a, err := svc.Create(context.Background(), "assessor-1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.AssessorID != "assessor-1" {
		t.Fatalf("assessor of record must be the caller, got %s", a.AssessorID)
	}
	if a.ReassessmentCount != 0 || a.FlaggedForReview {
		t.Fatalf("unexpected initial state: %+v", a)
	}
}

func TestCreateAssessmentRequiresAssessorRole(t *testing.T) {
	svc, _ := newAssessments(t)

	if _, err := svc.Create(context.Background(), "worker", validInput()); !errors.Is(err, fault.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestCreateAssessmentValidation(t *testing.T) {
	svc, _ := newAssessments(t)

	in := validInput()
	in.Severity = "catastrophic"
	if _, err := svc.Create(context.Background(), "assessor-1", in); !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("unknown severity: expected ErrInvalidArgument, got %v", err)
	}

	in = validInput()
	neg := -1
	in.AffectedPeople = &neg
	if _, err := svc.Create(context.Background(), "assessor-1", in); !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("negative affectedPeople: expected ErrInvalidArgument, got %v", err)
	}

	in = validInput()
	in.CenterID = ""
	if _, err := svc.Create(context.Background(), "assessor-1", in); !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("missing centerId: expected ErrInvalidArgument, got %v", err)
	}

	in = validInput()
	in.PlaceName = ""
	if _, err := svc.Create(context.Background(), "assessor-1", in); !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("missing placeName: expected ErrInvalidArgument, got %v", err)
	}

	in = validInput()
	in.Damages = ""
	if _, err := svc.Create(context.Background(), "assessor-1", in); !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("missing damages: expected ErrInvalidArgument, got %v", err)
	}

	in = validInput()
	in.Needs = ""
	if _, err := svc.Create(context.Background(), "assessor-1", in); !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("missing needs: expected ErrInvalidArgument, got %v", err)
	}

	in = validInput()
	in.AffectedPeople = nil
	if _, err := svc.Create(context.Background(), "assessor-1", in); !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("missing affectedPeople: expected ErrInvalidArgument, got %v", err)
	}

	// an explicit zero is a legitimate count
	in = validInput()
	zero := 0
	in.AffectedPeople = &zero
	if _, err := svc.Create(context.Background(), "assessor-1", in); err != nil {
		t.Fatalf("zero affectedPeople: %v", err)
	}
}

func TestUpdateOwnerOrAdminOnly(t *testing.T) {
	svc, mem := newAssessments(t)
	a, err := svc.Create(context.Background(), "assessor-1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Update(context.Background(), "assessor-2", a.ID, map[string]any{"damages": "x"}); !errors.Is(err, fault.ErrPermissionDenied) {
		t.Fatalf("other assessor: expected ErrPermissionDenied, got %v", err)
	}
	if err := svc.Update(context.Background(), "assessor-1", a.ID, map[string]any{"damages": "roof gone"}); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if err := svc.Update(context.Background(), "admin", a.ID, map[string]any{
		"severity":   "critical",
		"assessorId": "hijack",
	}); err != nil {
		t.Fatalf("admin update: %v", err)
	}

	got, _ := mem.Assessments().Find(context.Background(), a.ID)
	if got.Damages != "roof gone" || got.Severity != assessment.SeverityCritical {
		t.Fatalf("updates not applied: %+v", got)
	}
	if got.AssessorID != "assessor-1" {
		t.Fatalf("assessorId must be immutable, got %s", got.AssessorID)
	}
}

func TestReassessIncrementsAndFlags(t *testing.T) {
	svc, mem := newAssessments(t)
	a, err := svc.Create(context.Background(), "assessor-1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// any assessor may reassess, not only the owner
	if err := svc.Reassess(context.Background(), "assessor-2", a.ID, map[string]any{"severity": "medium"}, true); err != nil {
		t.Fatalf("reassess: %v", err)
	}
	got, _ := mem.Assessments().Find(context.Background(), a.ID)
	if got.ReassessmentCount != 1 || !got.FlaggedForReview || got.Severity != assessment.SeverityMedium {
		t.Fatalf("unexpected state after reassess: %+v", got)
	}
	if got.AssessorID != "assessor-1" {
		t.Fatalf("reassess must not reassign the assessor of record: %s", got.AssessorID)
	}

	// omitting the flag clears it
	if err := svc.Reassess(context.Background(), "assessor-1", a.ID, nil, false); err != nil {
		t.Fatalf("reassess: %v", err)
	}
	got, _ = mem.Assessments().Find(context.Background(), a.ID)
	if got.ReassessmentCount != 2 || got.FlaggedForReview {
		t.Fatalf("flag must be overwritten each reassess: %+v", got)
	}
}

func TestReassessConcurrentIncrements(t *testing.T) {
	svc, mem := newAssessments(t)
	a, err := svc.Create(context.Background(), "assessor-1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if err := svc.Reassess(context.Background(), "assessor-2", a.ID, nil, false); err != nil {
				t.Errorf("reassess: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := mem.Assessments().Find(context.Background(), a.ID)
	if got.ReassessmentCount != n {
		t.Fatalf("lost increments: got %d want %d", got.ReassessmentCount, n)
	}
}

func TestReassessRequiresAssessorRole(t *testing.T) {
	svc, _ := newAssessments(t)
	a, err := svc.Create(context.Background(), "assessor-1", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Reassess(context.Background(), "admin", a.ID, nil, false); !errors.Is(err, fault.ErrPermissionDenied) {
		t.Fatalf("admin without assessor role: expected ErrPermissionDenied, got %v", err)
	}
}

func TestListFlaggedFilter(t *testing.T) {
	svc, _ := newAssessments(t)
	a1, _ := svc.Create(context.Background(), "assessor-1", validInput())
	if _, err := svc.Create(context.Background(), "assessor-1", validInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Reassess(context.Background(), "assessor-1", a1.ID, nil, true); err != nil {
		t.Fatalf("reassess: %v", err)
	}

	flagged := true
	items, err := svc.List(context.Background(), "admin", assessment.Filter{FlaggedForReview: &flagged})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != a1.ID {
		t.Fatalf("unexpected flagged list: %v", items)
	}
}
