package pg

import (
	"context"
	"database/sql"

	"faithresponders.org/internal/workgroup"
)

// WorkgroupStore implements workgroup.Store and the escalation push over the
// workgroups table.
type WorkgroupStore struct {
	db *sql.DB
}

func (ws *WorkgroupStore) Create(ctx context.Context, w *workgroup.Workgroup) error {
	return insertDoc(ctx, ws.db, `insert into workgroups(id, doc) values($1, $2)`, w.ID, w)
}

func (ws *WorkgroupStore) Find(ctx context.Context, id string) (*workgroup.Workgroup, error) {
	return findDoc[workgroup.Workgroup](ctx, ws.db, `select doc from workgroups where id=$1`, "workgroup", id)
}

func (ws *WorkgroupStore) List(ctx context.Context, f workgroup.Filter) ([]*workgroup.Workgroup, error) {
	return listDocs[workgroup.Workgroup](ctx, ws.db, `
		select doc from workgroups
		where ($1 = '' or doc->>'centerId' = $1)
		  and ($2 = '' or doc->>'groupId' = $2)
		  and ($3 = '' or doc->>'assessmentId' = $3)
		  and ($4 = '' or doc->>'taskStatus' = $4)
		order by id desc
		limit $5
	`, f.CenterID, f.GroupID, f.AssessmentID, string(f.TaskStatus), clampLimit(f.Limit))
}

func (ws *WorkgroupStore) Patch(ctx context.Context, id string, updates map[string]any) error {
	return execExpect(ctx, ws.db, "workgroup", id, `
		update workgroups
		set doc = doc || $2::jsonb || jsonb_build_object('updatedAt', to_jsonb($3::text))
		where id=$1
	`, id, mustJSON(updates), nowText())
}

// UpdateStatus sets the task status and appends the note and photos to their
// arrays in one statement.
func (ws *WorkgroupStore) UpdateStatus(ctx context.Context, id string, status workgroup.TaskStatus, note *workgroup.ProgressNote, photoURLs []string) error {
	notes := []workgroup.ProgressNote{}
	if note != nil {
		notes = append(notes, *note)
	}
	if photoURLs == nil {
		photoURLs = []string{}
	}
	return execExpect(ctx, ws.db, "workgroup", id, `
		update workgroups
		set doc = jsonb_set(
			jsonb_set(
				doc || jsonb_build_object('taskStatus', to_jsonb($2::text), 'updatedAt', to_jsonb($5::text)),
				'{progressNotes}', coalesce(doc->'progressNotes', '[]'::jsonb) || $3::jsonb),
			'{photoUrls}', coalesce(doc->'photoUrls', '[]'::jsonb) || $4::jsonb)
		where id=$1
	`, id, string(status), mustJSON(notes), mustJSON(photoURLs), nowText())
}

func (ws *WorkgroupStore) AddWorker(ctx context.Context, id, userID string) error {
	return execExpect(ctx, ws.db, "workgroup", id, `
		update workgroups
		set doc = (case
				when doc->'workerUserIds' ? $2 then doc
				else jsonb_set(doc, '{workerUserIds}', coalesce(doc->'workerUserIds', '[]'::jsonb) || to_jsonb($2::text))
			end) || jsonb_build_object('updatedAt', to_jsonb($3::text))
		where id=$1
	`, id, userID, nowText())
}

// MarkNeedsEscalation forces the task status without touching notes or
// photos. Used by the escalation flow.
func (ws *WorkgroupStore) MarkNeedsEscalation(ctx context.Context, id string) error {
	return execExpect(ctx, ws.db, "workgroup", id, `
		update workgroups
		set doc = doc || jsonb_build_object(
			'taskStatus', to_jsonb($2::text),
			'updatedAt', to_jsonb($3::text))
		where id=$1
	`, id, string(workgroup.StatusNeedsEscalation), nowText())
}
