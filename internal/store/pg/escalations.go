package pg

import (
	"context"
	"database/sql"
	"time"

	"faithresponders.org/internal/escalation"
)

// EscalationStore implements escalation.Store over the escalations table.
type EscalationStore struct {
	db *sql.DB
}

func (es *EscalationStore) Create(ctx context.Context, e *escalation.Escalation) error {
	return insertDoc(ctx, es.db, `insert into escalations(id, doc) values($1, $2)`, e.ID, e)
}

func (es *EscalationStore) Find(ctx context.Context, id string) (*escalation.Escalation, error) {
	return findDoc[escalation.Escalation](ctx, es.db, `select doc from escalations where id=$1`, "escalation", id)
}

func (es *EscalationStore) List(ctx context.Context, f escalation.Filter) ([]*escalation.Escalation, error) {
	return listDocs[escalation.Escalation](ctx, es.db, `
		select doc from escalations
		where ($1 = '' or doc->>'workgroupId' = $1)
		  and ($2 = '' or doc->>'centerId' = $2)
		  and ($3 = '' or doc->>'groupId' = $3)
		  and ($4 = '' or doc->>'status' = $4)
		  and ($5 = '' or doc->>'type' = $5)
		order by id desc
		limit $6
	`, f.WorkgroupID, f.CenterID, f.GroupID, string(f.Status), string(f.Type), clampLimit(f.Limit))
}

func (es *EscalationStore) SetStatus(ctx context.Context, id string, status escalation.Status, assignedTo string) error {
	return execExpect(ctx, es.db, "escalation", id, `
		update escalations
		set doc = doc
			|| jsonb_build_object('status', to_jsonb($2::text), 'updatedAt', to_jsonb($4::text))
			|| (case when $3::text <> '' then jsonb_build_object('assignedTo', to_jsonb($3::text)) else '{}'::jsonb end)
		where id=$1
	`, id, string(status), assignedTo, nowText())
}

func (es *EscalationStore) Resolve(ctx context.Context, id, resolution string, at time.Time) error {
	return execExpect(ctx, es.db, "escalation", id, `
		update escalations
		set doc = doc || jsonb_build_object(
			'status', to_jsonb($2::text),
			'resolution', to_jsonb($3::text),
			'resolvedAt', to_jsonb($4::text),
			'updatedAt', to_jsonb($5::text))
		where id=$1
	`, id, string(escalation.StatusResolved), resolution, at.UTC().Format(time.RFC3339Nano), nowText())
}
