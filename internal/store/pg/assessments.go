package pg

import (
	"context"
	"database/sql"

	"faithresponders.org/internal/assessment"
)

// AssessmentStore implements assessment.Store over the assessments table.
type AssessmentStore struct {
	db *sql.DB
}

func (as *AssessmentStore) Create(ctx context.Context, a *assessment.Assessment) error {
	return insertDoc(ctx, as.db, `insert into assessments(id, doc) values($1, $2)`, a.ID, a)
}

func (as *AssessmentStore) Find(ctx context.Context, id string) (*assessment.Assessment, error) {
	return findDoc[assessment.Assessment](ctx, as.db, `select doc from assessments where id=$1`, "assessment", id)
}

func (as *AssessmentStore) List(ctx context.Context, f assessment.Filter) ([]*assessment.Assessment, error) {
	flagged := ""
	if f.FlaggedForReview != nil {
		if *f.FlaggedForReview {
			flagged = "true"
		} else {
			flagged = "false"
		}
	}
	return listDocs[assessment.Assessment](ctx, as.db, `
		select doc from assessments
		where ($1 = '' or doc->>'centerId' = $1)
		  and ($2 = '' or doc->>'groupId' = $2)
		  and ($3 = '' or doc->>'flaggedForReview' = $3)
		order by id desc
		limit $4
	`, f.CenterID, f.GroupID, flagged, clampLimit(f.Limit))
}

func (as *AssessmentStore) Patch(ctx context.Context, id string, updates map[string]any) error {
	return execExpect(ctx, as.db, "assessment", id, `
		update assessments
		set doc = doc || $2::jsonb || jsonb_build_object('updatedAt', to_jsonb($3::text))
		where id=$1
	`, id, mustJSON(updates), nowText())
}

// Reassess merges the updates and computes the new counter inside the
// UPDATE, so concurrent reassessments each land exactly once. The counter
// and flag are merged last and win over anything in the update document.
func (as *AssessmentStore) Reassess(ctx context.Context, id string, updates map[string]any, flag bool) error {
	return execExpect(ctx, as.db, "assessment", id, `
		update assessments
		set doc = doc || $2::jsonb || jsonb_build_object(
			'reassessmentCount', coalesce((doc->>'reassessmentCount')::int, 0) + 1,
			'flaggedForReview', $3::bool,
			'updatedAt', to_jsonb($4::text))
		where id=$1
	`, id, mustJSON(updates), flag, nowText())
}
