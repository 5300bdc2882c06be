package pg

import (
	"context"
	"database/sql"

	"faithresponders.org/internal/roster"
)

// GroupStore implements roster.GroupStore over the groups table.
type GroupStore struct {
	db *sql.DB
}

func (gs *GroupStore) Create(ctx context.Context, g *roster.Group) error {
	return insertDoc(ctx, gs.db, `insert into groups(id, doc) values($1, $2)`, g.ID, g)
}

func (gs *GroupStore) Find(ctx context.Context, id string) (*roster.Group, error) {
	return findDoc[roster.Group](ctx, gs.db, `select doc from groups where id=$1`, "group", id)
}

func (gs *GroupStore) List(ctx context.Context, limit int) ([]*roster.Group, error) {
	return listDocs[roster.Group](ctx, gs.db, `
		select doc from groups order by id desc limit $1
	`, clampLimit(limit))
}

func (gs *GroupStore) Patch(ctx context.Context, id string, updates map[string]any) error {
	return execExpect(ctx, gs.db, "group", id, `
		update groups
		set doc = doc || $2::jsonb || jsonb_build_object('updatedAt', to_jsonb($3::text))
		where id=$1
	`, id, mustJSON(updates), nowText())
}

func (gs *GroupStore) AddUser(ctx context.Context, groupID, userID string) error {
	return gs.addToArray(ctx, groupID, "userIds", userID)
}

func (gs *GroupStore) AddCenter(ctx context.Context, groupID, centerID string) error {
	return gs.addToArray(ctx, groupID, "centerIds", centerID)
}

func (gs *GroupStore) addToArray(ctx context.Context, groupID, field, value string) error {
	return execExpect(ctx, gs.db, "group", groupID, `
		update groups
		set doc = (case
				when doc->$2 ? $3 then doc
				else jsonb_set(doc, array[$2], coalesce(doc->$2, '[]'::jsonb) || to_jsonb($3::text))
			end) || jsonb_build_object('updatedAt', to_jsonb($4::text))
		where id=$1
	`, groupID, field, value, nowText())
}

// CenterStore implements roster.CenterStore over the centers table.
type CenterStore struct {
	db *sql.DB
}

func (cs *CenterStore) Create(ctx context.Context, c *roster.Center) error {
	return insertDoc(ctx, cs.db, `insert into centers(id, doc) values($1, $2)`, c.ID, c)
}

func (cs *CenterStore) Find(ctx context.Context, id string) (*roster.Center, error) {
	return findDoc[roster.Center](ctx, cs.db, `select doc from centers where id=$1`, "center", id)
}

func (cs *CenterStore) List(ctx context.Context, groupID string, limit int) ([]*roster.Center, error) {
	return listDocs[roster.Center](ctx, cs.db, `
		select doc from centers
		where ($1 = '' or doc->>'groupId' = $1)
		order by id desc
		limit $2
	`, groupID, clampLimit(limit))
}

func (cs *CenterStore) Patch(ctx context.Context, id string, updates map[string]any) error {
	return execExpect(ctx, cs.db, "center", id, `
		update centers
		set doc = doc || $2::jsonb || jsonb_build_object('updatedAt', to_jsonb($3::text))
		where id=$1
	`, id, mustJSON(updates), nowText())
}
