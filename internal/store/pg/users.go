package pg

import (
	"context"
	"database/sql"

	"faithresponders.org/internal/directory"
)

// UserStore implements directory.Store over the users table.
type UserStore struct {
	db *sql.DB
}

func (us *UserStore) Put(ctx context.Context, u *directory.User) error {
	return insertDoc(ctx, us.db, `
		insert into users(id, doc) values($1, $2)
		on conflict (id) do update set doc = excluded.doc
	`, u.ID, u)
}

func (us *UserStore) Find(ctx context.Context, id string) (*directory.User, error) {
	return findDoc[directory.User](ctx, us.db, `select doc from users where id=$1`, "user", id)
}

func (us *UserStore) List(ctx context.Context, f directory.Filter) ([]*directory.User, error) {
	return listDocs[directory.User](ctx, us.db, `
		select doc from users
		where ($1 = '' or doc->'roles' ? $1)
		  and ($2 = '' or doc->'groupIds' ? $2)
		  and ($3 = '' or doc->'centerIds' ? $3)
		order by id desc
		limit $4
	`, string(f.Role), f.GroupID, f.CenterID, clampLimit(f.Limit))
}

func (us *UserStore) Patch(ctx context.Context, id string, updates map[string]any) error {
	return execExpect(ctx, us.db, "user", id, `
		update users
		set doc = doc || $2::jsonb || jsonb_build_object('updatedAt', to_jsonb($3::text))
		where id=$1
	`, id, mustJSON(updates), nowText())
}

func (us *UserStore) SetRoles(ctx context.Context, id string, roles []directory.Role, status directory.ApprovalStatus) error {
	return execExpect(ctx, us.db, "user", id, `
		update users
		set doc = doc || jsonb_build_object(
			'roles', $2::jsonb,
			'roleApprovalStatus', to_jsonb($3::text),
			'updatedAt', to_jsonb($4::text))
		where id=$1
	`, id, mustJSON(roles), string(status), nowText())
}

func (us *UserStore) SetApprovalStatus(ctx context.Context, id string, status directory.ApprovalStatus) error {
	return execExpect(ctx, us.db, "user", id, `
		update users
		set doc = doc || jsonb_build_object(
			'roleApprovalStatus', to_jsonb($2::text),
			'updatedAt', to_jsonb($3::text))
		where id=$1
	`, id, string(status), nowText())
}

func (us *UserStore) AddGroup(ctx context.Context, userID, groupID string) error {
	return us.addToArray(ctx, userID, "groupIds", groupID)
}

func (us *UserStore) AddCenter(ctx context.Context, userID, centerID string) error {
	return us.addToArray(ctx, userID, "centerIds", centerID)
}

// addToArray unions a value into one of the user's membership arrays in a
// single statement.
func (us *UserStore) addToArray(ctx context.Context, userID, field, value string) error {
	return execExpect(ctx, us.db, "user", userID, `
		update users
		set doc = (case
				when doc->$2 ? $3 then doc
				else jsonb_set(doc, array[$2], coalesce(doc->$2, '[]'::jsonb) || to_jsonb($3::text))
			end) || jsonb_build_object('updatedAt', to_jsonb($4::text))
		where id=$1
	`, userID, field, value, nowText())
}

func (us *UserStore) AttachLegalRelease(ctx context.Context, userID, releaseID string) error {
	return execExpect(ctx, us.db, "user", userID, `
		update users
		set doc = doc || jsonb_build_object(
			'legalReleaseId', to_jsonb($2::text),
			'legalReleaseSigned', false,
			'updatedAt', to_jsonb($3::text))
		where id=$1
	`, userID, releaseID, nowText())
}

func (us *UserStore) MarkReleaseSigned(ctx context.Context, userID string) error {
	return execExpect(ctx, us.db, "user", userID, `
		update users
		set doc = doc || jsonb_build_object(
			'legalReleaseSigned', true,
			'updatedAt', to_jsonb($2::text))
		where id=$1
	`, userID, nowText())
}
