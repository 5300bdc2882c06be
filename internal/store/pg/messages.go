package pg

import (
	"context"
	"database/sql"
	"time"

	"faithresponders.org/internal/messaging"
	"faithresponders.org/internal/release"
)

// MessageStore implements messaging.Store over the messages table.
type MessageStore struct {
	db *sql.DB
}

func (ms *MessageStore) Create(ctx context.Context, m *messaging.Message) error {
	return insertDoc(ctx, ms.db, `insert into messages(id, doc) values($1, $2)`, m.ID, m)
}

func (ms *MessageStore) Thread(ctx context.Context, threadID string, limit int) ([]*messaging.Message, error) {
	return listDocs[messaging.Message](ctx, ms.db, `
		select doc from messages
		where doc->>'threadId' = $1
		order by id desc
		limit $2
	`, threadID, clampLimit(limit))
}

// ReleaseStore implements release.Store over the legal_releases table.
type ReleaseStore struct {
	db *sql.DB
}

func (rs *ReleaseStore) Create(ctx context.Context, r *release.LegalRelease) error {
	return insertDoc(ctx, rs.db, `insert into legal_releases(id, doc) values($1, $2)`, r.ID, r)
}

func (rs *ReleaseStore) Find(ctx context.Context, id string) (*release.LegalRelease, error) {
	return findDoc[release.LegalRelease](ctx, rs.db, `select doc from legal_releases where id=$1`, "legal release", id)
}

func (rs *ReleaseStore) MarkSigned(ctx context.Context, id string, at time.Time, signatureImageURL string) error {
	return execExpect(ctx, rs.db, "legal release", id, `
		update legal_releases
		set doc = doc
			|| jsonb_build_object(
				'signed', true,
				'signedDigitally', true,
				'signedAt', to_jsonb($2::text),
				'updatedAt', to_jsonb($3::text))
			|| (case when $4::text <> '' then jsonb_build_object('signatureImageUrl', to_jsonb($4::text)) else '{}'::jsonb end)
		where id=$1
	`, id, at.UTC().Format(time.RFC3339Nano), nowText(), signatureImageURL)
}
