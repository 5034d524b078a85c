// SPDX-License-Identifier: Apache-2.0

package store

const (
	insertRecord = `
		INSERT INTO records (
			id,
			revision,
			parent_revision,
			fields,
			created_at,
			updated_at,
			deleted,
			sync_status,
			last_synced_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	selectRecord = `
		SELECT
			id,
			revision,
			parent_revision,
			fields,
			created_at,
			updated_at,
			deleted,
			sync_status,
			last_synced_at
		FROM records
		WHERE id = $1;`

	updateRecordHead = `
		UPDATE records SET
			revision        = $1,
			parent_revision = $2,
			fields          = $3,
			updated_at      = $4,
			deleted         = $5,
			sync_status     = $6,
			last_synced_at  = $7
		WHERE id = $8 AND revision = $9;`

	upsertRemoteRecord = `
		INSERT INTO records (
			id, revision, parent_revision, fields,
			created_at, updated_at, deleted, sync_status, last_synced_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			revision        = excluded.revision,
			parent_revision = excluded.parent_revision,
			fields          = excluded.fields,
			updated_at      = excluded.updated_at,
			deleted         = excluded.deleted,
			sync_status     = excluded.sync_status,
			last_synced_at  = excluded.last_synced_at;`

	selectPendingRecords = `
		SELECT
			id, revision, parent_revision, fields,
			created_at, updated_at, deleted, sync_status, last_synced_at
		FROM records
		WHERE sync_status IN ('pending', 'error')
		ORDER BY updated_at;`

	markRecordSynced = `
		UPDATE records SET
			sync_status    = 'synced',
			last_synced_at = $1
		WHERE id = $2 AND revision = $3;`

	markRecordError = `
		UPDATE records SET sync_status = 'error'
		WHERE id = $1;`

	purgeRecord = `
		DELETE FROM records WHERE id = $1 AND deleted = TRUE;`

	insertConflictBranch = `
		INSERT INTO conflicts (record_id, revision, branch, registered_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (record_id, revision) DO NOTHING;`

	markRecordConflicted = `
		UPDATE records SET sync_status = 'conflicted'
		WHERE id = $1;`

	selectConflictBranches = `
		SELECT record_id, branch
		FROM conflicts
		ORDER BY record_id, registered_at;`

	deleteConflictBranches = `
		DELETE FROM conflicts WHERE record_id = $1;`

	replaceRecordHead = `
		INSERT INTO records (
			id, revision, parent_revision, fields,
			created_at, updated_at, deleted, sync_status, last_synced_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			revision        = excluded.revision,
			parent_revision = excluded.parent_revision,
			fields          = excluded.fields,
			updated_at      = excluded.updated_at,
			deleted         = excluded.deleted,
			sync_status     = excluded.sync_status,
			last_synced_at  = excluded.last_synced_at;`

	selectCursor = `
		SELECT value FROM sync_state WHERE key = 'cursor';`

	saveCursor = `
		INSERT INTO sync_state (key, value) VALUES ('cursor', $1)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value;`
)
