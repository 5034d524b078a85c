// SPDX-License-Identifier: Apache-2.0

package store

const (
	selectRemoteRecord = `
		SELECT
			id,
			revision,
			parent_revision,
			fields,
			created_at,
			updated_at,
			deleted
		FROM records
		WHERE collection = $1 AND id = $2;`

	insertRemoteRecord = `
		INSERT INTO records (
			collection,
			id,
			revision,
			parent_revision,
			fields,
			created_at,
			updated_at,
			deleted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	updateRemoteRecord = `
		UPDATE records SET
			revision        = $1,
			parent_revision = $2,
			fields          = $3,
			updated_at      = $4,
			deleted         = $5,
			seq             = nextval('records_change_seq')
		WHERE collection = $6 AND id = $7 AND revision = $8;`

	selectRemoteChanges = `
		SELECT
			id,
			revision,
			parent_revision,
			fields,
			created_at,
			updated_at,
			deleted,
			seq
		FROM records
		WHERE collection = $1 AND seq > $2
		ORDER BY seq
		LIMIT $3;`
)
