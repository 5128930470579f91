// forum-backend/database/tags.go
package database

import (
	"database/sql"
	"fmt"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/models"
)

// resolveTag returns the id of the tag with exactly this text, inserting it
// first if absent. Matching is exact string comparison: no case folding or
// whitespace trimming is performed here; canonicalization is the caller's
// policy.
func resolveTag(tx *sql.Tx, text string) (int64, error) {
	var id int64
	err := tx.QueryRow("SELECT id FROM tags WHERE tag = ?", text).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up tag %q: %w", text, err)
	}

	res, err := tx.Exec("INSERT INTO tags (tag) VALUES (?)", text)
	if err != nil {
		return 0, fmt.Errorf("failed to insert tag %q: %w", text, err)
	}
	return res.LastInsertId()
}

// ListTags returns every tag in the registry.
func (ds *DatabaseService) ListTags() ([]models.Tag, error) {
	rows, err := ds.DB.Query("SELECT id, tag FROM tags ORDER BY id")
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListTags", "error", err)
		}
	}()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Tag); err != nil {
			return nil, apperr.Internal(err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return tags, nil
}
