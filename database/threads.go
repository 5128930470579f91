// forum-backend/database/threads.go
package database

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/config"
	"github.com/Desi451/forum-backend/models"
	"github.com/Desi451/forum-backend/utils"
)

// dedupeTags removes duplicate tag strings while preserving order. Matching
// is exact: no case folding, by design.
func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func validateTitle(title string) *apperr.FieldError {
	if strings.TrimSpace(title) == "" || len(title) < config.MinTitleLen || len(title) > config.MaxTitleLen {
		return &apperr.FieldError{
			Rule:    "InvalidTitle",
			Message: "The title must be between 5 and 100 characters long.",
		}
	}
	return nil
}

func validateDescription(description string) *apperr.FieldError {
	if strings.TrimSpace(description) == "" || len(description) < config.MinDescriptionLen || len(description) > config.MaxDescriptionLen {
		return &apperr.FieldError{
			Rule:    "InvalidDescription",
			Message: "The description must be between 10 and 1000 characters long.",
		}
	}
	return nil
}

// CreateThread creates a new root thread with its images and tags. All
// violated validation rules are reported together in one error.
func (ds *DatabaseService) CreateThread(authorID int64, title, description string, tags []string, images []models.NewImage) (int64, error) {
	if authorID <= 0 {
		return 0, apperr.New(apperr.CodeUnauthenticated, "You aren't logged in.")
	}

	var errs []apperr.FieldError
	if fe := validateTitle(title); fe != nil {
		errs = append(errs, *fe)
	}
	if fe := validateDescription(description); fe != nil {
		errs = append(errs, *fe)
	}
	errs = append(errs, validateImages(images)...)

	tags = dedupeTags(tags)
	if len(tags) > config.MaxTagsPerThread {
		errs = append(errs, apperr.FieldError{
			Rule:    "TooManyTags",
			Message: fmt.Sprintf("You can only add up to %d tags.", config.MaxTagsPerThread),
		})
	}
	if len(errs) > 0 {
		return 0, apperr.Validation(errs)
	}

	tx, err := ds.DB.Begin()
	if err != nil {
		return 0, apperr.Internal(err)
	}
	defer ds.rollback(tx, "CreateThread")

	res, err := tx.Exec(`
		INSERT INTO threads (author_id, title, description, creation_date, deleted)
		VALUES (?, ?, ?, ?, 0)`,
		authorID, title, description, utils.GetSQLTime())
	if err != nil {
		return 0, apperr.Internal(err)
	}
	threadID, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Internal(err)
	}

	saved, err := ds.saveThreadImages(tx, threadID, images)
	if err != nil {
		ds.discardFiles(saved)
		return 0, apperr.Internal(err)
	}

	for _, tag := range tags {
		tagID, err := resolveTag(tx, tag)
		if err != nil {
			ds.discardFiles(saved)
			return 0, apperr.Internal(err)
		}
		if _, err := tx.Exec("INSERT INTO thread_tags (thread_id, tag_id) VALUES (?, ?)", threadID, tagID); err != nil {
			ds.discardFiles(saved)
			return 0, apperr.Internal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		ds.discardFiles(saved)
		return 0, apperr.Internal(err)
	}
	return threadID, nil
}

// CreateSubthread creates a reply node under parentID. The prime pointer is
// flattened: it always references the forest root, whatever the nesting
// depth. The sub-thread copies the root's tag set as it exists right now;
// later edits to the root's tags do not propagate.
func (ds *DatabaseService) CreateSubthread(parentID, authorID int64, description string, images []models.NewImage) (int64, error) {
	if authorID <= 0 {
		return 0, apperr.New(apperr.CodeUnauthenticated, "You aren't logged in.")
	}

	var errs []apperr.FieldError
	if fe := validateDescription(description); fe != nil {
		errs = append(errs, *fe)
	}
	errs = append(errs, validateImages(images)...)
	if len(errs) > 0 {
		return 0, apperr.Validation(errs)
	}

	parent, err := ds.getThread(parentID)
	if err != nil {
		return 0, err
	}
	if parent.Deleted {
		return 0, apperr.New(apperr.CodeNotFound, "Thread not found.")
	}

	primeID := parent.ID
	if parent.PrimeThreadID.Valid {
		primeID = parent.PrimeThreadID.Int64
	}

	tx, err := ds.DB.Begin()
	if err != nil {
		return 0, apperr.Internal(err)
	}
	defer ds.rollback(tx, "CreateSubthread")

	res, err := tx.Exec(`
		INSERT INTO threads (author_id, sup_thread_id, prime_thread_id, title, description, creation_date, deleted)
		VALUES (?, ?, ?, '', ?, ?, 0)`,
		authorID, parentID, primeID, description, utils.GetSQLTime())
	if err != nil {
		return 0, apperr.Internal(err)
	}
	threadID, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Internal(err)
	}

	// Copy-on-create tag inheritance from the forest root.
	if _, err := tx.Exec(`
		INSERT INTO thread_tags (thread_id, tag_id)
		SELECT ?, tag_id FROM thread_tags WHERE thread_id = ?`, threadID, primeID); err != nil {
		return 0, apperr.Internal(err)
	}

	saved, err := ds.saveThreadImages(tx, threadID, images)
	if err != nil {
		ds.discardFiles(saved)
		return 0, apperr.Internal(err)
	}

	if err := tx.Commit(); err != nil {
		ds.discardFiles(saved)
		return 0, apperr.Internal(err)
	}
	return threadID, nil
}

// EditThread applies a partial edit. Only the author may edit. A title patch
// is only legal on root threads. A tag patch is a full diff against the
// stored set. A non-empty image patch replaces every stored image.
func (ds *DatabaseService) EditThread(threadID, callerID int64, patch models.ThreadPatch) error {
	if callerID <= 0 {
		return apperr.New(apperr.CodeUnauthenticated, "You aren't logged in.")
	}

	t, err := ds.getThread(threadID)
	if err != nil {
		return err
	}
	if t.AuthorID != callerID {
		return apperr.New(apperr.CodeForbidden, "Only the author may edit this thread.")
	}

	var errs []apperr.FieldError
	if patch.Title != nil {
		if !t.IsRoot() {
			errs = append(errs, apperr.FieldError{
				Rule:    "CannotEditTitle",
				Message: "Only root threads have an editable title.",
			})
		} else if fe := validateTitle(*patch.Title); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if patch.Description != nil {
		if fe := validateDescription(*patch.Description); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if len(patch.Images) > 0 {
		errs = append(errs, validateImages(patch.Images)...)
	}
	newTags := dedupeTags(patch.Tags)
	if patch.Tags != nil && len(newTags) > config.MaxTagsPerThread {
		errs = append(errs, apperr.FieldError{
			Rule:    "TooManyTags",
			Message: fmt.Sprintf("You can only add up to %d tags.", config.MaxTagsPerThread),
		})
	}
	if len(errs) > 0 {
		return apperr.Validation(errs)
	}

	tx, err := ds.DB.Begin()
	if err != nil {
		return apperr.Internal(err)
	}
	defer ds.rollback(tx, "EditThread")

	if patch.Title != nil {
		if _, err := tx.Exec("UPDATE threads SET title = ? WHERE id = ?", *patch.Title, threadID); err != nil {
			return apperr.Internal(err)
		}
	}
	if patch.Description != nil {
		if _, err := tx.Exec("UPDATE threads SET description = ? WHERE id = ?", *patch.Description, threadID); err != nil {
			return apperr.Internal(err)
		}
	}

	if patch.Tags != nil {
		if err := ds.diffThreadTags(tx, threadID, newTags); err != nil {
			return apperr.Internal(err)
		}
	}

	var saved []string
	if len(patch.Images) > 0 {
		// Partial image updates are not supported: wipe and replace.
		if err := ds.removeThreadImages(tx, threadID); err != nil {
			return apperr.Internal(err)
		}
		if saved, err = ds.saveThreadImages(tx, threadID, patch.Images); err != nil {
			ds.discardFiles(saved)
			return apperr.Internal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		ds.discardFiles(saved)
		return apperr.Internal(err)
	}
	return nil
}

// diffThreadTags reconciles the stored tag set with want: stored tags absent
// from want are unlinked, tags in want absent from the store are linked,
// creating tag rows as needed.
func (ds *DatabaseService) diffThreadTags(tx *sql.Tx, threadID int64, want []string) error {
	rows, err := tx.Query(`
		SELECT g.id, g.tag FROM thread_tags tt
		JOIN tags g ON tt.tag_id = g.id
		WHERE tt.thread_id = ?`, threadID)
	if err != nil {
		return fmt.Errorf("failed to query current tags: %w", err)
	}
	current := make(map[string]int64)
	for rows.Next() {
		var id int64
		var text string
		if err := rows.Scan(&id, &text); err == nil {
			current[text] = id
		}
	}
	if err := rows.Close(); err != nil {
		ds.logger.Warn("Failed to close rows in diffThreadTags", "error", err)
	}

	wanted := make(map[string]bool, len(want))
	for _, text := range want {
		wanted[text] = true
	}

	for text, tagID := range current {
		if !wanted[text] {
			if _, err := tx.Exec("DELETE FROM thread_tags WHERE thread_id = ? AND tag_id = ?", threadID, tagID); err != nil {
				return fmt.Errorf("failed to unlink tag %q: %w", text, err)
			}
		}
	}
	for _, text := range want {
		if _, ok := current[text]; ok {
			continue
		}
		tagID, err := resolveTag(tx, text)
		if err != nil {
			return err
		}
		if _, err := tx.Exec("INSERT INTO thread_tags (thread_id, tag_id) VALUES (?, ?)", threadID, tagID); err != nil {
			return fmt.Errorf("failed to link tag %q: %w", text, err)
		}
	}
	return nil
}

// DeleteThread soft-deletes a thread. Deleting a root takes down its whole
// tree in one pass; deleting a sub-thread prunes only that node, leaving its
// children orphaned but reachable. The asymmetry is a product rule, kept as
// an explicit branch.
func (ds *DatabaseService) DeleteThread(threadID, callerID int64) error {
	if callerID <= 0 {
		return apperr.New(apperr.CodeUnauthenticated, "You aren't logged in.")
	}

	t, err := ds.getThread(threadID)
	if err != nil {
		return err
	}
	if t.AuthorID != callerID {
		return apperr.New(apperr.CodeForbidden, "Only the author may delete this thread.")
	}

	if t.IsRoot() {
		_, err = ds.DB.Exec(`
			UPDATE threads SET deleted = 1
			WHERE id = ? OR prime_thread_id = ? OR sup_thread_id = ?`,
			threadID, threadID, threadID)
	} else {
		_, err = ds.DB.Exec("UPDATE threads SET deleted = 1 WHERE id = ?", threadID)
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// treeRow is one thread joined with its author, as scanned for assembly.
type treeRow struct {
	thread   models.Thread
	nickname string
	avatar   sql.NullString
}

// GetThreadTree loads the root and assembles its whole tree in memory: one
// full thread scan grouped by parent id instead of recursive queries. Nodes
// carry the deleted flag rather than being filtered out, so a tree taken
// down by a ban still renders with its state visible.
func (ds *DatabaseService) GetThreadTree(rootID int64) (*models.ThreadNode, error) {
	root, err := ds.getThread(rootID)
	if err != nil {
		return nil, err
	}
	if !root.IsRoot() {
		return nil, apperr.New(apperr.CodeNotFound, "Thread not found.")
	}

	rows, err := ds.DB.Query(`
		SELECT t.id, t.author_id, t.sup_thread_id, t.prime_thread_id, t.title, t.description,
		       t.creation_date, t.deleted, u.nickname, u.profile_picture
		FROM threads t
		JOIN users u ON t.author_id = u.id`)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetThreadTree", "error", err)
		}
	}()

	all := make(map[int64]*treeRow)
	children := make(map[int64][]*treeRow)
	for rows.Next() {
		var r treeRow
		if err := rows.Scan(&r.thread.ID, &r.thread.AuthorID, &r.thread.SupThreadID, &r.thread.PrimeThreadID,
			&r.thread.Title, &r.thread.Description, &r.thread.CreationDate, &r.thread.Deleted,
			&r.nickname, &r.avatar); err != nil {
			return nil, apperr.Internal(err)
		}
		row := r
		all[row.thread.ID] = &row
		if row.thread.SupThreadID.Valid {
			children[row.thread.SupThreadID.Int64] = append(children[row.thread.SupThreadID.Int64], &row)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}

	scores, err := ds.likeScores()
	if err != nil {
		return nil, err
	}
	tags, err := ds.tagsByThread()
	if err != nil {
		return nil, err
	}
	images, err := ds.imagesByThread()
	if err != nil {
		return nil, err
	}

	var build func(r *treeRow) *models.ThreadNode
	build = func(r *treeRow) *models.ThreadNode {
		node := &models.ThreadNode{
			ThreadID:       r.thread.ID,
			Title:          root.Title, // sub-threads inherit the root's title
			Description:    r.thread.Description,
			AuthorID:       r.thread.AuthorID,
			AuthorNickname: r.nickname,
			CreationDate:   r.thread.CreationDate,
			Deleted:        r.thread.Deleted,
			Likes:          scores[r.thread.ID],
			Tags:           tags[r.thread.ID],
			Images:         images[r.thread.ID],
		}
		if r.avatar.Valid {
			node.AuthorAvatar = ds.urls.Resolve(r.avatar.String)
		}
		kids := children[r.thread.ID]
		sort.Slice(kids, func(i, j int) bool {
			return kids[i].thread.CreationDate.Before(kids[j].thread.CreationDate)
		})
		for _, kid := range kids {
			node.Subthreads = append(node.Subthreads, build(kid))
		}
		return node
	}

	rootRow, ok := all[rootID]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "Thread not found.")
	}
	return build(rootRow), nil
}

// likeScores aggregates vote totals per thread. Values are strictly +1/-1 in
// the validated domain, so count(positive) - count(negative) and sum(value)
// coincide; the count form is the one we standardize on.
func (ds *DatabaseService) likeScores() (map[int64]int, error) {
	rows, err := ds.DB.Query(`
		SELECT thread_id,
		       SUM(CASE WHEN value > 0 THEN 1 ELSE 0 END) - SUM(CASE WHEN value < 0 THEN 1 ELSE 0 END)
		FROM likes GROUP BY thread_id`)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	scores := make(map[int64]int)
	for rows.Next() {
		var id int64
		var score int
		if err := rows.Scan(&id, &score); err != nil {
			return nil, apperr.Internal(err)
		}
		scores[id] = score
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return scores, nil
}

func (ds *DatabaseService) tagsByThread() (map[int64][]string, error) {
	rows, err := ds.DB.Query(`
		SELECT tt.thread_id, g.tag FROM thread_tags tt
		JOIN tags g ON tt.tag_id = g.id
		ORDER BY tt.thread_id, g.id`)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	tags := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, apperr.Internal(err)
		}
		tags[id] = append(tags[id], text)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return tags, nil
}

func (ds *DatabaseService) imagesByThread() (map[int64][]string, error) {
	rows, err := ds.DB.Query("SELECT thread_id, image FROM images ORDER BY thread_id, id")
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	images := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var ref string
		if err := rows.Scan(&id, &ref); err != nil {
			return nil, apperr.Internal(err)
		}
		images[id] = append(images[id], ds.urls.Resolve(ref))
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return images, nil
}

// ListThreads returns a page of non-deleted root threads, newest first. The
// filter narrows by author, by keyword (title or tag text substring), or to
// threads that have collected dislikes, ordered by dislike count.
func (ds *DatabaseService) ListThreads(filter models.ThreadFilter, page, size int) (*models.ThreadPage, error) {
	if err := checkPage(page, size); err != nil {
		return nil, err
	}

	where := "t.deleted = 0 AND t.sup_thread_id IS NULL"
	var args []interface{}
	if filter.AuthorID > 0 {
		where += " AND t.author_id = ?"
		args = append(args, filter.AuthorID)
	}
	if filter.Keyword != "" {
		where += ` AND (t.title LIKE ? OR EXISTS (
			SELECT 1 FROM thread_tags tt JOIN tags g ON tt.tag_id = g.id
			WHERE tt.thread_id = t.id AND g.tag LIKE ?))`
		pattern := "%" + filter.Keyword + "%"
		args = append(args, pattern, pattern)
	}

	join := ""
	order := "t.creation_date DESC"
	if filter.MostDisliked {
		join = `JOIN (SELECT thread_id, COUNT(*) AS dislikes FROM likes WHERE value < 0 GROUP BY thread_id) d
			ON d.thread_id = t.id`
		order = "d.dislikes DESC, t.creation_date DESC"
	}

	var totalCount int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM threads t %s WHERE %s", join, where)
	if err := ds.DB.QueryRow(countQuery, args...).Scan(&totalCount); err != nil {
		return nil, apperr.Internal(err)
	}

	query := fmt.Sprintf(`
		SELECT t.id, t.title, t.author_id, u.nickname, t.description, t.creation_date
		FROM threads t
		JOIN users u ON t.author_id = u.id
		%s
		WHERE %s
		ORDER BY %s
		LIMIT ? OFFSET ?`, join, where, order)
	args = append(args, size, (page-1)*size)

	rows, err := ds.DB.Query(query, args...)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListThreads", "error", err)
		}
	}()

	var items []models.ThreadSummary
	var ids []interface{}
	for rows.Next() {
		var s models.ThreadSummary
		if err := rows.Scan(&s.ThreadID, &s.Title, &s.AuthorID, &s.AuthorNickname, &s.Description, &s.CreationDate); err != nil {
			return nil, apperr.Internal(err)
		}
		items = append(items, s)
		ids = append(ids, s.ThreadID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}

	if len(items) > 0 {
		if err := ds.attachSummaries(items, ids); err != nil {
			return nil, err
		}
	}

	return &models.ThreadPage{
		Data:        items,
		TotalCount:  totalCount,
		TotalPages:  totalPages(totalCount, size),
		CurrentPage: page,
		PageSize:    size,
	}, nil
}

// attachSummaries fills in the tag list and cover image for each listed
// thread with two IN queries instead of per-row lookups.
func (ds *DatabaseService) attachSummaries(items []models.ThreadSummary, ids []interface{}) error {
	placeholders := "?" + strings.Repeat(",?", len(ids)-1)
	index := make(map[int64]*models.ThreadSummary, len(items))
	for i := range items {
		index[items[i].ThreadID] = &items[i]
	}

	tagRows, err := ds.DB.Query(`
		SELECT tt.thread_id, g.tag FROM thread_tags tt
		JOIN tags g ON tt.tag_id = g.id
		WHERE tt.thread_id IN (`+placeholders+`)
		ORDER BY tt.thread_id, g.id`, ids...)
	if err != nil {
		return apperr.Internal(err)
	}
	for tagRows.Next() {
		var id int64
		var text string
		if err := tagRows.Scan(&id, &text); err == nil {
			if s, ok := index[id]; ok {
				s.Tags = append(s.Tags, text)
			}
		}
	}
	if err := tagRows.Close(); err != nil {
		ds.logger.Warn("Failed to close tag rows in attachSummaries", "error", err)
	}

	imgRows, err := ds.DB.Query(`
		SELECT thread_id, MIN(id), image FROM images
		WHERE thread_id IN (`+placeholders+`)
		GROUP BY thread_id`, ids...)
	if err != nil {
		return apperr.Internal(err)
	}
	for imgRows.Next() {
		var id, imgID int64
		var ref string
		if err := imgRows.Scan(&id, &imgID, &ref); err == nil {
			if s, ok := index[id]; ok {
				s.Image = ds.urls.Resolve(ref)
			}
		}
	}
	if err := imgRows.Close(); err != nil {
		ds.logger.Warn("Failed to close image rows in attachSummaries", "error", err)
	}
	return nil
}
