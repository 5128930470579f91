// forum-backend/database/votes.go
package database

import (
	"database/sql"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/models"
)

// VoteThread records, flips or retracts a user's vote on a thread. Casting
// the same value twice removes the row entirely; a zero-valued vote row
// never exists.
func (ds *DatabaseService) VoteThread(userID, threadID int64, value int) (models.VoteOutcome, error) {
	if userID <= 0 {
		return "", apperr.New(apperr.CodeUnauthenticated, "You aren't logged in.")
	}
	if value != 1 && value != -1 {
		return "", apperr.New(apperr.CodeInvalidArgument, "Vote value must be +1 or -1.")
	}

	t, err := ds.getThread(threadID)
	if err != nil {
		return "", err
	}
	if t.Deleted {
		return "", apperr.New(apperr.CodeNotFound, "Thread not found.")
	}

	var existing int
	err = ds.DB.QueryRow("SELECT value FROM likes WHERE user_id = ? AND thread_id = ?", userID, threadID).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		if _, err := ds.DB.Exec("INSERT INTO likes (user_id, thread_id, value) VALUES (?, ?, ?)", userID, threadID, value); err != nil {
			return "", apperr.Internal(err)
		}
		return models.VoteRecorded, nil
	case err != nil:
		return "", apperr.Internal(err)
	case existing == value:
		// Toggle-off: voting the same way twice retracts the vote.
		if _, err := ds.DB.Exec("DELETE FROM likes WHERE user_id = ? AND thread_id = ?", userID, threadID); err != nil {
			return "", apperr.Internal(err)
		}
		return models.VoteRetracted, nil
	default:
		if _, err := ds.DB.Exec("UPDATE likes SET value = ? WHERE user_id = ? AND thread_id = ?", value, userID, threadID); err != nil {
			return "", apperr.Internal(err)
		}
		return models.VoteRecorded, nil
	}
}

// ToggleSubscription flips a user's subscription to a root thread. The first
// call creates the row subscribed; later calls flip the boolean in place so
// subscription history survives. Returns the resulting state.
func (ds *DatabaseService) ToggleSubscription(userID, threadID int64) (bool, error) {
	if userID <= 0 {
		return false, apperr.New(apperr.CodeUnauthenticated, "You aren't logged in.")
	}

	var t models.Thread
	err := ds.DB.QueryRow(`
		SELECT id, sup_thread_id, prime_thread_id, deleted FROM threads WHERE id = ?`, threadID).Scan(
		&t.ID, &t.SupThreadID, &t.PrimeThreadID, &t.Deleted)
	if err == sql.ErrNoRows {
		return false, apperr.New(apperr.CodeInvalidArgument, "Only existing root threads can be subscribed to.")
	}
	if err != nil {
		return false, apperr.Internal(err)
	}
	if t.Deleted || !t.IsRoot() {
		return false, apperr.New(apperr.CodeInvalidArgument, "Only existing root threads can be subscribed to.")
	}

	var subscribed bool
	err = ds.DB.QueryRow("SELECT subscribed FROM subscriptions WHERE user_id = ? AND thread_id = ?", userID, threadID).Scan(&subscribed)
	switch {
	case err == sql.ErrNoRows:
		if _, err := ds.DB.Exec("INSERT INTO subscriptions (user_id, thread_id, subscribed) VALUES (?, ?, 1)", userID, threadID); err != nil {
			return false, apperr.Internal(err)
		}
		return true, nil
	case err != nil:
		return false, apperr.Internal(err)
	default:
		if _, err := ds.DB.Exec("UPDATE subscriptions SET subscribed = ? WHERE user_id = ? AND thread_id = ?", !subscribed, userID, threadID); err != nil {
			return false, apperr.Internal(err)
		}
		return !subscribed, nil
	}
}
