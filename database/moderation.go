// forum-backend/database/moderation.go
package database

import (
	"database/sql"
	"time"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/models"
	"github.com/Desi451/forum-backend/utils"
)

// requireModerator gates moderation operations on the caller's role.
func requireModerator(caller models.Identity) error {
	if caller.UserID <= 0 {
		return apperr.New(apperr.CodeUnauthenticated, "You aren't logged in.")
	}
	if caller.Role != models.RoleModerator {
		return apperr.New(apperr.CodeUnauthorized, "Moderator role required.")
	}
	return nil
}

// BanUser bans the target user atomically: every thread they authored is
// soft-deleted, every report involving them on either side is purged, their
// status flips to banned and the ban row is inserted — all in one
// transaction. A failure anywhere leaves no partial effect.
func (ds *DatabaseService) BanUser(caller models.Identity, targetID int64, reason string, until time.Time) error {
	if err := requireModerator(caller); err != nil {
		return err
	}

	target, err := ds.getUser(targetID)
	if err != nil {
		return err
	}
	if target.Status == models.StatusBanned {
		return apperr.New(apperr.CodeConflict, "User is already banned!")
	}

	tx, err := ds.DB.Begin()
	if err != nil {
		return apperr.Internal(err)
	}
	defer ds.rollback(tx, "BanUser")

	if _, err := tx.Exec("UPDATE threads SET deleted = 1 WHERE author_id = ?", targetID); err != nil {
		return apperr.Internal(err)
	}
	if _, err := tx.Exec("DELETE FROM reports WHERE reported_user_id = ? OR reporting_user_id = ?", targetID, targetID); err != nil {
		return apperr.Internal(err)
	}
	if _, err := tx.Exec("UPDATE users SET status = ? WHERE id = ?", models.StatusBanned, targetID); err != nil {
		return apperr.Internal(err)
	}
	if _, err := tx.Exec(`
		INSERT INTO bans (banned_user_id, banning_moderator_id, reason, ban_date, ban_until)
		VALUES (?, ?, ?, ?, ?)`,
		targetID, caller.UserID, reason, utils.GetSQLTime(), until.UTC()); err != nil {
		return apperr.Internal(err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.Internal(err)
	}
	ds.logger.Info("User banned", "userId", targetID, "moderatorId", caller.UserID, "until", until.UTC())
	return nil
}

// UnbanUser flips a banned user back to active. The ban row stays as
// history; only the status changes, the same convergent write the expiry
// reconciler performs.
func (ds *DatabaseService) UnbanUser(caller models.Identity, targetID int64) error {
	if err := requireModerator(caller); err != nil {
		return err
	}

	if _, err := ds.getUser(targetID); err != nil {
		return err
	}

	var banID int64
	err := ds.DB.QueryRow("SELECT id FROM bans WHERE banned_user_id = ? ORDER BY id DESC LIMIT 1", targetID).Scan(&banID)
	if err == sql.ErrNoRows {
		return apperr.New(apperr.CodeConflict, "User is not banned!")
	}
	if err != nil {
		return apperr.Internal(err)
	}

	if _, err := ds.DB.Exec("UPDATE users SET status = ? WHERE id = ?", models.StatusActive, targetID); err != nil {
		return apperr.Internal(err)
	}
	ds.logger.Info("User unbanned", "userId", targetID, "moderatorId", caller.UserID)
	return nil
}

// ReportUser files a report against a target. Reporting an already-banned
// user is rejected: the report would be purged by the ban anyway.
func (ds *DatabaseService) ReportUser(reporterID, targetID int64, reason string) error {
	if reporterID <= 0 {
		return apperr.New(apperr.CodeUnauthenticated, "You aren't logged in.")
	}

	target, err := ds.getUser(targetID)
	if err != nil {
		return err
	}
	if target.Status == models.StatusBanned {
		return apperr.New(apperr.CodeConflict, "User is already banned!")
	}

	if _, err := ds.DB.Exec(`
		INSERT INTO reports (reported_user_id, reporting_user_id, reason, report_date)
		VALUES (?, ?, ?, ?)`,
		targetID, reporterID, reason, utils.GetSQLTime()); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// DeleteReport removes one report. Deleting a report about an already-banned
// user is a stale-state conflict, mirroring ReportUser's guard.
func (ds *DatabaseService) DeleteReport(caller models.Identity, reportID int64) error {
	if err := requireModerator(caller); err != nil {
		return err
	}

	var reportedUserID int64
	err := ds.DB.QueryRow("SELECT reported_user_id FROM reports WHERE id = ?", reportID).Scan(&reportedUserID)
	if err == sql.ErrNoRows {
		return apperr.New(apperr.CodeNotFound, "Report not found.")
	}
	if err != nil {
		return apperr.Internal(err)
	}

	reported, err := ds.getUser(reportedUserID)
	if err != nil {
		return err
	}
	if reported.Status == models.StatusBanned {
		return apperr.New(apperr.CodeConflict, "User is already banned!")
	}

	if _, err := ds.DB.Exec("DELETE FROM reports WHERE id = ?", reportID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ListBannedUsers returns a page of ban rows joined with both parties.
func (ds *DatabaseService) ListBannedUsers(caller models.Identity, page, size int) (*models.BannedUsersPage, error) {
	if err := requireModerator(caller); err != nil {
		return nil, err
	}
	if err := checkPage(page, size); err != nil {
		return nil, err
	}

	var totalCount int
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM bans b JOIN users u ON b.banned_user_id = u.id WHERE u.status = ?", models.StatusBanned).Scan(&totalCount); err != nil {
		return nil, apperr.Internal(err)
	}

	rows, err := ds.DB.Query(`
		SELECT b.banned_user_id, u.nickname, u.login, u.email,
		       b.reason, b.ban_date, b.ban_until,
		       b.banning_moderator_id, m.nickname, m.login
		FROM bans b
		JOIN users u ON b.banned_user_id = u.id
		JOIN users m ON b.banning_moderator_id = m.id
		WHERE u.status = ?
		ORDER BY b.ban_date DESC
		LIMIT ? OFFSET ?`, models.StatusBanned, size, (page-1)*size)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListBannedUsers", "error", err)
		}
	}()

	var entries []models.BannedUserEntry
	for rows.Next() {
		var e models.BannedUserEntry
		if err := rows.Scan(&e.BannedUserID, &e.BannedUserNickname, &e.BannedUserLogin, &e.BannedUserEmail,
			&e.Reason, &e.BanDate, &e.BanUntil,
			&e.ModeratorID, &e.ModeratorNickname, &e.ModeratorLogin); err != nil {
			return nil, apperr.Internal(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}

	return &models.BannedUsersPage{
		Data:        entries,
		TotalCount:  totalCount,
		TotalPages:  totalPages(totalCount, size),
		CurrentPage: page,
		PageSize:    size,
	}, nil
}

// ListReportedUsers returns a page of report rows joined with both parties.
func (ds *DatabaseService) ListReportedUsers(caller models.Identity, page, size int) (*models.ReportedUsersPage, error) {
	if err := requireModerator(caller); err != nil {
		return nil, err
	}
	if err := checkPage(page, size); err != nil {
		return nil, err
	}

	var totalCount int
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM reports").Scan(&totalCount); err != nil {
		return nil, apperr.Internal(err)
	}

	rows, err := ds.DB.Query(`
		SELECT r.id, r.reported_user_id, u.nickname, u.login, u.email,
		       r.reason, r.report_date,
		       r.reporting_user_id, p.nickname, p.login, p.email
		FROM reports r
		JOIN users u ON r.reported_user_id = u.id
		JOIN users p ON r.reporting_user_id = p.id
		ORDER BY r.report_date DESC
		LIMIT ? OFFSET ?`, size, (page-1)*size)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListReportedUsers", "error", err)
		}
	}()

	var entries []models.ReportedUserEntry
	for rows.Next() {
		var e models.ReportedUserEntry
		if err := rows.Scan(&e.ReportID, &e.ReportedUserID, &e.ReportedNickname, &e.ReportedLogin, &e.ReportedEmail,
			&e.Reason, &e.ReportDate,
			&e.ReportingUserID, &e.ReportingNickname, &e.ReportingLogin, &e.ReportingEmail); err != nil {
			return nil, apperr.Internal(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}

	return &models.ReportedUsersPage{
		Data:        entries,
		TotalCount:  totalCount,
		TotalPages:  totalPages(totalCount, size),
		CurrentPage: page,
		PageSize:    size,
	}, nil
}

// ExpiredBan identifies a user whose ban has elapsed but whose status is
// still banned.
type ExpiredBan struct {
	UserID   int64
	Nickname string
}

// UnbanExpired flips every user whose ban elapsed before now back to active
// and returns them. Users already active are excluded by the status filter,
// which is what makes redundant or delayed sweeps harmless.
func (ds *DatabaseService) UnbanExpired(now time.Time) ([]ExpiredBan, error) {
	// Only a user's latest ban row counts: older, already-served bans must
	// not expire a newer one early.
	rows, err := ds.DB.Query(`
		SELECT u.id, u.nickname
		FROM bans b
		JOIN users u ON b.banned_user_id = u.id
		WHERE b.ban_until <= ? AND u.status = ?
		  AND b.id = (SELECT MAX(id) FROM bans WHERE banned_user_id = u.id)`, now.UTC(), models.StatusBanned)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var expired []ExpiredBan
	for rows.Next() {
		var e ExpiredBan
		if err := rows.Scan(&e.UserID, &e.Nickname); err != nil {
			rows.Close()
			return nil, apperr.Internal(err)
		}
		expired = append(expired, e)
	}
	if err := rows.Close(); err != nil {
		ds.logger.Warn("Failed to close rows in UnbanExpired", "error", err)
	}
	if len(expired) == 0 {
		return nil, nil
	}

	for _, e := range expired {
		if _, err := ds.DB.Exec("UPDATE users SET status = ? WHERE id = ?", models.StatusActive, e.UserID); err != nil {
			return nil, apperr.Internal(err)
		}
	}
	return expired, nil
}
