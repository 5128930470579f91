// forum-backend/handlers/moderation.go

package handlers

import (
	"net/http"
	"time"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/config"
)

// HandleBanUser bans a user until the given time. The ban, the takedown of
// the target's threads and the purge of their reports land atomically.
func HandleBanUser(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	targetID, err := urlID(r, "userID")
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	var req struct {
		Reason   string `json:"reason"`
		BanUntil string `json:"bannedUntil"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, app, err)
		return
	}
	until, err := time.Parse(time.RFC3339, req.BanUntil)
	if err != nil {
		writeError(w, r, app, apperr.New(apperr.CodeInvalidArgument, "bannedUntil must be an RFC 3339 timestamp."))
		return
	}
	if !until.After(time.Now()) {
		writeError(w, r, app, apperr.New(apperr.CodeInvalidArgument, "bannedUntil must be in the future."))
		return
	}

	if err := app.DB().BanUser(caller, targetID, req.Reason, until); err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "banned"}, app)
}

// HandleUnbanUser lifts a user's ban ahead of its expiry.
func HandleUnbanUser(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	targetID, err := urlID(r, "userID")
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	if err := app.DB().UnbanUser(caller, targetID); err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "unbanned"}, app)
}

// HandleListBannedUsers returns one page of currently banned users.
func HandleListBannedUsers(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	page, size := queryPage(r, config.DefaultAdminPageSize)

	banned, err := app.DB().ListBannedUsers(caller, page, size)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, banned, app)
}

// HandleListReportedUsers returns one page of open reports.
func HandleListReportedUsers(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	page, size := queryPage(r, config.DefaultAdminPageSize)

	reported, err := app.DB().ListReportedUsers(caller, page, size)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, reported, app)
}

// HandleDeleteReport dismisses a single report.
func HandleDeleteReport(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	reportID, err := urlID(r, "reportID")
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	if err := app.DB().DeleteReport(caller, reportID); err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, app)
}
