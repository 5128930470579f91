// forum-backend/handlers/users.go

package handlers

import (
	"net/http"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/models"
)

// HandleUpdateNickname changes the caller's display name.
func HandleUpdateNickname(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	var req struct {
		Nickname string `json:"nickname"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, app, err)
		return
	}
	if err := app.DB().UpdateNickname(caller.UserID, req.Nickname); err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"}, app)
}

// HandleUpdateLogin changes the caller's login.
func HandleUpdateLogin(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	var req struct {
		Login string `json:"login"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, app, err)
		return
	}
	if err := app.DB().UpdateLogin(caller.UserID, req.Login); err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"}, app)
}

// HandleUpdatePassword changes the caller's password.
func HandleUpdatePassword(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, app, err)
		return
	}
	if err := app.DB().UpdatePassword(caller.UserID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"}, app)
}

// HandleUpdateAvatar replaces the caller's profile picture from a multipart
// form field named avatar.
func HandleUpdateAvatar(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, r, app, apperr.New(apperr.CodeInvalidArgument, "Form parsing error."))
		return
	}

	images, err := formImages(r, "avatar")
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	var image *models.NewImage
	if len(images) > 0 {
		image = &images[0]
	}

	if err := app.DB().UpdateAvatar(caller.UserID, image, false); err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"}, app)
}

// HandleRemoveAvatar clears the caller's profile picture.
func HandleRemoveAvatar(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	if err := app.DB().UpdateAvatar(caller.UserID, nil, true); err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"}, app)
}

// HandleReportUser files a report against another user. Any authenticated
// member may report.
func HandleReportUser(w http.ResponseWriter, r *http.Request, app App) {
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
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, app, err)
		return
	}
	if err := app.DB().ReportUser(caller.UserID, targetID, req.Reason); err != nil {
		writeError(w, r, app, err)
		return
	}
	app.Logger().Info("User reported", "reported_id", targetID, "reporter_id", caller.UserID)
	respondJSON(w, http.StatusCreated, map[string]string{"status": "reported"}, app)
}
