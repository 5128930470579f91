// forum-backend/handlers/auth.go

package handlers

import (
	"net/http"
)

// HandleRegister creates a new member account.
func HandleRegister(w http.ResponseWriter, r *http.Request, app App) {
	var req struct {
		Login    string `json:"login"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, app, err)
		return
	}

	id, err := app.DB().RegisterUser(req.Login, req.Email, req.Password)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	app.Logger().Info("User registered", "user_id", id, "login", req.Login)
	respondJSON(w, http.StatusCreated, map[string]int64{"userId": id}, app)
}

// HandleLogin verifies credentials and issues an access token.
func HandleLogin(w http.ResponseWriter, r *http.Request, app App) {
	var req struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, app, err)
		return
	}

	user, err := app.DB().AuthenticateUser(req.Login, req.Password)
	if err != nil {
		writeError(w, r, app, err)
		return
	}

	avatarURL := ""
	if user.ProfilePicture.Valid {
		avatarURL = app.URLs().Resolve(user.ProfilePicture.String)
	}
	token, err := app.Tokens().Generate(user, avatarURL)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	app.Logger().Info("User logged in", "user_id", user.ID)
	respondJSON(w, http.StatusOK, map[string]string{"token": token}, app)
}
