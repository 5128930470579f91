// forum-backend/database/users.go
package database

import (
	"database/sql"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/models"
	"github.com/Desi451/forum-backend/utils"
)

// RegisterUser creates a new member account. The nickname starts out equal
// to the login; both login and email must be globally unique.
func (ds *DatabaseService) RegisterUser(login, email, password string) (int64, error) {
	if !utils.ValidateEmail(email) {
		return 0, &apperr.Error{Code: apperr.CodeValidation, Message: "Invalid email address.",
			Fields: []apperr.FieldError{{Rule: "InvalidEmail", Message: "Invalid email address."}}}
	}

	var count int
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM users WHERE email = ? OR login = ?", email, login).Scan(&count); err != nil {
		return 0, apperr.Internal(err)
	}
	if count > 0 {
		return 0, apperr.New(apperr.CodeConflict, "User with the login name or email address you are using already exists.")
	}

	if !utils.ValidateLoginOrNickname(login) {
		return 0, &apperr.Error{Code: apperr.CodeValidation, Message: "Invalid login.",
			Fields: []apperr.FieldError{{Rule: "InvalidLogin", Message: "Your login must be between 5 and 12 characters long and can only consist of letters and numbers."}}}
	}
	if !utils.ValidatePassword(password) {
		return 0, &apperr.Error{Code: apperr.CodeValidation, Message: "Invalid password.",
			Fields: []apperr.FieldError{{Rule: "InvalidPassword", Message: "The password must be at least 8 characters long and contain an upper-case letter, a digit and a symbol."}}}
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return 0, apperr.Internal(err)
	}

	res, err := ds.DB.Exec(`
		INSERT INTO users (nickname, login, password, email, creation_date, profile_picture, role, status)
		VALUES (?, ?, ?, ?, ?, NULL, ?, ?)`,
		login, login, hash, email, utils.GetSQLTime(), models.RoleMember, models.StatusActive)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return id, nil
}

// AuthenticateUser verifies credentials by login or email and returns the
// account. The two failure modes are reported separately, matching the API
// contract rather than hardening against user enumeration.
func (ds *DatabaseService) AuthenticateUser(loginOrEmail, password string) (*models.User, error) {
	var u models.User
	err := ds.DB.QueryRow(`
		SELECT id, nickname, login, password, email, creation_date, profile_picture, role, status
		FROM users WHERE email = ? OR login = ?`, loginOrEmail, loginOrEmail).Scan(
		&u.ID, &u.Nickname, &u.Login, &u.Password, &u.Email, &u.CreationDate, &u.ProfilePicture, &u.Role, &u.Status)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.CodeNotFound, "Incorrect email or login.")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !utils.CheckPassword(password, u.Password) {
		return nil, apperr.New(apperr.CodeUnauthenticated, "Incorrect password.")
	}
	return &u, nil
}

// GetUser returns a single account.
func (ds *DatabaseService) GetUser(userID int64) (*models.User, error) {
	return ds.getUser(userID)
}

// UpdateNickname changes the caller's display name.
func (ds *DatabaseService) UpdateNickname(userID int64, nickname string) error {
	if userID <= 0 {
		return apperr.New(apperr.CodeUnauthenticated, "You aren't logged in.")
	}
	if !utils.ValidateLoginOrNickname(nickname) {
		return &apperr.Error{Code: apperr.CodeValidation, Message: "Invalid nickname.",
			Fields: []apperr.FieldError{{Rule: "InvalidNickname", Message: "Your nickname must be between 5 and 12 characters long and can only consist of letters and numbers."}}}
	}
	if _, err := ds.getUser(userID); err != nil {
		return err
	}
	if _, err := ds.DB.Exec("UPDATE users SET nickname = ? WHERE id = ?", nickname, userID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// UpdateLogin changes the caller's login, enforcing uniqueness.
func (ds *DatabaseService) UpdateLogin(userID int64, newLogin string) error {
	if userID <= 0 {
		return apperr.New(apperr.CodeUnauthenticated, "You aren't logged in.")
	}
	if !utils.ValidateLoginOrNickname(newLogin) {
		return &apperr.Error{Code: apperr.CodeValidation, Message: "Invalid login.",
			Fields: []apperr.FieldError{{Rule: "InvalidLogin", Message: "Your login must be between 5 and 12 characters long and can only consist of letters and numbers."}}}
	}
	if _, err := ds.getUser(userID); err != nil {
		return err
	}

	var taken int
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM users WHERE login = ? AND id != ?", newLogin, userID).Scan(&taken); err != nil {
		return apperr.Internal(err)
	}
	if taken > 0 {
		return apperr.New(apperr.CodeConflict, "This login is already taken.")
	}
	if _, err := ds.DB.Exec("UPDATE users SET login = ? WHERE id = ?", newLogin, userID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// UpdatePassword changes the caller's password after verifying the old one.
func (ds *DatabaseService) UpdatePassword(userID int64, oldPassword, newPassword string) error {
	if userID <= 0 {
		return apperr.New(apperr.CodeUnauthenticated, "You aren't logged in.")
	}
	u, err := ds.getUser(userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(oldPassword, u.Password) {
		return apperr.New(apperr.CodeUnauthenticated, "The old password is incorrect.")
	}
	if !utils.ValidatePassword(newPassword) {
		return &apperr.Error{Code: apperr.CodeValidation, Message: "Invalid password.",
			Fields: []apperr.FieldError{{Rule: "InvalidPassword", Message: "The password must be at least 8 characters long and contain an upper-case letter, a digit and a symbol."}}}
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if _, err := ds.DB.Exec("UPDATE users SET password = ? WHERE id = ?", hash, userID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// UpdateAvatar replaces or removes the caller's profile picture. The
// previous backing file is deleted either way.
func (ds *DatabaseService) UpdateAvatar(userID int64, image *models.NewImage, remove bool) error {
	if userID <= 0 {
		return apperr.New(apperr.CodeUnauthenticated, "You aren't logged in.")
	}
	u, err := ds.getUser(userID)
	if err != nil {
		return err
	}

	if remove {
		if u.ProfilePicture.Valid {
			if err := ds.storage.DeleteFile(u.ProfilePicture.String); err != nil {
				ds.logger.Warn("Failed to remove avatar file", "path", u.ProfilePicture.String, "error", err)
			}
		}
		if _, err := ds.DB.Exec("UPDATE users SET profile_picture = NULL WHERE id = ?", userID); err != nil {
			return apperr.Internal(err)
		}
		return nil
	}

	if image == nil {
		return apperr.New(apperr.CodeInvalidArgument, "No profile picture data provided.")
	}
	if errs := validateImages([]models.NewImage{*image}); len(errs) > 0 {
		return apperr.Validation(errs)
	}

	name := fmt.Sprintf("users/%s%s", uuid.New().String(), strings.ToLower(path.Ext(image.FileName)))
	ref, err := ds.storage.SaveFile(name, image.Data, imageContentType(image.FileName))
	if err != nil {
		return apperr.Internal(err)
	}
	if _, err := ds.DB.Exec("UPDATE users SET profile_picture = ? WHERE id = ?", ref, userID); err != nil {
		ds.discardFiles([]string{ref})
		return apperr.Internal(err)
	}
	if u.ProfilePicture.Valid {
		if err := ds.storage.DeleteFile(u.ProfilePicture.String); err != nil {
			ds.logger.Warn("Failed to remove old avatar file", "path", u.ProfilePicture.String, "error", err)
		}
	}
	return nil
}
