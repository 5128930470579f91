// forum-backend/database/database.go
package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/models"
	"github.com/Desi451/forum-backend/utils"
)

// DatabaseService is the central struct for all database operations. It owns
// the relational store and the two collaborators the core depends on: the
// file-storage backend and the public URL resolver.
type DatabaseService struct {
	DB      *sql.DB
	logger  *slog.Logger
	storage models.StorageService
	urls    *utils.URLResolver
}

// InitDB connects to the database and runs schema setup plus versioned
// migrations.
func InitDB(dataSourceName string, logger *slog.Logger, storage models.StorageService, urls *utils.URLResolver) (*DatabaseService, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to execute base schema: %w", err)
	}

	if err := runMigrations(db, logger); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	logger.Info("Database initialized")

	return &DatabaseService{
		DB:      db,
		logger:  logger,
		storage: storage,
		urls:    urls,
	}, nil
}

// runMigrations applies all un-applied migrations.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	var latestVersion uint
	err := db.QueryRow("SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&latestVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("could not get db version: %w", err)
	}

	for _, m := range allMigrations {
		if m.Version <= latestVersion {
			continue
		}
		logger.Info("Applying migration", "version", m.Version)
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.Query); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				logger.Error("Failed to rollback migration", "version", m.Version, "error", rerr)
			}
			return fmt.Errorf("failed to apply migration v%d: %w", m.Version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", m.Version, utils.GetSQLTime()); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				logger.Error("Failed to rollback migration record", "version", m.Version, "error", rerr)
			}
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
		}
	}
	return nil
}

// rollback logs a failed transaction rollback; sql.ErrTxDone after a commit
// is not an anomaly.
func (ds *DatabaseService) rollback(tx *sql.Tx, op string) {
	if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
		ds.logger.Error("Failed to rollback transaction", "op", op, "error", rerr)
	}
}

// getThread loads a single thread row or returns a NotFound error.
func (ds *DatabaseService) getThread(threadID int64) (*models.Thread, error) {
	var t models.Thread
	err := ds.DB.QueryRow(`
		SELECT id, author_id, sup_thread_id, prime_thread_id, title, description, creation_date, deleted
		FROM threads WHERE id = ?`, threadID).Scan(
		&t.ID, &t.AuthorID, &t.SupThreadID, &t.PrimeThreadID, &t.Title, &t.Description, &t.CreationDate, &t.Deleted)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.CodeNotFound, "Thread not found.")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &t, nil
}

// getUser loads a single user row or returns a NotFound error.
func (ds *DatabaseService) getUser(userID int64) (*models.User, error) {
	var u models.User
	err := ds.DB.QueryRow(`
		SELECT id, nickname, login, password, email, creation_date, profile_picture, role, status
		FROM users WHERE id = ?`, userID).Scan(
		&u.ID, &u.Nickname, &u.Login, &u.Password, &u.Email, &u.CreationDate, &u.ProfilePicture, &u.Role, &u.Status)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.CodeNotFound, "User not found.")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &u, nil
}

// checkPage validates 1-based pagination arguments.
func checkPage(page, size int) error {
	if page < 1 || size < 1 {
		return apperr.New(apperr.CodeInvalidArgument, "Page number and page size must be greater than zero.")
	}
	return nil
}

// totalPages computes the page count for a paginated listing.
func totalPages(totalCount, size int) int {
	return (totalCount + size - 1) / size
}
