// forum-backend/database/images.go
package database

import (
	"bytes"
	"database/sql"
	"fmt"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/config"
	"github.com/Desi451/forum-backend/models"
)

// allowedImageExtension reports whether the lowercased extension of name is
// an accepted upload type.
func allowedImageExtension(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, allowed := range config.AllowedImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// imageContentType maps an upload extension to its MIME type for the
// storage backend.
func imageContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// validateImages collects every violated upload rule. When the count limit
// is exceeded nothing else is checked, mirroring how the per-file rules only
// make sense for an acceptable batch.
func validateImages(images []models.NewImage) []apperr.FieldError {
	var errs []apperr.FieldError

	if len(images) > config.MaxImagesPerThread {
		errs = append(errs, apperr.FieldError{
			Rule:    "TooManyImages",
			Message: fmt.Sprintf("You can only upload up to %d images.", config.MaxImagesPerThread),
		})
		return errs
	}

	for _, img := range images {
		if len(img.Data) > config.MaxImageSize {
			errs = append(errs, apperr.FieldError{
				Rule:    "FileTooLarge",
				Message: fmt.Sprintf("The file '%s' exceeds the size limit of 5 MB.", img.FileName),
			})
		}
		if !allowedImageExtension(img.FileName) {
			errs = append(errs, apperr.FieldError{
				Rule:    "InvalidFileType",
				Message: fmt.Sprintf("The file '%s' has an unsupported extension. Allowed: %s", img.FileName, strings.Join(config.AllowedImageExtensions, ", ")),
			})
			continue
		}
		if _, err := imaging.Decode(bytes.NewReader(img.Data)); err != nil {
			errs = append(errs, apperr.FieldError{
				Rule:    "CorruptedImage",
				Message: fmt.Sprintf("The file '%s' is not a readable image.", img.FileName),
			})
		}
	}
	return errs
}

// saveThreadImages persists each upload through the storage collaborator and
// records the returned reference. It returns every reference stored so far
// so the caller can clean up backing files after a rollback.
func (ds *DatabaseService) saveThreadImages(tx *sql.Tx, threadID int64, images []models.NewImage) ([]string, error) {
	var saved []string
	for _, img := range images {
		name := fmt.Sprintf("threads/%d/%s%s", threadID, uuid.New().String(), strings.ToLower(path.Ext(img.FileName)))
		ref, err := ds.storage.SaveFile(name, img.Data, imageContentType(img.FileName))
		if err != nil {
			return saved, fmt.Errorf("failed to store image '%s': %w", img.FileName, err)
		}
		saved = append(saved, ref)
		if _, err := tx.Exec("INSERT INTO images (thread_id, image) VALUES (?, ?)", threadID, ref); err != nil {
			return saved, fmt.Errorf("failed to record image '%s': %w", img.FileName, err)
		}
	}
	return saved, nil
}

// removeThreadImages deletes every image row for the thread and the backing
// files. File removal is best effort; a missing file must not fail the edit.
func (ds *DatabaseService) removeThreadImages(tx *sql.Tx, threadID int64) error {
	rows, err := tx.Query("SELECT image FROM images WHERE thread_id = ?", threadID)
	if err != nil {
		return fmt.Errorf("failed to query images for thread %d: %w", threadID, err)
	}
	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err == nil {
			refs = append(refs, ref)
		}
	}
	if err := rows.Close(); err != nil {
		ds.logger.Warn("Failed to close rows in removeThreadImages", "error", err)
	}

	if _, err := tx.Exec("DELETE FROM images WHERE thread_id = ?", threadID); err != nil {
		return fmt.Errorf("failed to delete image rows for thread %d: %w", threadID, err)
	}
	for _, ref := range refs {
		if err := ds.storage.DeleteFile(ref); err != nil {
			ds.logger.Warn("Failed to remove image file", "path", ref, "error", err)
		}
	}
	return nil
}

// discardFiles removes files stored before a transaction rolled back.
func (ds *DatabaseService) discardFiles(refs []string) {
	for _, ref := range refs {
		if err := ds.storage.DeleteFile(ref); err != nil {
			ds.logger.Warn("Failed to remove orphaned file", "path", ref, "error", err)
		}
	}
}
