// forum-backend/database/tags_test.go
package database

import (
	"testing"

	"github.com/Desi451/forum-backend/models"
)

func TestTagRegistry(t *testing.T) {
	ds := setupTestDB(t)
	author := mustCreateUser(t, ds, "author01", models.RoleMember)

	t.Run("reusing a tag does not duplicate it", func(t *testing.T) {
		mustCreateThread(t, ds, author, "First tagged", []string{"go", "sql"})
		mustCreateThread(t, ds, author, "Second tagged", []string{"go", "http"})

		var count int
		if err := ds.DB.QueryRow("SELECT COUNT(*) FROM tags").Scan(&count); err != nil {
			t.Fatalf("Failed to count tags: %v", err)
		}
		if count != 3 {
			t.Errorf("Expected 3 distinct tags, got %d", count)
		}
	})

	t.Run("matching is exact and case sensitive", func(t *testing.T) {
		mustCreateThread(t, ds, author, "Case matters", []string{"Go", "go "})

		var count int
		if err := ds.DB.QueryRow("SELECT COUNT(*) FROM tags").Scan(&count); err != nil {
			t.Fatalf("Failed to count tags: %v", err)
		}
		// "Go" and "go " are distinct from "go".
		if count != 5 {
			t.Errorf("Expected 5 distinct tags, got %d", count)
		}
	})

	t.Run("ListTags returns the registry in creation order", func(t *testing.T) {
		tags, err := ds.ListTags()
		if err != nil {
			t.Fatalf("ListTags failed: %v", err)
		}
		if len(tags) != 5 {
			t.Fatalf("Expected 5 tags, got %d", len(tags))
		}
		if tags[0].Tag != "go" || tags[1].Tag != "sql" || tags[2].Tag != "http" {
			t.Errorf("Unexpected order: %v", tags)
		}
	})
}
