// forum-backend/database/moderation_test.go
package database

import (
	"testing"
	"time"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/models"
)

func userStatus(t *testing.T, ds *DatabaseService, userID int64) int {
	t.Helper()
	var status int
	if err := ds.DB.QueryRow("SELECT status FROM users WHERE id = ?", userID).Scan(&status); err != nil {
		t.Fatalf("Failed to query status for user %d: %v", userID, err)
	}
	return status
}

func reportCount(t *testing.T, ds *DatabaseService, userID int64) int {
	t.Helper()
	var count int
	err := ds.DB.QueryRow("SELECT COUNT(*) FROM reports WHERE reported_user_id = ? OR reporting_user_id = ?", userID, userID).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count reports for user %d: %v", userID, err)
	}
	return count
}

func TestBanUser(t *testing.T) {
	ds := setupTestDB(t)
	mod := mustCreateUser(t, ds, "themod001", models.RoleModerator)
	modIdentity := models.Identity{UserID: mod, Role: models.RoleModerator}
	target := mustCreateUser(t, ds, "target001", models.RoleMember)
	bystander := mustCreateUser(t, ds, "bystander1", models.RoleMember)
	until := time.Now().UTC().Add(24 * time.Hour)

	root := mustCreateThread(t, ds, target, "Target's thread", nil)
	reply := mustCreateSubthread(t, ds, root, target)
	other := mustCreateThread(t, ds, bystander, "Bystander thread", nil)

	// Reports on both sides of the target, plus one unrelated.
	if err := ds.ReportUser(bystander, target, "spam"); err != nil {
		t.Fatalf("ReportUser failed: %v", err)
	}
	if err := ds.ReportUser(target, bystander, "retaliation"); err != nil {
		t.Fatalf("ReportUser failed: %v", err)
	}
	if err := ds.ReportUser(mod, bystander, "unrelated"); err != nil {
		t.Fatalf("ReportUser failed: %v", err)
	}

	t.Run("non-moderator is rejected", func(t *testing.T) {
		err := ds.BanUser(models.Identity{UserID: bystander, Role: models.RoleMember}, target, "nope", until)
		if apperr.CodeOf(err) != apperr.CodeUnauthorized {
			t.Fatalf("Expected unauthorized, got %v", err)
		}
	})

	t.Run("ban applies every effect atomically", func(t *testing.T) {
		if err := ds.BanUser(modIdentity, target, "spamming", until); err != nil {
			t.Fatalf("BanUser failed: %v", err)
		}

		if userStatus(t, ds, target) != models.StatusBanned {
			t.Error("Expected target status to be banned")
		}
		for _, id := range []int64{root, reply} {
			if !threadRow(t, ds, id).Deleted {
				t.Errorf("Expected target's thread %d to be soft-deleted", id)
			}
		}
		if threadRow(t, ds, other).Deleted {
			t.Error("Expected bystander's thread to survive")
		}
		if got := reportCount(t, ds, target); got != 0 {
			t.Errorf("Expected reports involving the target to be purged, got %d", got)
		}
		// The unrelated report remains.
		var remaining int
		if err := ds.DB.QueryRow("SELECT COUNT(*) FROM reports").Scan(&remaining); err != nil || remaining != 1 {
			t.Errorf("Expected 1 unrelated report to remain, got %d", remaining)
		}

		var banCount int
		if err := ds.DB.QueryRow("SELECT COUNT(*) FROM bans WHERE banned_user_id = ?", target).Scan(&banCount); err != nil || banCount != 1 {
			t.Errorf("Expected 1 ban row, got %d", banCount)
		}
	})

	t.Run("banning an already-banned user conflicts", func(t *testing.T) {
		err := ds.BanUser(modIdentity, target, "again", until)
		if apperr.CodeOf(err) != apperr.CodeConflict {
			t.Fatalf("Expected conflict, got %v", err)
		}
	})

	t.Run("missing target", func(t *testing.T) {
		err := ds.BanUser(modIdentity, 9999, "ghost", until)
		if apperr.CodeOf(err) != apperr.CodeNotFound {
			t.Fatalf("Expected not found, got %v", err)
		}
	})
}

func TestUnbanUser(t *testing.T) {
	ds := setupTestDB(t)
	mod := mustCreateUser(t, ds, "themod001", models.RoleModerator)
	modIdentity := models.Identity{UserID: mod, Role: models.RoleModerator}
	target := mustCreateUser(t, ds, "target001", models.RoleMember)

	t.Run("unbanning a never-banned user conflicts", func(t *testing.T) {
		err := ds.UnbanUser(modIdentity, target)
		if apperr.CodeOf(err) != apperr.CodeConflict {
			t.Fatalf("Expected conflict, got %v", err)
		}
	})

	t.Run("unban flips status and keeps the ban row", func(t *testing.T) {
		if err := ds.BanUser(modIdentity, target, "spamming", time.Now().UTC().Add(time.Hour)); err != nil {
			t.Fatalf("BanUser failed: %v", err)
		}
		if err := ds.UnbanUser(modIdentity, target); err != nil {
			t.Fatalf("UnbanUser failed: %v", err)
		}
		if userStatus(t, ds, target) != models.StatusActive {
			t.Error("Expected target status to be active again")
		}
		var banCount int
		if err := ds.DB.QueryRow("SELECT COUNT(*) FROM bans WHERE banned_user_id = ?", target).Scan(&banCount); err != nil || banCount != 1 {
			t.Errorf("Expected ban history to survive, got %d rows", banCount)
		}
	})
}

func TestReportUser(t *testing.T) {
	ds := setupTestDB(t)
	mod := mustCreateUser(t, ds, "themod001", models.RoleModerator)
	modIdentity := models.Identity{UserID: mod, Role: models.RoleModerator}
	reporter := mustCreateUser(t, ds, "reporter01", models.RoleMember)
	target := mustCreateUser(t, ds, "target001", models.RoleMember)

	t.Run("unauthenticated reporter", func(t *testing.T) {
		if err := ds.ReportUser(0, target, "spam"); apperr.CodeOf(err) != apperr.CodeUnauthenticated {
			t.Fatalf("Expected unauthenticated, got %v", err)
		}
	})

	t.Run("missing target", func(t *testing.T) {
		if err := ds.ReportUser(reporter, 9999, "ghost"); apperr.CodeOf(err) != apperr.CodeNotFound {
			t.Fatalf("Expected not found, got %v", err)
		}
	})

	t.Run("report lands", func(t *testing.T) {
		if err := ds.ReportUser(reporter, target, "spam"); err != nil {
			t.Fatalf("ReportUser failed: %v", err)
		}
		if got := reportCount(t, ds, target); got != 1 {
			t.Errorf("Expected 1 report, got %d", got)
		}
	})

	t.Run("reporting a banned user conflicts", func(t *testing.T) {
		if err := ds.BanUser(modIdentity, target, "spamming", time.Now().UTC().Add(time.Hour)); err != nil {
			t.Fatalf("BanUser failed: %v", err)
		}
		if err := ds.ReportUser(reporter, target, "again"); apperr.CodeOf(err) != apperr.CodeConflict {
			t.Fatalf("Expected conflict, got %v", err)
		}
	})
}

func TestDeleteReport(t *testing.T) {
	ds := setupTestDB(t)
	mod := mustCreateUser(t, ds, "themod001", models.RoleModerator)
	modIdentity := models.Identity{UserID: mod, Role: models.RoleModerator}
	reporter := mustCreateUser(t, ds, "reporter01", models.RoleMember)
	target := mustCreateUser(t, ds, "target001", models.RoleMember)

	if err := ds.ReportUser(reporter, target, "spam"); err != nil {
		t.Fatalf("ReportUser failed: %v", err)
	}
	var reportID int64
	if err := ds.DB.QueryRow("SELECT id FROM reports WHERE reported_user_id = ?", target).Scan(&reportID); err != nil {
		t.Fatalf("Failed to find report: %v", err)
	}

	t.Run("non-moderator is rejected", func(t *testing.T) {
		err := ds.DeleteReport(models.Identity{UserID: reporter, Role: models.RoleMember}, reportID)
		if apperr.CodeOf(err) != apperr.CodeUnauthorized {
			t.Fatalf("Expected unauthorized, got %v", err)
		}
	})

	t.Run("missing report", func(t *testing.T) {
		if err := ds.DeleteReport(modIdentity, 9999); apperr.CodeOf(err) != apperr.CodeNotFound {
			t.Fatalf("Expected not found, got %v", err)
		}
	})

	t.Run("delete removes the row", func(t *testing.T) {
		if err := ds.DeleteReport(modIdentity, reportID); err != nil {
			t.Fatalf("DeleteReport failed: %v", err)
		}
		if got := reportCount(t, ds, target); got != 0 {
			t.Errorf("Expected report to be gone, got %d", got)
		}
	})
}

func TestModerationListings(t *testing.T) {
	ds := setupTestDB(t)
	mod := mustCreateUser(t, ds, "themod001", models.RoleModerator)
	modIdentity := models.Identity{UserID: mod, Role: models.RoleModerator}
	memberIdentity := models.Identity{UserID: mustCreateUser(t, ds, "member001", models.RoleMember), Role: models.RoleMember}

	banned := mustCreateUser(t, ds, "banned0001", models.RoleMember)
	reported := mustCreateUser(t, ds, "reported01", models.RoleMember)
	if err := ds.BanUser(modIdentity, banned, "spamming", time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("BanUser failed: %v", err)
	}
	if err := ds.ReportUser(mod, reported, "flamebait"); err != nil {
		t.Fatalf("ReportUser failed: %v", err)
	}

	t.Run("listings require the moderator role", func(t *testing.T) {
		if _, err := ds.ListBannedUsers(memberIdentity, 1, 20); apperr.CodeOf(err) != apperr.CodeUnauthorized {
			t.Fatalf("Expected unauthorized, got %v", err)
		}
		if _, err := ds.ListReportedUsers(memberIdentity, 1, 20); apperr.CodeOf(err) != apperr.CodeUnauthorized {
			t.Fatalf("Expected unauthorized, got %v", err)
		}
	})

	t.Run("banned users listing", func(t *testing.T) {
		page, err := ds.ListBannedUsers(modIdentity, 1, 20)
		if err != nil {
			t.Fatalf("ListBannedUsers failed: %v", err)
		}
		if page.TotalCount != 1 || len(page.Data) != 1 {
			t.Fatalf("Expected 1 banned user, got %d", page.TotalCount)
		}
		entry := page.Data[0]
		if entry.BannedUserID != banned || entry.ModeratorID != mod || entry.Reason != "spamming" {
			t.Errorf("Unexpected entry: %+v", entry)
		}
	})

	t.Run("reported users listing", func(t *testing.T) {
		page, err := ds.ListReportedUsers(modIdentity, 1, 20)
		if err != nil {
			t.Fatalf("ListReportedUsers failed: %v", err)
		}
		if page.TotalCount != 1 || len(page.Data) != 1 {
			t.Fatalf("Expected 1 report, got %d", page.TotalCount)
		}
		entry := page.Data[0]
		if entry.ReportedUserID != reported || entry.ReportingUserID != mod || entry.Reason != "flamebait" {
			t.Errorf("Unexpected entry: %+v", entry)
		}
	})

	t.Run("unbanned users drop out of the banned listing", func(t *testing.T) {
		if err := ds.UnbanUser(modIdentity, banned); err != nil {
			t.Fatalf("UnbanUser failed: %v", err)
		}
		page, err := ds.ListBannedUsers(modIdentity, 1, 20)
		if err != nil {
			t.Fatalf("ListBannedUsers failed: %v", err)
		}
		if page.TotalCount != 0 {
			t.Errorf("Expected empty listing after unban, got %d", page.TotalCount)
		}
	})
}

func TestUnbanExpired(t *testing.T) {
	ds := setupTestDB(t)
	mod := mustCreateUser(t, ds, "themod001", models.RoleModerator)
	modIdentity := models.Identity{UserID: mod, Role: models.RoleModerator}

	expired := mustCreateUser(t, ds, "expired001", models.RoleMember)
	active := mustCreateUser(t, ds, "longban001", models.RoleMember)

	if err := ds.BanUser(modIdentity, expired, "old offence", time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("BanUser failed: %v", err)
	}
	if err := ds.BanUser(modIdentity, active, "new offence", time.Now().UTC().Add(48*time.Hour)); err != nil {
		t.Fatalf("BanUser failed: %v", err)
	}

	t.Run("sweep lifts only elapsed bans", func(t *testing.T) {
		unbanned, err := ds.UnbanExpired(time.Now().UTC().Add(2 * time.Hour))
		if err != nil {
			t.Fatalf("UnbanExpired failed: %v", err)
		}
		if len(unbanned) != 1 || unbanned[0].UserID != expired {
			t.Fatalf("Expected exactly the expired user, got %+v", unbanned)
		}
		if userStatus(t, ds, expired) != models.StatusActive {
			t.Error("Expected expired user to be active")
		}
		if userStatus(t, ds, active) != models.StatusBanned {
			t.Error("Expected the longer ban to hold")
		}
	})

	t.Run("sweep is idempotent", func(t *testing.T) {
		unbanned, err := ds.UnbanExpired(time.Now().UTC().Add(2 * time.Hour))
		if err != nil {
			t.Fatalf("UnbanExpired failed: %v", err)
		}
		if len(unbanned) != 0 {
			t.Errorf("Expected nothing on the second sweep, got %+v", unbanned)
		}
	})

	t.Run("an older served ban cannot expire a newer one", func(t *testing.T) {
		// The expired user is banned again, longer this time. The old ban
		// row has elapsed but must not lift the fresh ban.
		if err := ds.BanUser(modIdentity, expired, "repeat offence", time.Now().UTC().Add(72*time.Hour)); err != nil {
			t.Fatalf("BanUser failed: %v", err)
		}
		unbanned, err := ds.UnbanExpired(time.Now().UTC().Add(2 * time.Hour))
		if err != nil {
			t.Fatalf("UnbanExpired failed: %v", err)
		}
		if len(unbanned) != 0 {
			t.Errorf("Expected no sweep results, got %+v", unbanned)
		}
		if userStatus(t, ds, expired) != models.StatusBanned {
			t.Error("Expected the fresh ban to hold")
		}
	})
}
