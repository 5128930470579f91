// forum-backend/database/images_test.go
package database

import (
	"errors"
	"testing"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/config"
	"github.com/Desi451/forum-backend/models"
)

func validationRules(t *testing.T, err error) map[string]bool {
	t.Helper()
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Code != apperr.CodeValidation {
		t.Fatalf("Expected validation error, got %v", err)
	}
	rules := make(map[string]bool)
	for _, fe := range ae.Fields {
		rules[fe.Rule] = true
	}
	return rules
}

func TestValidateImages(t *testing.T) {
	png := func(t *testing.T) models.NewImage {
		return models.NewImage{FileName: "photo.png", Data: pngBytes(t)}
	}

	t.Run("too many images short-circuits", func(t *testing.T) {
		var images []models.NewImage
		for i := 0; i <= config.MaxImagesPerThread; i++ {
			images = append(images, models.NewImage{FileName: "evil.exe", Data: []byte("junk")})
		}
		errs := validateImages(images)
		if len(errs) != 1 || errs[0].Rule != "TooManyImages" {
			t.Fatalf("Expected a single TooManyImages error, got %v", errs)
		}
	})

	t.Run("per-file violations accumulate", func(t *testing.T) {
		images := []models.NewImage{
			{FileName: "too-big.png", Data: make([]byte, config.MaxImageSize+1)},
			{FileName: "notes.txt", Data: []byte("plain text")},
			{FileName: "broken.png", Data: []byte("not a png")},
			png(t),
		}
		errs := validateImages(images)
		rules := make(map[string]int)
		for _, fe := range errs {
			rules[fe.Rule]++
		}
		// too-big.png also fails decoding, so CorruptedImage appears twice
		if rules["FileTooLarge"] != 1 || rules["InvalidFileType"] != 1 || rules["CorruptedImage"] != 2 {
			t.Errorf("Unexpected rule counts: %v", rules)
		}
	})

	t.Run("a valid batch passes", func(t *testing.T) {
		if errs := validateImages([]models.NewImage{png(t), png(t)}); len(errs) != 0 {
			t.Errorf("Expected no errors, got %v", errs)
		}
	})
}

func TestThreadImages(t *testing.T) {
	ds := setupTestDB(t)
	author := mustCreateUser(t, ds, "author01", models.RoleMember)

	upload := []models.NewImage{{FileName: "cover.png", Data: pngBytes(t)}}

	t.Run("create stores and serves the image", func(t *testing.T) {
		id, err := ds.CreateThread(author, "Thread with image", "A description long enough to pass.", nil, upload)
		if err != nil {
			t.Fatalf("CreateThread failed: %v", err)
		}

		var ref string
		if err := ds.DB.QueryRow("SELECT image FROM images WHERE thread_id = ?", id).Scan(&ref); err != nil {
			t.Fatalf("Expected an image row: %v", err)
		}

		tree, err := ds.GetThreadTree(id)
		if err != nil {
			t.Fatalf("GetThreadTree failed: %v", err)
		}
		if len(tree.Images) != 1 {
			t.Fatalf("Expected 1 image on the node, got %d", len(tree.Images))
		}
	})

	t.Run("corrupted upload is rejected", func(t *testing.T) {
		bad := []models.NewImage{{FileName: "broken.png", Data: []byte("not a png")}}
		_, err := ds.CreateThread(author, "Broken image", "A description long enough to pass.", nil, bad)
		if rules := validationRules(t, err); !rules["CorruptedImage"] {
			t.Errorf("Expected CorruptedImage, got %v", rules)
		}
	})

	t.Run("edit replaces the whole image set", func(t *testing.T) {
		id, err := ds.CreateThread(author, "Replaceable images", "A description long enough to pass.",
			nil, []models.NewImage{
				{FileName: "one.png", Data: pngBytes(t)},
				{FileName: "two.png", Data: pngBytes(t)},
			})
		if err != nil {
			t.Fatalf("CreateThread failed: %v", err)
		}

		err = ds.EditThread(id, author, models.ThreadPatch{Images: []models.NewImage{{FileName: "three.png", Data: pngBytes(t)}}})
		if err != nil {
			t.Fatalf("EditThread failed: %v", err)
		}

		var count int
		if err := ds.DB.QueryRow("SELECT COUNT(*) FROM images WHERE thread_id = ?", id).Scan(&count); err != nil || count != 1 {
			t.Errorf("Expected 1 image after replacement, got %d", count)
		}
	})
}
