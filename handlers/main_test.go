// forum-backend/handlers/main_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Desi451/forum-backend/auth"
	"github.com/Desi451/forum-backend/database"
	"github.com/Desi451/forum-backend/models"
	"github.com/Desi451/forum-backend/utils"
)

// MockApplication holds dependencies for handler tests.
type MockApplication struct {
	db        *database.DatabaseService
	logger    *slog.Logger
	tokens    *auth.TokenService
	urls      *utils.URLResolver
	uploadDir string
}

func (a *MockApplication) DB() *database.DatabaseService { return a.db }
func (a *MockApplication) Logger() *slog.Logger          { return a.logger }
func (a *MockApplication) Tokens() *auth.TokenService    { return a.tokens }
func (a *MockApplication) URLs() *utils.URLResolver      { return a.urls }
func (a *MockApplication) UploadDir() string             { return a.uploadDir }

// setupTestApp creates a full application stack with a test database.
func setupTestApp(t *testing.T) *MockApplication {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	dir, err := os.MkdirTemp("", "forum_handler_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	dbPath := filepath.Join(dir, "test.db?_journal_mode=WAL&_foreign_keys=on")
	uploadDir := filepath.Join(dir, "uploads")
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		t.Fatalf("Failed to create upload dir: %v", err)
	}

	urls := utils.NewURLResolver("http://localhost:8080")
	storage := &utils.LocalStorage{UploadDir: uploadDir}
	dbService, err := database.InitDB(dbPath, logger, storage, urls)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	app := &MockApplication{
		db:        dbService,
		logger:    logger,
		tokens:    auth.NewTokenService("test-signing-key", "forum-backend", time.Hour),
		urls:      urls,
		uploadDir: uploadDir,
	}

	t.Cleanup(func() {
		app.db.DB.Close()
		os.RemoveAll(dir)
	})

	return app
}

// registerAndLogin creates an account through the API and returns its token.
func registerAndLogin(t *testing.T, app *MockApplication, handler http.Handler, login string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"login":    login,
		"email":    login + "@example.com",
		"password": "Str0ng!pass",
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/auth/register", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("Register %q: expected 201, got %d: %s", login, rec.Code, rec.Body.String())
	}

	return loginUser(t, handler, login)
}

// loginUser authenticates an existing account and returns a fresh token.
func loginUser(t *testing.T, handler http.Handler, login string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"login": login, "password": "Str0ng!pass"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Login %q: expected 200, got %d: %s", login, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("Expected a token, got %s", rec.Body.String())
	}
	return resp.Token
}

// threadForm builds a multipart body for thread creation.
func threadForm(t *testing.T, fields map[string]string, tags []string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField failed: %v", err)
		}
	}
	for _, tag := range tags {
		if err := w.WriteField("tags", tag); err != nil {
			t.Fatalf("WriteField failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func authedRequest(method, path string, body io.Reader, token, contentType string) *http.Request {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func promoteToModerator(t *testing.T, app *MockApplication, login string) {
	t.Helper()
	if _, err := app.db.DB.Exec("UPDATE users SET role = ? WHERE login = ?", models.RoleModerator, login); err != nil {
		t.Fatalf("Failed to promote %q: %v", login, err)
	}
}
