// forum-backend/handlers/handlers.go

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/auth"
	"github.com/Desi451/forum-backend/config"
	"github.com/Desi451/forum-backend/database"
	"github.com/Desi451/forum-backend/models"
	"github.com/Desi451/forum-backend/utils"
)

// App is an interface that defines the dependencies our handlers need.
type App interface {
	DB() *database.DatabaseService
	Logger() *slog.Logger
	Tokens() *auth.TokenService
	URLs() *utils.URLResolver
	UploadDir() string
}

// MakeHandler adapts an App-aware handler function to http.HandlerFunc.
func MakeHandler(app App, fn func(http.ResponseWriter, *http.Request, App)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, app)
	}
}

// respondJSON sends a JSON response with a given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}, app App) {
	response, err := json.Marshal(payload)
	if err != nil {
		app.Logger().Error("Failed to marshal JSON payload", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte(`{"error":"internal","message":"Failed to marshal JSON response."}`)); werr != nil {
			app.Logger().Error("Failed to write internal server error response", "error", werr)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		app.Logger().Error("Failed to write JSON response", "error", err)
	}
}

type errorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

// writeError maps a domain error onto an HTTP status and JSON body.
// Internal errors are logged with their cause but reported generically.
func writeError(w http.ResponseWriter, r *http.Request, app App, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal(err)
	}
	status := apperr.HTTPStatus(ae.Code)
	if status >= 500 {
		app.Logger().Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondJSON(w, status, errorResponse{Error: string(apperr.CodeInternal), Message: "Internal server error."}, app)
		return
	}
	respondJSON(w, status, errorResponse{Error: string(ae.Code), Message: ae.Message, Errors: ae.Fields}, app)
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.New(apperr.CodeInvalidArgument, "Malformed JSON request body.")
	}
	return nil
}

// urlID extracts a positive integer URL parameter.
func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.Newf(apperr.CodeInvalidArgument, "Invalid %s.", name)
	}
	return id, nil
}

// queryPage reads page/pageSize query parameters with a fallback size.
func queryPage(r *http.Request, defaultSize int) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))
	if size < 1 {
		size = defaultSize
	}
	return page, size
}

// formImages collects the uploaded files of a multipart field. Size and
// format are validated downstream; here only raw reading is capped.
func formImages(r *http.Request, field string) ([]models.NewImage, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var images []models.NewImage
	for _, header := range r.MultipartForm.File[field] {
		img, err := readUpload(header)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func readUpload(header *multipart.FileHeader) (models.NewImage, error) {
	file, err := header.Open()
	if err != nil {
		return models.NewImage{}, apperr.Internal(err)
	}
	defer func() {
		_ = file.Close()
	}()

	// one byte over the limit lets the validator report FileTooLarge
	data, err := io.ReadAll(io.LimitReader(file, config.MaxImageSize+1))
	if err != nil {
		return models.NewImage{}, apperr.Internal(err)
	}
	return models.NewImage{FileName: header.Filename, Data: data}, nil
}
