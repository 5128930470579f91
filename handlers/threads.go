// forum-backend/handlers/threads.go

package handlers

import (
	"net/http"
	"strconv"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/config"
	"github.com/Desi451/forum-backend/models"
)

// multipart memory cap: images beyond this spill to temp files
const maxMultipartMemory = config.MaxImageSize + 1024

// HandleCreateThread creates a new root thread from a multipart form with
// fields title, description, tags (repeated) and images (files).
func HandleCreateThread(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, r, app, apperr.New(apperr.CodeInvalidArgument, "Form parsing error."))
		return
	}

	images, err := formImages(r, "images")
	if err != nil {
		writeError(w, r, app, err)
		return
	}

	id, err := app.DB().CreateThread(caller.UserID,
		r.FormValue("title"), r.FormValue("description"), r.Form["tags"], images)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	app.Logger().Info("Thread created", "thread_id", id, "author_id", caller.UserID)
	respondJSON(w, http.StatusCreated, map[string]int64{"threadId": id}, app)
}

// HandleCreateSubthread creates a reply under an existing thread. Tags are
// copied from the root at creation time; only description and images are
// taken from the form.
func HandleCreateSubthread(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	parentID, err := urlID(r, "threadID")
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, r, app, apperr.New(apperr.CodeInvalidArgument, "Form parsing error."))
		return
	}

	images, err := formImages(r, "images")
	if err != nil {
		writeError(w, r, app, err)
		return
	}

	id, err := app.DB().CreateSubthread(parentID, caller.UserID, r.FormValue("description"), images)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	app.Logger().Info("Subthread created", "thread_id", id, "parent_id", parentID, "author_id", caller.UserID)
	respondJSON(w, http.StatusCreated, map[string]int64{"threadId": id}, app)
}

// HandleGetThreadTree returns a root thread with its full reply tree.
func HandleGetThreadTree(w http.ResponseWriter, r *http.Request, app App) {
	rootID, err := urlID(r, "threadID")
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	tree, err := app.DB().GetThreadTree(rootID)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, tree, app)
}

// HandleListThreads returns one page of root threads. Supported query
// parameters: page, pageSize, author, search, mostDisliked.
func HandleListThreads(w http.ResponseWriter, r *http.Request, app App) {
	page, size := queryPage(r, config.DefaultThreadPageSize)

	var filter models.ThreadFilter
	if v := r.URL.Query().Get("author"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 1 {
			writeError(w, r, app, apperr.New(apperr.CodeInvalidArgument, "Invalid author."))
			return
		}
		filter.AuthorID = id
	}
	filter.Keyword = r.URL.Query().Get("search")
	filter.MostDisliked = r.URL.Query().Get("mostDisliked") == "true"

	pageData, err := app.DB().ListThreads(filter, page, size)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, pageData, app)
}

// HandleEditThread applies a partial edit. Form fields that are absent are
// left untouched; a present tags field replaces the full tag set.
func HandleEditThread(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	threadID, err := urlID(r, "threadID")
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, r, app, apperr.New(apperr.CodeInvalidArgument, "Form parsing error."))
		return
	}

	var patch models.ThreadPatch
	if v, ok := r.Form["title"]; ok && len(v) > 0 {
		patch.Title = &v[0]
	}
	if v, ok := r.Form["description"]; ok && len(v) > 0 {
		patch.Description = &v[0]
	}
	if v, ok := r.Form["tags"]; ok {
		// a present tags field replaces the set; empty values are dropped
		patch.Tags = make([]string, 0, len(v))
		for _, t := range v {
			if t != "" {
				patch.Tags = append(patch.Tags, t)
			}
		}
	} else if r.FormValue("clearTags") == "true" {
		patch.Tags = []string{}
	}
	patch.Images, err = formImages(r, "images")
	if err != nil {
		writeError(w, r, app, err)
		return
	}

	if err := app.DB().EditThread(threadID, caller.UserID, patch); err != nil {
		writeError(w, r, app, err)
		return
	}
	app.Logger().Info("Thread edited", "thread_id", threadID, "author_id", caller.UserID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"}, app)
}

// HandleDeleteThread soft-deletes a thread. Deleting a root takes its whole
// tree down with it.
func HandleDeleteThread(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	threadID, err := urlID(r, "threadID")
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	if err := app.DB().DeleteThread(threadID, caller.UserID); err != nil {
		writeError(w, r, app, err)
		return
	}
	app.Logger().Info("Thread deleted", "thread_id", threadID, "author_id", caller.UserID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, app)
}

// HandleVote records, flips or retracts the caller's vote on a thread.
func HandleVote(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	threadID, err := urlID(r, "threadID")
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	var req struct {
		Value int `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, app, err)
		return
	}

	outcome, err := app.DB().VoteThread(caller.UserID, threadID, req.Value)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]models.VoteOutcome{"result": outcome}, app)
}

// HandleToggleSubscription flips the caller's subscription to a root thread.
func HandleToggleSubscription(w http.ResponseWriter, r *http.Request, app App) {
	caller, err := requireIdentity(r)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	threadID, err := urlID(r, "threadID")
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	subscribed, err := app.DB().ToggleSubscription(caller.UserID, threadID)
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"subscribed": subscribed}, app)
}

// HandleListTags returns every tag ever used, in creation order.
func HandleListTags(w http.ResponseWriter, r *http.Request, app App) {
	tags, err := app.DB().ListTags()
	if err != nil {
		writeError(w, r, app, err)
		return
	}
	respondJSON(w, http.StatusOK, tags, app)
}
