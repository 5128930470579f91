// forum-backend/models/models.go
package models

import (
	"database/sql"
	"time"
)

// --- Core Data Models ---

// User roles. Role 1 covers both moderators and admins.
const (
	RoleMember    = 0
	RoleModerator = 1
)

// User account status.
const (
	StatusActive = 0
	StatusBanned = -1
)

type User struct {
	ID             int64
	Nickname       string
	Login          string
	Password       string // bcrypt hash, never the plaintext
	Email          string
	CreationDate   time.Time
	ProfilePicture sql.NullString
	Role           int
	Status         int
}

// Thread is a node in the discussion forest. A root thread has neither
// SupThreadID nor PrimeThreadID; every other thread has both, and
// PrimeThreadID points directly at the forest root regardless of depth.
type Thread struct {
	ID            int64
	AuthorID      int64
	SupThreadID   sql.NullInt64
	PrimeThreadID sql.NullInt64
	Title         string
	Description   string
	CreationDate  time.Time
	Deleted       bool
}

// IsRoot reports whether t is a forest root. Both pointers are null on a
// root; anything else is a sub-thread.
func (t *Thread) IsRoot() bool {
	return !t.SupThreadID.Valid && !t.PrimeThreadID.Valid
}

type Tag struct {
	ID  int64  `json:"id"`
	Tag string `json:"tag"`
}

type Image struct {
	ID       int64
	ThreadID int64
	Path     string
}

// Like is a single user's vote on a thread. Value is strictly +1 or -1; a
// retracted vote deletes the row rather than storing zero.
type Like struct {
	ID       int64
	UserID   int64
	ThreadID int64
	Value    int
}

type Subscription struct {
	ID         int64
	UserID     int64
	ThreadID   int64
	Subscribed bool
}

type Ban struct {
	ID                 int64
	BannedUserID       int64
	BanningModeratorID int64
	Reason             string
	BanDate            time.Time
	BanUntil           time.Time
}

type Report struct {
	ID              int64
	ReportedUserID  int64
	ReportingUserID int64
	Reason          string
	ReportDate      time.Time
}

// --- Request Inputs ---

// Identity is the authenticated principal handed down by the transport
// layer. A zero UserID means the caller is unauthenticated.
type Identity struct {
	UserID int64
	Role   int
}

// NewImage is a validated upload: the client-supplied name (used only for
// its extension) and the raw bytes.
type NewImage struct {
	FileName string
	Data     []byte
}

// ThreadPatch is a partial thread edit. Nil fields are left untouched.
// Tags: nil means no tag change; an empty slice unlinks every tag. A
// non-empty Images slice replaces the full image set.
type ThreadPatch struct {
	Title       *string
	Description *string
	Tags        []string
	Images      []NewImage
}

// ThreadFilter narrows ListThreads. Zero values disable each filter.
type ThreadFilter struct {
	AuthorID     int64
	Keyword      string
	MostDisliked bool
}

// VoteOutcome reports what a vote call actually did.
type VoteOutcome string

const (
	VoteRecorded  VoteOutcome = "recorded"
	VoteRetracted VoteOutcome = "retracted"
)

// --- Response DTOs ---

// ThreadNode is one node of an assembled thread tree. Sub-threads inherit
// the root's title and carry their tag set as copied at creation time.
type ThreadNode struct {
	ThreadID       int64         `json:"threadId"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	AuthorID       int64         `json:"authorId"`
	AuthorNickname string        `json:"authorNickname"`
	AuthorAvatar   string        `json:"authorProfilePicture,omitempty"`
	CreationDate   time.Time     `json:"creationDate"`
	Deleted        bool          `json:"deleted"`
	Likes          int           `json:"likes"`
	Tags           []string      `json:"tags,omitempty"`
	Images         []string      `json:"images,omitempty"`
	Subthreads     []*ThreadNode `json:"subthreads,omitempty"`
}

// ThreadSummary is one row of a thread listing.
type ThreadSummary struct {
	ThreadID       int64     `json:"threadId"`
	Title          string    `json:"title"`
	AuthorID       int64     `json:"authorId"`
	AuthorNickname string    `json:"authorNickname"`
	Description    string    `json:"description"`
	CreationDate   time.Time `json:"creationDate"`
	Tags           []string  `json:"tags,omitempty"`
	Image          string    `json:"image,omitempty"`
}

// ThreadPage is a paginated thread listing with aggregate counts.
type ThreadPage struct {
	Data        []ThreadSummary `json:"data"`
	TotalCount  int             `json:"totalCount"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	PageSize    int             `json:"pageSize"`
}

// BannedUserEntry joins a ban row with both parties for moderator listings.
type BannedUserEntry struct {
	BannedUserID       int64     `json:"bannedUserId"`
	BannedUserNickname string    `json:"bannedUserNickname"`
	BannedUserLogin    string    `json:"bannedUserLogin"`
	BannedUserEmail    string    `json:"bannedUserEmail"`
	Reason             string    `json:"reason"`
	BanDate            time.Time `json:"dateOfBan"`
	BanUntil           time.Time `json:"bannedUntil"`
	ModeratorID        int64     `json:"adminId"`
	ModeratorNickname  string    `json:"adminNickname"`
	ModeratorLogin     string    `json:"adminLogin"`
}

// ReportedUserEntry joins a report row with both parties.
type ReportedUserEntry struct {
	ReportID          int64     `json:"reportId"`
	ReportedUserID    int64     `json:"reportedUserId"`
	ReportedNickname  string    `json:"reportedUserNickname"`
	ReportedLogin     string    `json:"reportedUserLogin"`
	ReportedEmail     string    `json:"reportedUserMail"`
	Reason            string    `json:"reason"`
	ReportDate        time.Time `json:"reportDate"`
	ReportingUserID   int64     `json:"reportingUserId"`
	ReportingNickname string    `json:"reportingUserNickname"`
	ReportingLogin    string    `json:"reportingUserLogin"`
	ReportingEmail    string    `json:"reportingUserMail"`
}

// BannedUsersPage wraps a banned-user listing with aggregate counts.
type BannedUsersPage struct {
	Data        []BannedUserEntry `json:"data"`
	TotalCount  int               `json:"totalCount"`
	TotalPages  int               `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
	PageSize    int               `json:"pageSize"`
}

// ReportedUsersPage wraps a reported-user listing with aggregate counts.
type ReportedUsersPage struct {
	Data        []ReportedUserEntry `json:"data"`
	TotalCount  int                 `json:"totalCount"`
	TotalPages  int                 `json:"totalPages"`
	CurrentPage int                 `json:"currentPage"`
	PageSize    int                 `json:"pageSize"`
}

// --- Collaborator Interfaces ---

// StorageService persists binary attachments. Implementations return the
// stored reference (a serving path or public URL) from SaveFile.
type StorageService interface {
	SaveFile(filename string, data []byte, contentType string) (string, error)
	DeleteFile(path string) error
}
