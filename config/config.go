// forum-backend/config/config.go
package config

import "time"

const (
	AppVersion = "1.0.0"

	// Thread content limits
	MinTitleLen       = 5
	MaxTitleLen       = 100
	MinDescriptionLen = 10
	MaxDescriptionLen = 1000
	MaxTagsPerThread  = 10

	// Image upload limits
	MaxImagesPerThread = 5
	MaxImageSize       = 5 * 1024 * 1024 // 5MB

	// Account limits (login and nickname share the same rule)
	MinLoginLen    = 5
	MaxLoginLen    = 12
	MinPasswordLen = 8

	// Pagination defaults
	DefaultThreadPageSize = 15
	DefaultAdminPageSize  = 20

	// Ban maintenance
	DefaultUnbanInterval = 15 * time.Minute

	// Identity tokens
	DefaultTokenExpiration = 24 * time.Hour
)

// AllowedImageExtensions lists the upload extensions accepted for thread
// images and avatars. Lowercase, with leading dot.
var AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}
