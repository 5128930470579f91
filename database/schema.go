// forum-backend/database/schema.go
package database

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	nickname TEXT NOT NULL,
	login TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	creation_date DATETIME NOT NULL,
	profile_picture TEXT,
	role INTEGER NOT NULL DEFAULT 0,
	status INTEGER NOT NULL DEFAULT 0
);
-- Threads are a self-referential forest. sup_thread_id is the immediate
-- parent; prime_thread_id always points at the forest root, whatever the
-- nesting depth. Both are NULL on a root thread.
CREATE TABLE IF NOT EXISTS threads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	author_id INTEGER NOT NULL,
	sup_thread_id INTEGER,
	prime_thread_id INTEGER,
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL,
	creation_date DATETIME NOT NULL,
	deleted BOOLEAN NOT NULL DEFAULT 0,
	FOREIGN KEY (author_id) REFERENCES users(id),
	FOREIGN KEY (sup_thread_id) REFERENCES threads(id),
	FOREIGN KEY (prime_thread_id) REFERENCES threads(id)
);
CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tag TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS thread_tags (
	thread_id INTEGER NOT NULL,
	tag_id INTEGER NOT NULL,
	PRIMARY KEY (thread_id, tag_id),
	FOREIGN KEY (thread_id) REFERENCES threads(id) ON DELETE CASCADE,
	FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS images (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id INTEGER NOT NULL,
	image TEXT NOT NULL,
	FOREIGN KEY (thread_id) REFERENCES threads(id) ON DELETE CASCADE
);
-- value is strictly +1 or -1; a retracted vote removes the row.
CREATE TABLE IF NOT EXISTS likes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	thread_id INTEGER NOT NULL,
	value INTEGER NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id),
	FOREIGN KEY (thread_id) REFERENCES threads(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS subscriptions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	thread_id INTEGER NOT NULL,
	subscribed BOOLEAN NOT NULL DEFAULT 1,
	FOREIGN KEY (user_id) REFERENCES users(id),
	FOREIGN KEY (thread_id) REFERENCES threads(id) ON DELETE CASCADE
);
-- Ban history is retained: unbanning flips the user status but keeps the
-- row. "Actively banned" is a property of users.status, not of this table.
CREATE TABLE IF NOT EXISTS bans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	banned_user_id INTEGER NOT NULL,
	banning_moderator_id INTEGER NOT NULL,
	reason TEXT NOT NULL,
	ban_date DATETIME NOT NULL,
	ban_until DATETIME NOT NULL,
	FOREIGN KEY (banned_user_id) REFERENCES users(id),
	FOREIGN KEY (banning_moderator_id) REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	reported_user_id INTEGER NOT NULL,
	reporting_user_id INTEGER NOT NULL,
	reason TEXT NOT NULL,
	report_date DATETIME NOT NULL,
	FOREIGN KEY (reported_user_id) REFERENCES users(id),
	FOREIGN KEY (reporting_user_id) REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME NOT NULL
);

-- --- INDEXES ---
CREATE UNIQUE INDEX IF NOT EXISTS idx_likes_user_thread ON likes(user_id, thread_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_user_thread ON subscriptions(user_id, thread_id);
CREATE INDEX IF NOT EXISTS idx_threads_author ON threads(author_id);
CREATE INDEX IF NOT EXISTS idx_reports_reported ON reports(reported_user_id);
CREATE INDEX IF NOT EXISTS idx_reports_reporting ON reports(reporting_user_id);
CREATE INDEX IF NOT EXISTS idx_bans_user ON bans(banned_user_id);
CREATE INDEX IF NOT EXISTS idx_images_thread ON images(thread_id);
`
