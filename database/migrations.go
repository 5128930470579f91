// forum-backend/database/migrations.go
package database

// migration represents a single database schema migration.
type migration struct {
	Version uint
	Query   string
}

// allMigrations holds all schema changes in order.
var allMigrations = []migration{
	{
		Version: 1,
		Query: `
-- Hierarchy lookups: cascading root deletion and tree assembly both scan by
-- these pointers.
CREATE INDEX IF NOT EXISTS idx_threads_sup ON threads(sup_thread_id);
CREATE INDEX IF NOT EXISTS idx_threads_prime ON threads(prime_thread_id);
CREATE INDEX IF NOT EXISTS idx_threads_deleted_created ON threads(deleted, creation_date DESC);
		`,
	},
}
