package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - last published report per session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL,
			hand_side TEXT NOT NULL DEFAULT '',
			fingers_matched INTEGER NOT NULL DEFAULT 0 CHECK(fingers_matched BETWEEN 0 AND 5),
			brightness INTEGER NOT NULL DEFAULT 0,
			light TEXT NOT NULL DEFAULT 'Unknown',
			blur_score REAL NOT NULL DEFAULT 0,
			complete INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Captures table - one row per capture attempt, accepted or rejected
		`CREATE TABLE IF NOT EXISTS captures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			stage TEXT NOT NULL,
			accepted INTEGER NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			brightness INTEGER NOT NULL DEFAULT 0,
			blur_score REAL NOT NULL DEFAULT 0,
			confidence REAL NOT NULL DEFAULT 0,
			filename TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_captures_session_id ON captures(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
