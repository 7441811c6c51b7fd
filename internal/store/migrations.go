package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			scope TEXT NOT NULL DEFAULT '',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Activities from Strava sync and FIT import
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY,
			source TEXT NOT NULL DEFAULT 'strava',
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			start_date_local TEXT NOT NULL,
			timezone TEXT,
			distance REAL,
			moving_time INTEGER NOT NULL,
			elapsed_time INTEGER NOT NULL,
			total_elevation_gain REAL,
			average_heartrate REAL,
			max_heartrate REAL,
			average_watts REAL,
			weighted_average_watts REAL,
			device_watts INTEGER NOT NULL DEFAULT 0,
			kilojoules REAL,
			tss REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_start_date_local ON activities(start_date_local)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_type ON activities(type)`,

		// Training plans; only one is active at a time
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			imported_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS planned_sessions (
			plan_id TEXT NOT NULL,
			week INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			date TEXT NOT NULL,
			type TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			description TEXT,
			PRIMARY KEY (plan_id, week, idx),
			FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_planned_sessions_date ON planned_sessions(date)`,

		// Completion ledger keyed by (plan, week, index)
		`CREATE TABLE IF NOT EXISTS completions (
			plan_id TEXT NOT NULL,
			week INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			automatic INTEGER NOT NULL DEFAULT 0,
			manual_override INTEGER NOT NULL DEFAULT 0,
			missed INTEGER NOT NULL DEFAULT 0,
			legacy INTEGER NOT NULL DEFAULT 0,
			missed_reason TEXT,
			missed_date TEXT,
			score REAL NOT NULL DEFAULT 0,
			activity_id INTEGER,
			reason TEXT,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (plan_id, week, idx),
			FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE,
			CHECK (NOT (completed = 1 AND missed = 1))
		)`,

		// Sync State (key-value store for sync tracking)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
