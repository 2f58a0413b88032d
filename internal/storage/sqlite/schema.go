// ABOUTME: SQLite database schema for the analysis audit log
// ABOUTME: One row per analyze request, indexed by date and status
package sqlite

// Schema contains all SQL statements for database initialization.
// analysis_date is TEXT in "YYYY-MM-DD HH:MM:SS" UTC so SQLite date
// functions and lexical comparison both work on it.
const Schema = `
CREATE TABLE IF NOT EXISTS analysis_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    issue_text TEXT NOT NULL,
    summary_text TEXT NOT NULL,
    proposed_budget INTEGER,
    predicted_budget REAL,
    average_budget REAL,
    case_count INTEGER,
    similar_cases TEXT,
    analysis_date TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    user_ip TEXT,
    user_agent TEXT,
    processing_time REAL,
    status TEXT DEFAULT 'success',
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_analysis_date ON analysis_logs(analysis_date);
CREATE INDEX IF NOT EXISTS idx_status ON analysis_logs(status);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
