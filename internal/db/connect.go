package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:petitmaker.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/petitmaker?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS companies (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',   -- pending|validated
  training_id TEXT,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trainings (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  start_date TEXT,
  end_date TEXT,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS learners (
  id TEXT PRIMARY KEY,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'learner',
  company_id TEXT REFERENCES companies(id),
  training_id TEXT REFERENCES trainings(id),

  questionnaire_completed INTEGER NOT NULL DEFAULT 0,
  internal_rules_acknowledged INTEGER NOT NULL DEFAULT 0,
  initial_evaluation_completed INTEGER NOT NULL DEFAULT 0,
  final_evaluation_completed INTEGER NOT NULL DEFAULT 0,
  satisfaction_completed INTEGER NOT NULL DEFAULT 0,
  has_signed_agreement INTEGER NOT NULL DEFAULT 0,
  has_signed_attendance INTEGER NOT NULL DEFAULT 0,
  has_signed_certificate INTEGER NOT NULL DEFAULT 0,

  initial_score INTEGER,
  final_score INTEGER,

  agreement_url TEXT NOT NULL DEFAULT '',
  agreement_asset_kind TEXT NOT NULL DEFAULT '',
  attendance_url TEXT NOT NULL DEFAULT '',
  attendance_asset_kind TEXT NOT NULL DEFAULT '',
  certificate_url TEXT NOT NULL DEFAULT '',
  certificate_asset_kind TEXT NOT NULL DEFAULT '',

  deleted INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS questionnaire_templates (
  id TEXT PRIMARY KEY,
  training_id TEXT NOT NULL REFERENCES trainings(id) ON DELETE CASCADE,
  type TEXT NOT NULL,               -- positioning|initial_final_evaluation|satisfaction
  title TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  template_id TEXT NOT NULL REFERENCES questionnaire_templates(id) ON DELETE CASCADE,
  order_index INTEGER NOT NULL,
  type TEXT NOT NULL,               -- multiple_choice|yes_no|rating|short_answer
  text TEXT NOT NULL,
  options_json TEXT NOT NULL DEFAULT '[]',
  correct_answer TEXT
);

CREATE TABLE IF NOT EXISTS responses (
  id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
  template_id TEXT NOT NULL,
  type TEXT NOT NULL,
  sub_type TEXT NOT NULL DEFAULT '',  -- initial|final|''
  answers_json TEXT NOT NULL,
  score INTEGER,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_tuple
  ON responses (learner_id, template_id, type, sub_type);

CREATE TABLE IF NOT EXISTS documents (
  id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
  training_id TEXT NOT NULL,
  type TEXT NOT NULL,               -- training_agreement|attendance_sheet|completion_certificate
  file_url TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_tuple
  ON documents (learner_id, training_id, type);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" INTEGER PRIMARY KEY AUTOINCREMENT,
  typ TEXT NOT NULL,   -- e.g., response.submitted
  key TEXT NOT NULL,   -- natural key: learnerID or responseID
  data TEXT NOT NULL,  -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS companies (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  training_id TEXT,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS trainings (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  start_date TEXT,
  end_date TEXT,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS learners (
  id TEXT PRIMARY KEY,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'learner',
  company_id TEXT REFERENCES companies(id),
  training_id TEXT REFERENCES trainings(id),

  questionnaire_completed BOOLEAN NOT NULL DEFAULT FALSE,
  internal_rules_acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
  initial_evaluation_completed BOOLEAN NOT NULL DEFAULT FALSE,
  final_evaluation_completed BOOLEAN NOT NULL DEFAULT FALSE,
  satisfaction_completed BOOLEAN NOT NULL DEFAULT FALSE,
  has_signed_agreement BOOLEAN NOT NULL DEFAULT FALSE,
  has_signed_attendance BOOLEAN NOT NULL DEFAULT FALSE,
  has_signed_certificate BOOLEAN NOT NULL DEFAULT FALSE,

  initial_score INTEGER,
  final_score INTEGER,

  agreement_url TEXT NOT NULL DEFAULT '',
  agreement_asset_kind TEXT NOT NULL DEFAULT '',
  attendance_url TEXT NOT NULL DEFAULT '',
  attendance_asset_kind TEXT NOT NULL DEFAULT '',
  certificate_url TEXT NOT NULL DEFAULT '',
  certificate_asset_kind TEXT NOT NULL DEFAULT '',

  deleted BOOLEAN NOT NULL DEFAULT FALSE,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS questionnaire_templates (
  id TEXT PRIMARY KEY,
  training_id TEXT NOT NULL REFERENCES trainings(id) ON DELETE CASCADE,
  type TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  is_active BOOLEAN NOT NULL DEFAULT FALSE,
  created_at BIGINT NOT NULL
);

-- one active template per (training, category)
CREATE UNIQUE INDEX IF NOT EXISTS uq_templates_active
  ON questionnaire_templates (training_id, type) WHERE is_active;

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  template_id TEXT NOT NULL REFERENCES questionnaire_templates(id) ON DELETE CASCADE,
  order_index INTEGER NOT NULL,
  type TEXT NOT NULL,
  text TEXT NOT NULL,
  options_json TEXT NOT NULL DEFAULT '[]',
  correct_answer TEXT
);

CREATE TABLE IF NOT EXISTS responses (
  id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
  template_id TEXT NOT NULL,
  type TEXT NOT NULL,
  sub_type TEXT NOT NULL DEFAULT '',
  answers_json TEXT NOT NULL,
  score INTEGER,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_tuple
  ON responses (learner_id, template_id, type, sub_type);

CREATE TABLE IF NOT EXISTS documents (
  id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
  training_id TEXT NOT NULL,
  type TEXT NOT NULL,
  file_url TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_tuple
  ON documents (learner_id, training_id, type);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
