package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event types appended by the workflow engine.
const (
	TypeResponseSubmitted   = "response.submitted"
	TypeResponseAmbiguous   = "response.ambiguous"
	TypeDocumentSigned      = "document.signed"
	TypeDocumentRegenerated = "document.regenerated"
	TypeCompanyValidated    = "company.validated"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key: learnerID or responseID
	DataJSON  string
	CreatedAt int64
}

// Log is the append-only sink for operator-facing workflow events.
type Log interface {
	Append(ctx context.Context, e Event) error
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

// Payload marshals v for Event.DataJSON, falling back to "{}" so that
// audit writes never fail on marshal errors.
func Payload(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Nop discards events; used in tests and when no DB is wired.
type Nop struct{}

func (Nop) Append(context.Context, Event) error { return nil }
