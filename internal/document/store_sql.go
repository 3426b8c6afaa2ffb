package document

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Latest(ctx context.Context, learnerID, trainingID string, typ Type) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,learner_id,training_id,type,file_url,created_at
		 FROM documents
		 WHERE learner_id=$1 AND training_id=$2 AND type=$3
		 ORDER BY created_at DESC LIMIT 1`,
		learnerID, trainingID, string(typ))
	var r Record
	err := row.Scan(&r.ID, &r.LearnerID, &r.TrainingID, (*string)(&r.Type), &r.FileURL, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

func (s *SQLStore) Insert(ctx context.Context, r Record) (Record, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id,learner_id,training_id,type,file_url,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		r.ID, r.LearnerID, r.TrainingID, string(r.Type), r.FileURL, r.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

func (s *SQLStore) ListForLearner(ctx context.Context, learnerID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,learner_id,training_id,type,file_url,created_at
		 FROM documents WHERE learner_id=$1 ORDER BY created_at DESC`, learnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.LearnerID, &r.TrainingID, (*string)(&r.Type), &r.FileURL, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
