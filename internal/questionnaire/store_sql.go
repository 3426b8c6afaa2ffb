package questionnaire

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) ActiveTemplate(ctx context.Context, trainingID string, cat Category) (Template, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,training_id,type,title,is_active,created_at
		 FROM questionnaire_templates
		 WHERE training_id=$1 AND type=$2 AND is_active=TRUE
		 ORDER BY created_at DESC LIMIT 1`,
		trainingID, string(cat))
	t, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Template{}, ErrNoActiveTemplate
		}
		return Template{}, err
	}
	t.Questions, err = s.questionsFor(ctx, t.ID)
	return t, err
}

func (s *SQLStore) GetTemplate(ctx context.Context, id string) (Template, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,training_id,type,title,is_active,created_at
		 FROM questionnaire_templates WHERE id=$1`, id)
	t, err := scanTemplate(row)
	if err != nil {
		return Template{}, err
	}
	t.Questions, err = s.questionsFor(ctx, t.ID)
	return t, err
}

func scanTemplate(row interface{ Scan(...interface{}) error }) (Template, error) {
	var t Template
	if err := row.Scan(&t.ID, &t.TrainingID, (*string)(&t.Type), &t.Title, &t.IsActive, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, ErrNotFound
		}
		return Template{}, err
	}
	return t, nil
}

func (s *SQLStore) questionsFor(ctx context.Context, templateID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,template_id,order_index,type,text,options_json,correct_answer
		 FROM questions WHERE template_id=$1 ORDER BY order_index`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Question
	for rows.Next() {
		var q Question
		var optsJSON string
		var correct sql.NullString
		if err := rows.Scan(&q.ID, &q.TemplateID, &q.OrderIndex, &q.Type, &q.Text, &optsJSON, &correct); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(optsJSON), &q.Options); err != nil {
			q.Options = nil
		}
		if correct.Valid {
			v := correct.String
			q.CorrectAnswer = &v
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveTemplate(ctx context.Context, t Template) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if t.IsActive {
		// single active template per (training, category)
		if _, err := tx.ExecContext(ctx,
			`UPDATE questionnaire_templates SET is_active=FALSE
			 WHERE training_id=$1 AND type=$2 AND id<>$3`,
			t.TrainingID, string(t.Type), t.ID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO questionnaire_templates (id,training_id,type,title,is_active,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, is_active=EXCLUDED.is_active`,
		t.ID, t.TrainingID, string(t.Type), t.Title, t.IsActive, time.Now().Unix()); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE template_id=$1`, t.ID); err != nil {
		return err
	}
	for i, q := range t.Questions {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		var correct interface{}
		if q.CorrectAnswer != nil {
			correct = *q.CorrectAnswer
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (id,template_id,order_index,type,text,options_json,correct_answer)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			q.ID, t.ID, i, q.Type, q.Text, string(opts), correct); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) ListTemplates(ctx context.Context, trainingID string) ([]Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,training_id,type,title,is_active,created_at
		 FROM questionnaire_templates WHERE training_id=$1 ORDER BY created_at DESC`, trainingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) FindResponses(ctx context.Context, f ResponseFilter) ([]Response, error) {
	where := []string{}
	args := []interface{}{}
	n := 1
	add := func(cond string, v interface{}) {
		where = append(where, fmt.Sprintf(cond, n))
		args = append(args, v)
		n++
	}
	if f.LearnerID != "" {
		add("learner_id=$%d", f.LearnerID)
	}
	if f.TemplateID != "" {
		add("template_id=$%d", f.TemplateID)
	}
	if f.Type != "" {
		add("type=$%d", string(f.Type))
	}
	if f.FilterSubType {
		add("sub_type=$%d", string(f.SubType))
	}
	q := `SELECT id,learner_id,template_id,type,sub_type,answers_json,score,created_at,updated_at FROM responses`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY updated_at DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanResponse(rows interface{ Scan(...interface{}) error }) (Response, error) {
	var r Response
	var answersJSON string
	var score sql.NullInt64
	if err := rows.Scan(&r.ID, &r.LearnerID, &r.TemplateID, (*string)(&r.Type), (*string)(&r.SubType),
		&answersJSON, &score, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Response{}, err
	}
	if err := json.Unmarshal([]byte(answersJSON), &r.Answers); err != nil {
		r.Answers = map[string]string{}
	}
	if score.Valid {
		v := int(score.Int64)
		r.Score = &v
	}
	return r, nil
}

func (s *SQLStore) InsertResponse(ctx context.Context, r Response) (Response, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	buf, err := json.Marshal(r.Answers)
	if err != nil {
		return Response{}, err
	}
	now := time.Now().Unix()
	var score interface{}
	if r.Score != nil {
		score = *r.Score
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO responses (id,learner_id,template_id,type,sub_type,answers_json,score,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		r.ID, r.LearnerID, r.TemplateID, string(r.Type), string(r.SubType), string(buf), score, now, now)
	if err != nil {
		return Response{}, err
	}
	r.CreatedAt, r.UpdatedAt = now, now
	return r, nil
}

func (s *SQLStore) UpdateResponse(ctx context.Context, id string, answers map[string]string, score *int) (Response, error) {
	buf, err := json.Marshal(answers)
	if err != nil {
		return Response{}, err
	}
	now := time.Now().Unix()
	var sc interface{}
	if score != nil {
		sc = *score
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE responses SET answers_json=$1, score=$2, updated_at=$3 WHERE id=$4`,
		string(buf), sc, now, id)
	if err != nil {
		return Response{}, err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return Response{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id,learner_id,template_id,type,sub_type,answers_json,score,created_at,updated_at
		 FROM responses WHERE id=$1`, id)
	return scanResponse(row)
}
