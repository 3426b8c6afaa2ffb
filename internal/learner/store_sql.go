package learner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("not found")

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const profileCols = `id,first_name,last_name,email,role,
	COALESCE(company_id,''),COALESCE(training_id,''),
	questionnaire_completed,internal_rules_acknowledged,
	initial_evaluation_completed,final_evaluation_completed,satisfaction_completed,
	has_signed_agreement,has_signed_attendance,has_signed_certificate,
	initial_score,final_score,
	agreement_url,agreement_asset_kind,
	attendance_url,attendance_asset_kind,
	certificate_url,certificate_asset_kind,
	deleted,created_at,updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (Profile, error) {
	var p Profile
	var initScore, finScore sql.NullInt64
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Role,
		&p.CompanyID, &p.TrainingID,
		&p.QuestionnaireCompleted, &p.InternalRulesAcknowledged,
		&p.InitialEvaluationCompleted, &p.FinalEvaluationCompleted, &p.SatisfactionCompleted,
		&p.HasSignedAgreement, &p.HasSignedAttendance, &p.HasSignedCertificate,
		&initScore, &finScore,
		&p.Agreement.URL, (*string)(&p.Agreement.Kind),
		&p.Attendance.URL, (*string)(&p.Attendance.Kind),
		&p.Certificate.URL, (*string)(&p.Certificate.Kind),
		&p.Deleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	if initScore.Valid {
		v := int(initScore.Int64)
		p.InitialScore = &v
	}
	if finScore.Valid {
		v := int(finScore.Int64)
		p.FinalScore = &v
	}
	return p, nil
}

func (s *SQLStore) GetProfile(ctx context.Context, id string) (Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileCols+` FROM learners WHERE id=$1`, id)
	return scanProfile(row)
}

func (s *SQLStore) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileCols+` FROM learners WHERE email=$1 AND deleted=FALSE`, email)
	return scanProfile(row)
}

func (s *SQLStore) PutProfile(ctx context.Context, p Profile) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO learners (id,first_name,last_name,email,role,company_id,training_id,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),NULLIF($7,''),$8,$9)
		 ON CONFLICT (id) DO UPDATE SET
		   first_name=EXCLUDED.first_name, last_name=EXCLUDED.last_name,
		   email=EXCLUDED.email, role=EXCLUDED.role,
		   company_id=EXCLUDED.company_id, training_id=EXCLUDED.training_id,
		   updated_at=EXCLUDED.updated_at`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Role, p.CompanyID, p.TrainingID, now, now)
	return err
}

// UpdateProfile applies only the non-nil fields of patch.
func (s *SQLStore) UpdateProfile(ctx context.Context, id string, patch Patch) error {
	sets := []string{}
	args := []interface{}{}
	n := 1
	add := func(col string, v interface{}) {
		sets = append(sets, fmt.Sprintf("%s=$%d", col, n))
		args = append(args, v)
		n++
	}

	if patch.QuestionnaireCompleted != nil {
		add("questionnaire_completed", *patch.QuestionnaireCompleted)
	}
	if patch.InternalRulesAcknowledged != nil {
		add("internal_rules_acknowledged", *patch.InternalRulesAcknowledged)
	}
	if patch.InitialEvaluationCompleted != nil {
		add("initial_evaluation_completed", *patch.InitialEvaluationCompleted)
	}
	if patch.FinalEvaluationCompleted != nil {
		add("final_evaluation_completed", *patch.FinalEvaluationCompleted)
	}
	if patch.SatisfactionCompleted != nil {
		add("satisfaction_completed", *patch.SatisfactionCompleted)
	}
	if patch.HasSignedAgreement != nil {
		add("has_signed_agreement", *patch.HasSignedAgreement)
	}
	if patch.HasSignedAttendance != nil {
		add("has_signed_attendance", *patch.HasSignedAttendance)
	}
	if patch.HasSignedCertificate != nil {
		add("has_signed_certificate", *patch.HasSignedCertificate)
	}
	if patch.InitialScore != nil {
		add("initial_score", *patch.InitialScore)
	}
	if patch.FinalScore != nil {
		add("final_score", *patch.FinalScore)
	}
	if patch.Agreement != nil {
		add("agreement_url", patch.Agreement.URL)
		add("agreement_asset_kind", string(patch.Agreement.Kind))
	}
	if patch.Attendance != nil {
		add("attendance_url", patch.Attendance.URL)
		add("attendance_asset_kind", string(patch.Attendance.Kind))
	}
	if patch.Certificate != nil {
		add("certificate_url", patch.Certificate.URL)
		add("certificate_asset_kind", string(patch.Certificate.Kind))
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().Unix())

	args = append(args, id)
	q := fmt.Sprintf(`UPDATE learners SET %s WHERE id=$%d`, strings.Join(sets, ", "), n)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListProfiles(ctx context.Context, opts ListOpts) ([]Profile, error) {
	where := []string{"deleted=FALSE"}
	args := []interface{}{}
	n := 1
	if opts.TrainingID != "" {
		where = append(where, fmt.Sprintf("training_id=$%d", n))
		args = append(args, opts.TrainingID)
		n++
	}
	if opts.CompanyID != "" {
		where = append(where, fmt.Sprintf("company_id=$%d", n))
		args = append(args, opts.CompanyID)
		n++
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := fmt.Sprintf(`SELECT `+profileCols+` FROM learners WHERE %s ORDER BY last_name, first_name LIMIT %d OFFSET %d`,
		strings.Join(where, " AND "), limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetCompany(ctx context.Context, id string) (Company, error) {
	var c Company
	err := s.db.QueryRowContext(ctx,
		`SELECT id,name,status,COALESCE(training_id,''),created_at FROM companies WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Status, &c.TrainingID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	return c, err
}

func (s *SQLStore) PutCompany(ctx context.Context, c Company) error {
	if c.Status == "" {
		c.Status = "pending"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id,name,status,training_id,created_at)
		 VALUES ($1,$2,$3,NULLIF($4,''),$5)
		 ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, status=EXCLUDED.status, training_id=EXCLUDED.training_id`,
		c.ID, c.Name, c.Status, c.TrainingID, time.Now().Unix())
	return err
}

func (s *SQLStore) SetCompanyStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE companies SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) GetTraining(ctx context.Context, id string) (Training, error) {
	var t Training
	var start, end sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id,title,start_date,end_date,created_at FROM trainings WHERE id=$1`, id).
		Scan(&t.ID, &t.Title, &start, &end, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Training{}, ErrNotFound
	}
	t.StartDate, t.EndDate = start.String, end.String
	return t, err
}

func (s *SQLStore) PutTraining(ctx context.Context, t Training) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trainings (id,title,start_date,end_date,created_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, start_date=EXCLUDED.start_date, end_date=EXCLUDED.end_date`,
		t.ID, t.Title, t.StartDate, t.EndDate, time.Now().Unix())
	return err
}
