package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"candidate-onboarding/internal/candidate/models"
	"candidate-onboarding/pkg/platform/sentinel"
)

// PostgresCandidateStore persists candidates in PostgreSQL. The version
// column carries the optimistic concurrency check: Update only touches the
// row when the stored version matches the one the caller read.
type PostgresCandidateStore struct {
	db *sql.DB
}

func NewPostgresCandidateStore(db *sql.DB) *PostgresCandidateStore {
	return &PostgresCandidateStore{db: db}
}

const candidateColumns = `id, first_name, last_name, email, phone, status, onboarding_status, version, created_at, updated_at`

func (s *PostgresCandidateStore) Create(ctx context.Context, c models.Candidate) (models.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO candidates (first_name, last_name, email, phone, status, onboarding_status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, now(), now())
		RETURNING `+candidateColumns,
		c.FirstName, c.LastName, c.Email, c.Phone, c.Status, c.OnboardingStatus,
	)
	created, err := scanCandidate(row)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("create candidate: %w", err)
	}
	return created, nil
}

func (s *PostgresCandidateStore) FindByID(ctx context.Context, id int64) (models.Candidate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Candidate{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("find candidate: %w", err)
	}
	return c, nil
}

func (s *PostgresCandidateStore) List(ctx context.Context) ([]models.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()
	return collectCandidates(rows)
}

func (s *PostgresCandidateStore) ListByStatus(ctx context.Context, status models.Status) ([]models.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE status = $1 ORDER BY id`, status)
	if err != nil {
		return nil, fmt.Errorf("list candidates by status: %w", err)
	}
	defer rows.Close()
	return collectCandidates(rows)
}

func (s *PostgresCandidateStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM candidates`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count candidates: %w", err)
	}
	return count, nil
}

// Update applies the conditional write. On sql.ErrNoRows the row either
// vanished or moved past the caller's version; a follow-up existence probe
// decides which sentinel to return.
func (s *PostgresCandidateStore) Update(ctx context.Context, c models.Candidate) (models.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE candidates
		SET first_name = $1, last_name = $2, email = $3, phone = $4,
		    status = $5, onboarding_status = $6, version = version + 1, updated_at = now()
		WHERE id = $7 AND version = $8
		RETURNING `+candidateColumns,
		c.FirstName, c.LastName, c.Email, c.Phone, c.Status, c.OnboardingStatus, c.ID, c.Version,
	)
	updated, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		probeErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM candidates WHERE id = $1)`, c.ID).Scan(&exists)
		if probeErr != nil {
			return models.Candidate{}, fmt.Errorf("update candidate: %w", probeErr)
		}
		if !exists {
			return models.Candidate{}, sentinel.ErrNotFound
		}
		return models.Candidate{}, sentinel.ErrVersionConflict
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("update candidate: %w", err)
	}
	return updated, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (models.Candidate, error) {
	var c models.Candidate
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Status, &c.OnboardingStatus, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func collectCandidates(rows *sql.Rows) ([]models.Candidate, error) {
	var out []models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PostgresDocumentStore persists candidate documents.
type PostgresDocumentStore struct {
	db *sql.DB
}

func NewPostgresDocumentStore(db *sql.DB) *PostgresDocumentStore {
	return &PostgresDocumentStore{db: db}
}

func (s *PostgresDocumentStore) Save(ctx context.Context, doc models.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, candidate_id, name, blob_locator, verified, uploaded_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, blob_locator = EXCLUDED.blob_locator,
		    verified = EXCLUDED.verified, updated_at = now()`,
		doc.ID, doc.CandidateID, doc.Name, doc.BlobLocator, doc.Verified, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *PostgresDocumentStore) FindByID(ctx context.Context, id string) (models.Document, error) {
	var d models.Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, candidate_id, name, blob_locator, verified, uploaded_at, updated_at
		FROM documents WHERE id = $1`, id).
		Scan(&d.ID, &d.CandidateID, &d.Name, &d.BlobLocator, &d.Verified, &d.UploadedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("find document: %w", err)
	}
	return d, nil
}

func (s *PostgresDocumentStore) ListByCandidate(ctx context.Context, candidateID int64) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, candidate_id, name, blob_locator, verified, uploaded_at, updated_at
		FROM documents WHERE candidate_id = $1 ORDER BY uploaded_at`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.CandidateID, &d.Name, &d.BlobLocator, &d.Verified, &d.UploadedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// PostgresBankInfoStore keeps one bank record per candidate. Save updates an
// existing row only; the engine never creates bank records implicitly.
type PostgresBankInfoStore struct {
	db *sql.DB
}

func NewPostgresBankInfoStore(db *sql.DB) *PostgresBankInfoStore {
	return &PostgresBankInfoStore{db: db}
}

func (s *PostgresBankInfoStore) Save(ctx context.Context, info models.BankInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bank_info (candidate_id, bank_name, account_number, ifsc_code, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (candidate_id) DO UPDATE
		SET bank_name = EXCLUDED.bank_name, account_number = EXCLUDED.account_number,
		    ifsc_code = EXCLUDED.ifsc_code, updated_at = now()`,
		info.CandidateID, info.BankName, info.AccountNumber, info.IFSCCode,
	)
	if err != nil {
		return fmt.Errorf("save bank info: %w", err)
	}
	return nil
}

func (s *PostgresBankInfoStore) FindByCandidate(ctx context.Context, candidateID int64) (models.BankInfo, error) {
	var b models.BankInfo
	err := s.db.QueryRowContext(ctx, `
		SELECT candidate_id, bank_name, account_number, ifsc_code, updated_at
		FROM bank_info WHERE candidate_id = $1`, candidateID).
		Scan(&b.CandidateID, &b.BankName, &b.AccountNumber, &b.IFSCCode, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BankInfo{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.BankInfo{}, fmt.Errorf("find bank info: %w", err)
	}
	return b, nil
}

// PostgresEducationStore keeps one education record per candidate.
type PostgresEducationStore struct {
	db *sql.DB
}

func NewPostgresEducationStore(db *sql.DB) *PostgresEducationStore {
	return &PostgresEducationStore{db: db}
}

func (s *PostgresEducationStore) Save(ctx context.Context, edu models.Education) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO education (candidate_id, degree, institution, passing_year, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (candidate_id) DO UPDATE
		SET degree = EXCLUDED.degree, institution = EXCLUDED.institution,
		    passing_year = EXCLUDED.passing_year, updated_at = now()`,
		edu.CandidateID, edu.Degree, edu.Institution, edu.PassingYear,
	)
	if err != nil {
		return fmt.Errorf("save education: %w", err)
	}
	return nil
}

func (s *PostgresEducationStore) FindByCandidate(ctx context.Context, candidateID int64) (models.Education, error) {
	var e models.Education
	err := s.db.QueryRowContext(ctx, `
		SELECT candidate_id, degree, institution, passing_year, updated_at
		FROM education WHERE candidate_id = $1`, candidateID).
		Scan(&e.CandidateID, &e.Degree, &e.Institution, &e.PassingYear, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Education{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Education{}, fmt.Errorf("find education: %w", err)
	}
	return e, nil
}
