package generatedresumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"resume-builder/resume/model"
)

// PGRepo implements Repo using Postgres. Content is stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

const resumeColumns = `id, account_id, user_id, type, template_id, title, content, ats_score, keywords_matched, keywords_total, created_at, updated_at`

// Create inserts a generated resume.
func (r *PGRepo) Create(ctx context.Context, resume GeneratedResume) error {
	if err := resume.Validate(); err != nil {
		return err
	}
	content, err := json.Marshal(resume.Content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	const query = `
INSERT INTO generated_resumes (
    id, account_id, user_id, type, template_id, title, content, ats_score, keywords_matched, keywords_total, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.DB.ExecContext(ctx, query,
		resume.ID,
		resume.AccountID,
		resume.UserID,
		string(resume.Type),
		resume.TemplateID,
		resume.Title,
		content,
		resume.ATSScore,
		nullableInt(resume.KeywordsMatched),
		nullableInt(resume.KeywordsTotal),
		resume.CreatedAt,
		resume.UpdatedAt,
	)
	return err
}

// GetByID returns a generated resume by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, generatedResumeID string) (GeneratedResume, error) {
	const query = `SELECT ` + resumeColumns + `
FROM generated_resumes
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	resume, err := scanResume(r.DB.QueryRowContext(ctx, query, generatedResumeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GeneratedResume{}, ErrNotFound
		}
		return GeneratedResume{}, err
	}
	if resume.UserID != userID {
		return GeneratedResume{}, ErrForbidden
	}
	return resume, nil
}

// ListByUser lists generated resumes ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]GeneratedResume, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `SELECT ` + resumeColumns + `
FROM generated_resumes
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GeneratedResume{}
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resume)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResume(row scanner) (GeneratedResume, error) {
	var (
		resume  GeneratedResume
		kind    string
		content []byte
		matched sql.NullInt64
		total   sql.NullInt64
	)
	if err := row.Scan(
		&resume.ID,
		&resume.AccountID,
		&resume.UserID,
		&kind,
		&resume.TemplateID,
		&resume.Title,
		&content,
		&resume.ATSScore,
		&matched,
		&total,
		&resume.CreatedAt,
		&resume.UpdatedAt,
	); err != nil {
		return GeneratedResume{}, err
	}
	resume.Type = model.Mode(kind)
	if err := json.Unmarshal(content, &resume.Content); err != nil {
		return GeneratedResume{}, fmt.Errorf("decode content: %w", err)
	}
	resume.KeywordsMatched = intPtr(matched)
	resume.KeywordsTotal = intPtr(total)
	return resume, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

var _ Repo = (*PGRepo)(nil)
