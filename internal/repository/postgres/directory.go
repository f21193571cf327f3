// Package postgres implements the bulk email collaborator interfaces
// against the recruiting CRM's PostgreSQL schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josdesi/bulkmail/internal/domain"
	"github.com/lib/pq"
)

// DirectoryRepo implements bulkemail.Directory against PostgreSQL.
type DirectoryRepo struct{ db *sql.DB }

// NewDirectoryRepo creates a Postgres-backed recipient directory.
func NewDirectoryRepo(db *sql.DB) *DirectoryRepo { return &DirectoryRepo{db: db} }

func (r *DirectoryRepo) CandidateEmployers(ctx context.Context, ids []int64) (map[int64]domain.CompanyRef, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cec.candidate_id, c.id, c.name
		FROM candidate_employer_companies cec
		JOIN companies c ON c.id = cec.company_id
		WHERE cec.is_current AND cec.candidate_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("candidate employers: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]domain.CompanyRef)
	for rows.Next() {
		var candidateID int64
		var c domain.CompanyRef
		if err := rows.Scan(&candidateID, &c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("candidate employers: %w", err)
		}
		out[candidateID] = c
	}
	return out, rows.Err()
}

func (r *DirectoryRepo) NameEmployers(ctx context.Context, ids []int64) (map[int64]domain.CompanyRef, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT nec.name_id, c.id, c.name
		FROM name_employer_companies nec
		JOIN companies c ON c.id = nec.company_id
		WHERE nec.is_current AND nec.name_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("name employers: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]domain.CompanyRef)
	for rows.Next() {
		var nameID int64
		var c domain.CompanyRef
		if err := rows.Scan(&nameID, &c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("name employers: %w", err)
		}
		out[nameID] = c
	}
	return out, rows.Err()
}

func (r *DirectoryRepo) HiringAuthorityCompanies(ctx context.Context, ids []int64) (map[int64]domain.CompanyRef, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ha.id, c.id, c.name
		FROM hiring_authorities ha
		JOIN companies c ON c.id = ha.company_id
		WHERE ha.id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("hiring authority companies: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]domain.CompanyRef)
	for rows.Next() {
		var haID int64
		var c domain.CompanyRef
		if err := rows.Scan(&haID, &c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("hiring authority companies: %w", err)
		}
		out[haID] = c
	}
	return out, rows.Err()
}

func (r *DirectoryRepo) CandidateStatuses(ctx context.Context, ids []int64) (map[int64]domain.CandidateStatus, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, status FROM candidates WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("candidate statuses: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]domain.CandidateStatus)
	for rows.Next() {
		var id int64
		var status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("candidate statuses: %w", err)
		}
		out[id] = domain.CandidateStatus(status)
	}
	return out, rows.Err()
}

func (r *DirectoryRepo) ClientCompanyIDs(ctx context.Context) (map[int64]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM companies WHERE signed_type IN ('client', 'vendor')
	`)
	if err != nil {
		return nil, fmt.Errorf("client companies: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("client companies: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (r *DirectoryRepo) EmployerCompanyIDsForCandidates(ctx context.Context, candidateIDs []int64) (map[int64]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT company_id
		FROM candidate_employer_companies
		WHERE is_current AND candidate_id = ANY($1)
	`, pq.Array(candidateIDs))
	if err != nil {
		return nil, fmt.Errorf("employer companies for candidates: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("employer companies for candidates: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// CompaniesSimilarToClients relies on the pg_trgm extension for the fuzzy
// name comparison. Exact case-insensitive matches are included regardless
// of the trigram score.
func (r *DirectoryRepo) CompaniesSimilarToClients(ctx context.Context, threshold float64) (map[int64]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT c.id
		FROM companies c
		JOIN companies cl ON cl.signed_type IN ('client', 'vendor')
		WHERE c.signed_type NOT IN ('client', 'vendor')
		  AND (lower(c.name) = lower(cl.name)
		       OR similarity(lower(c.name), lower(cl.name)) >= $1)
	`, threshold)
	if err != nil {
		return nil, fmt.Errorf("similar companies: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("similar companies: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (r *DirectoryRepo) CandidateSmartags(ctx context.Context, ids []int64) (map[int64]domain.SmartagValues, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cand.id, cand.first_name, cand.last_name, cand.title, comp.name
		FROM candidates cand
		LEFT JOIN candidate_employer_companies cec
		       ON cec.candidate_id = cand.id AND cec.is_current
		LEFT JOIN companies comp ON comp.id = cec.company_id
		WHERE cand.id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("candidate smartags: %w", err)
	}
	defer rows.Close()
	return scanSmartagRows(rows, "candidate smartags")
}

func (r *DirectoryRepo) HiringAuthoritySmartags(ctx context.Context, ids []int64) (map[int64]domain.SmartagValues, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ha.id, ha.first_name, ha.last_name, ha.title, comp.name
		FROM hiring_authorities ha
		LEFT JOIN companies comp ON comp.id = ha.company_id
		WHERE ha.id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("hiring authority smartags: %w", err)
	}
	defer rows.Close()
	return scanSmartagRows(rows, "hiring authority smartags")
}

func (r *DirectoryRepo) NameSmartags(ctx context.Context, ids []int64) (map[int64]domain.SmartagValues, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT n.id, n.first_name, n.last_name, n.title, comp.name
		FROM names n
		LEFT JOIN name_employer_companies nec
		       ON nec.name_id = n.id AND nec.is_current
		LEFT JOIN companies comp ON comp.id = nec.company_id
		WHERE n.id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("name smartags: %w", err)
	}
	defer rows.Close()
	return scanSmartagRows(rows, "name smartags")
}

// SenderSmartags returns nil without error when the user does not exist;
// the service layer reports that as an entity-not-found failure.
func (r *DirectoryRepo) SenderSmartags(ctx context.Context, userID int64) (domain.SmartagValues, error) {
	var first, last, email, phone sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT first_name, last_name, email, phone FROM users WHERE id = $1
	`, userID).Scan(&first, &last, &email, &phone)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sender smartags: %w", err)
	}

	return domain.SmartagValues{
		domain.TagSenderName:      joinName(first, last),
		domain.TagSenderFirstName: nullable(first),
		domain.TagSenderEmail:     nullable(email),
		domain.TagSenderPhone:     nullable(phone),
	}, nil
}

func scanSmartagRows(rows *sql.Rows, op string) (map[int64]domain.SmartagValues, error) {
	out := make(map[int64]domain.SmartagValues)
	for rows.Next() {
		var id int64
		var first, last, title, company sql.NullString
		if err := rows.Scan(&id, &first, &last, &title, &company); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out[id] = domain.SmartagValues{
			domain.TagFirstName:   nullable(first),
			domain.TagLastName:    nullable(last),
			domain.TagFullName:    joinName(first, last),
			domain.TagCompanyName: nullable(company),
			domain.TagTitle:       nullable(title),
		}
	}
	return out, rows.Err()
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// joinName builds a full name from whatever parts are present. Both parts
// NULL means the full name is missing too.
func joinName(first, last sql.NullString) *string {
	switch {
	case first.Valid && last.Valid:
		v := first.String + " " + last.String
		return &v
	case first.Valid:
		v := first.String
		return &v
	case last.Valid:
		v := last.String
		return &v
	}
	return nil
}
