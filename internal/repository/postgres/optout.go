package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josdesi/bulkmail/internal/domain"
	"github.com/lib/pq"
)

// OptOutRepo implements bulkemail.OptOutStore against PostgreSQL.
type OptOutRepo struct{ db *sql.DB }

// NewOptOutRepo creates a Postgres-backed opt-out store.
func NewOptOutRepo(db *sql.DB) *OptOutRepo { return &OptOutRepo{db: db} }

// baseKind collapses the name-backed recipient variants onto the entity
// table that actually holds the opt-out record.
func baseKind(k domain.EntityKind) string {
	switch k {
	case domain.KindCandidate:
		return "candidate"
	case domain.KindHiringAuthority:
		return "hiringAuthority"
	default:
		return "name"
	}
}

// OptOuts reports which of the given entities hold an opt-out record. A
// name emailed as a candidate matches an opt-out stored against the name.
func (r *OptOutRepo) OptOuts(ctx context.Context, refs []domain.EntityRef) (map[domain.EntityRef]bool, error) {
	if len(refs) == 0 {
		return map[domain.EntityRef]bool{}, nil
	}

	var candidateIDs, haIDs, nameIDs []int64
	for _, ref := range refs {
		switch baseKind(ref.Kind) {
		case "candidate":
			candidateIDs = append(candidateIDs, ref.ID)
		case "hiringAuthority":
			haIDs = append(haIDs, ref.ID)
		default:
			nameIDs = append(nameIDs, ref.ID)
		}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT item_kind, item_id
		FROM email_opt_outs
		WHERE (item_kind = 'candidate' AND item_id = ANY($1))
		   OR (item_kind = 'hiringAuthority' AND item_id = ANY($2))
		   OR (item_kind = 'name' AND item_id = ANY($3))
	`, pq.Array(candidateIDs), pq.Array(haIDs), pq.Array(nameIDs))
	if err != nil {
		return nil, fmt.Errorf("opt-outs: %w", err)
	}
	defer rows.Close()

	type baseRef struct {
		kind string
		id   int64
	}
	matched := make(map[baseRef]bool)
	for rows.Next() {
		var kind string
		var id int64
		if err := rows.Scan(&kind, &id); err != nil {
			return nil, fmt.Errorf("opt-outs: %w", err)
		}
		matched[baseRef{kind, id}] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("opt-outs: %w", err)
	}

	out := make(map[domain.EntityRef]bool)
	for _, ref := range refs {
		if matched[baseRef{baseKind(ref.Kind), ref.ID}] {
			out[ref] = true
		}
	}
	return out, nil
}

// Unsubscribes reports which of the given addresses appear in the
// email-level unsubscribe table. Addresses are compared case-insensitively.
func (r *OptOutRepo) Unsubscribes(ctx context.Context, emails []string) (map[string]bool, error) {
	if len(emails) == 0 {
		return map[string]bool{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT lower(email) FROM unsubscribes WHERE lower(email) = ANY($1)
	`, pq.Array(emails))
	if err != nil {
		return nil, fmt.Errorf("unsubscribes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("unsubscribes: %w", err)
		}
		out[email] = true
	}
	return out, rows.Err()
}
