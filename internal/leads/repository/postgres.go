package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opPgGet  = "leads.repository.postgres.get"
	opPgPut  = "leads.repository.postgres.put"
	opPgList = "leads.repository.postgres.list"

	errLeadNotFound  = "lead not found"
	errEmailRequired = "email is required"

	// conditionalPutAttempts bounds the version-check retry loop.
	conditionalPutAttempts = 3
)

// PostgresStore persists leads as JSONB payloads keyed by email. When
// conditional writes are enabled, Put re-reads and retries on a stale
// version token instead of overwriting a concurrent writer's merge.
type PostgresStore struct {
	pool        *pgxpool.Pool
	conditional bool
	now         func() time.Time
}

// NewPostgresStore creates a Postgres-backed lead store.
func NewPostgresStore(pool *pgxpool.Pool, conditional bool) *PostgresStore {
	return &PostgresStore{pool: pool, conditional: conditional, now: time.Now}
}

func (s *PostgresStore) Get(ctx context.Context, email string) (*domain.Lead, error) {
	key := domain.NormalizeEmail(email)
	if key == "" {
		return nil, apperr.Validation(errEmailRequired).WithOp(opPgGet)
	}

	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM leads WHERE email = $1`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(errLeadNotFound).WithOp(opPgGet)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to read lead", err).WithOp(opPgGet)
	}

	return decodeLead(payload, opPgGet)
}

func (s *PostgresStore) Put(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	if lead == nil || domain.NormalizeEmail(lead.Email) == "" {
		return nil, apperr.Validation(errEmailRequired).WithOp(opPgPut)
	}

	if s.conditional {
		return s.putConditional(ctx, lead)
	}
	return s.putLastMergeWins(ctx, lead)
}

// putLastMergeWins performs a plain read-modify-write. Two concurrent
// writers on the same key can still lose scalar updates to each other;
// map-valued fields survive through the key-wise merge.
func (s *PostgresStore) putLastMergeWins(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	key := domain.NormalizeEmail(lead.Email)

	existing, err := s.Get(ctx, key)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	merged := domain.Merge(existing, lead, s.now())
	payload, err := json.Marshal(merged)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to encode lead", err).WithOp(opPgPut)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO leads (email, payload, version, updated_at)
		VALUES ($1, $2, 1, now())
		ON CONFLICT (email) DO UPDATE
		SET payload = EXCLUDED.payload, version = leads.version + 1, updated_at = now()`,
		key, payload)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to write lead", err).WithOp(opPgPut)
	}

	return merged, nil
}

// putConditional re-reads the row with its version token and only writes
// when the token is unchanged, retrying a bounded number of times.
func (s *PostgresStore) putConditional(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	key := domain.NormalizeEmail(lead.Email)

	for attempt := 0; attempt < conditionalPutAttempts; attempt++ {
		var (
			payload []byte
			version int64
		)
		err := s.pool.QueryRow(ctx,
			`SELECT payload, version FROM leads WHERE email = $1`, key).Scan(&payload, &version)

		if errors.Is(err, pgx.ErrNoRows) {
			merged := domain.Merge(nil, lead, s.now())
			encoded, encErr := json.Marshal(merged)
			if encErr != nil {
				return nil, apperr.Wrap(apperr.KindInternal, "failed to encode lead", encErr).WithOp(opPgPut)
			}
			tag, insErr := s.pool.Exec(ctx, `
				INSERT INTO leads (email, payload, version, updated_at)
				VALUES ($1, $2, 1, now())
				ON CONFLICT (email) DO NOTHING`, key, encoded)
			if insErr != nil {
				return nil, apperr.Wrap(apperr.KindUnavailable, "failed to write lead", insErr).WithOp(opPgPut)
			}
			if tag.RowsAffected() == 1 {
				return merged, nil
			}
			// Lost the insert race; re-read and merge against the winner.
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUnavailable, "failed to read lead", err).WithOp(opPgPut)
		}

		existing, decErr := decodeLead(payload, opPgPut)
		if decErr != nil {
			return nil, decErr
		}

		merged := domain.Merge(existing, lead, s.now())
		encoded, encErr := json.Marshal(merged)
		if encErr != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to encode lead", encErr).WithOp(opPgPut)
		}

		tag, updErr := s.pool.Exec(ctx, `
			UPDATE leads SET payload = $2, version = version + 1, updated_at = now()
			WHERE email = $1 AND version = $3`, key, encoded, version)
		if updErr != nil {
			return nil, apperr.Wrap(apperr.KindUnavailable, "failed to write lead", updErr).WithOp(opPgPut)
		}
		if tag.RowsAffected() == 1 {
			return merged, nil
		}
		// Stale version token; retry with a fresh read.
	}

	return nil, apperr.Conflict("lead was modified concurrently").WithOp(opPgPut)
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]*domain.Lead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM leads ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to list leads", err).WithOp(opPgList)
	}
	defer rows.Close()

	var leads []*domain.Lead
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan lead", err).WithOp(opPgList)
		}
		lead, err := decodeLead(payload, opPgList)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to list leads", err).WithOp(opPgList)
	}

	return leads, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func decodeLead(payload []byte, op string) (*domain.Lead, error) {
	var lead domain.Lead
	if err := json.Unmarshal(payload, &lead); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to decode lead payload", err).WithOp(op)
	}
	return &lead, nil
}
