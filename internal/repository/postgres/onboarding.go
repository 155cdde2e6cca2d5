package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dealersite/api/internal/domain"
	"github.com/dealersite/api/internal/repository"
)

const (
	onboardingColumns = `id, dealer_id, domain_name, registrar, access_level, current_state,
		verification_status, verification_method, verification_token, verification_expires_at,
		verification_attempts, verified_at, analysis, configuration, created_at, updated_at`

	onboardingInsert = `INSERT INTO domain_onboardings (
		id,
		dealer_id,
		domain_name,
		registrar,
		access_level,
		current_state,
		verification_status,
		verification_token,
		verification_expires_at,
		verification_attempts,
		created_at,
		updated_at
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8,$9,0,NOW(),NOW()
	)`
)

// CreateOnboarding persists a new domain-connection attempt.
func (r *Repository) CreateOnboarding(ctx context.Context, rec *domain.DomainOnboarding) error {
	if rec == nil {
		return repository.ErrInvalidArgument
	}
	domainName := strings.ToLower(strings.TrimSpace(rec.DomainName))
	if domainName == "" || strings.TrimSpace(rec.Verification.Token) == "" {
		return repository.ErrInvalidArgument
	}
	state := rec.CurrentState
	if state == "" {
		state = domain.StateDomainCollection
	}
	_, err := r.pool.Exec(ctx, onboardingInsert,
		rec.ID,
		rec.DealerID,
		domainName,
		strings.TrimSpace(rec.Registrar),
		strings.TrimSpace(rec.AccessLevel),
		state,
		domain.VerificationStatusPending,
		rec.Verification.Token,
		rec.Verification.ExpiresAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrInvalidArgument
		}
		return err
	}
	rec.DomainName = domainName
	rec.CurrentState = state
	rec.Verification.Status = domain.VerificationStatusPending
	rec.CreatedAt = time.Now().UTC()
	rec.UpdatedAt = rec.CreatedAt
	return nil
}

// GetOnboardingByID fetches an onboarding record by identifier.
func (r *Repository) GetOnboardingByID(ctx context.Context, id string) (*domain.DomainOnboarding, error) {
	query := `SELECT ` + onboardingColumns + ` FROM domain_onboardings WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, strings.TrimSpace(id))
	return scanOnboarding(row)
}

// GetOnboardingByToken fetches an onboarding record via its verification token.
func (r *Repository) GetOnboardingByToken(ctx context.Context, token string) (*domain.DomainOnboarding, error) {
	query := `SELECT ` + onboardingColumns + ` FROM domain_onboardings WHERE verification_token = $1`
	row := r.pool.QueryRow(ctx, query, strings.TrimSpace(token))
	return scanOnboarding(row)
}

// ListOnboardingsByDealer returns a dealer's onboarding attempts, newest first.
func (r *Repository) ListOnboardingsByDealer(ctx context.Context, dealerID string) ([]domain.DomainOnboarding, error) {
	query := `SELECT ` + onboardingColumns + ` FROM domain_onboardings WHERE dealer_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, strings.TrimSpace(dealerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.DomainOnboarding, 0)
	for rows.Next() {
		rec, err := scanOnboarding(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// SetVerificationMethod records the chosen proof method and moves the record
// into verification_pending. The update only applies while verification is
// still pending so a verified record cannot be reopened.
func (r *Repository) SetVerificationMethod(ctx context.Context, id, method string) (*domain.DomainOnboarding, error) {
	query := `UPDATE domain_onboardings
		SET verification_method = $2,
			current_state = 'verification_pending',
			updated_at = NOW()
		WHERE id = $1
			AND verification_status = 'pending'
			AND current_state IN ('domain_collection', 'verification_pending')
		RETURNING ` + onboardingColumns
	row := r.pool.QueryRow(ctx, query, strings.TrimSpace(id), strings.TrimSpace(method))
	rec, err := scanOnboarding(row)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrInvalidArgument
		}
		return nil, err
	}
	return rec, nil
}

// IncrementVerificationAttempts bumps the attempt counter for observability.
func (r *Repository) IncrementVerificationAttempts(ctx context.Context, id string) error {
	const query = `UPDATE domain_onboardings
		SET verification_attempts = verification_attempts + 1,
			updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, strings.TrimSpace(id))
	return err
}

// MarkVerified flips verification to verified and advances the state. The
// predicate makes the flip one-way: racing pollers that both observe a match
// produce one update and one no-op.
func (r *Repository) MarkVerified(ctx context.Context, id string, at time.Time) (*domain.DomainOnboarding, error) {
	query := `UPDATE domain_onboardings
		SET verification_status = 'verified',
			verified_at = $2,
			current_state = 'verification_complete',
			updated_at = NOW()
		WHERE id = $1
			AND verification_status = 'pending'
			AND verification_expires_at > NOW()
		RETURNING ` + onboardingColumns
	row := r.pool.QueryRow(ctx, query, strings.TrimSpace(id), at.UTC())
	rec, err := scanOnboarding(row)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrInvalidArgument
		}
		return nil, err
	}
	return rec, nil
}

// SaveAnalysis stores the DNS scan result and advances the record into
// dns_analysis. Repeat scans while already in dns_analysis refresh the stored
// analysis without a state change.
func (r *Repository) SaveAnalysis(ctx context.Context, id string, analysis *domain.DNSAnalysis) (*domain.DomainOnboarding, error) {
	if analysis == nil {
		return nil, repository.ErrInvalidArgument
	}
	payload, err := json.Marshal(analysis)
	if err != nil {
		return nil, err
	}
	query := `UPDATE domain_onboardings
		SET analysis = $2,
			current_state = 'dns_analysis',
			updated_at = NOW()
		WHERE id = $1
			AND current_state IN ('verification_complete', 'dns_analysis')
		RETURNING ` + onboardingColumns
	row := r.pool.QueryRow(ctx, query, strings.TrimSpace(id), payload)
	rec, err := scanOnboarding(row)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrInvalidArgument
		}
		return nil, err
	}
	return rec, nil
}

// SaveConfiguration stores the dealer's route choice and advances the record
// into configuration_pending. Reconfiguring while still pending is allowed;
// once configuration_complete the record is frozen.
func (r *Repository) SaveConfiguration(ctx context.Context, id string, cfg *domain.Configuration) (*domain.DomainOnboarding, error) {
	if cfg == nil {
		return nil, repository.ErrInvalidArgument
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	query := `UPDATE domain_onboardings
		SET configuration = $2,
			current_state = 'configuration_pending',
			updated_at = NOW()
		WHERE id = $1
			AND current_state IN ('dns_analysis', 'configuration_pending')
		RETURNING ` + onboardingColumns
	row := r.pool.QueryRow(ctx, query, strings.TrimSpace(id), payload)
	rec, err := scanOnboarding(row)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrInvalidArgument
		}
		return nil, err
	}
	return rec, nil
}

// MarkConfigured advances configuration_pending to configuration_complete.
func (r *Repository) MarkConfigured(ctx context.Context, id string) (*domain.DomainOnboarding, error) {
	query := `UPDATE domain_onboardings
		SET current_state = 'configuration_complete',
			updated_at = NOW()
		WHERE id = $1
			AND current_state = 'configuration_pending'
		RETURNING ` + onboardingColumns
	row := r.pool.QueryRow(ctx, query, strings.TrimSpace(id))
	rec, err := scanOnboarding(row)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrInvalidArgument
		}
		return nil, err
	}
	return rec, nil
}

func scanOnboarding(row pgx.Row) (*domain.DomainOnboarding, error) {
	var (
		rec         domain.DomainOnboarding
		method      sql.NullString
		verifiedAt  sql.NullTime
		analysisRaw []byte
		configRaw   []byte
	)
	if err := row.Scan(
		&rec.ID,
		&rec.DealerID,
		&rec.DomainName,
		&rec.Registrar,
		&rec.AccessLevel,
		&rec.CurrentState,
		&rec.Verification.Status,
		&method,
		&rec.Verification.Token,
		&rec.Verification.ExpiresAt,
		&rec.Verification.Attempts,
		&verifiedAt,
		&analysisRaw,
		&configRaw,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if method.Valid {
		value := strings.TrimSpace(method.String)
		rec.Verification.Method = &value
	}
	if verifiedAt.Valid {
		value := verifiedAt.Time.UTC()
		rec.Verification.VerifiedAt = &value
	}
	if len(analysisRaw) > 0 {
		var analysis domain.DNSAnalysis
		if err := json.Unmarshal(analysisRaw, &analysis); err != nil {
			return nil, err
		}
		rec.Analysis = &analysis
	}
	if len(configRaw) > 0 {
		var cfg domain.Configuration
		if err := json.Unmarshal(configRaw, &cfg); err != nil {
			return nil, err
		}
		rec.Configuration = &cfg
	}
	return &rec, nil
}
