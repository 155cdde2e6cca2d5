package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dealersite/api/internal/domain"
	"github.com/dealersite/api/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.DealerRepository     = (*Repository)(nil)
	_ repository.OnboardingRepository = (*Repository)(nil)
	_ repository.LeadRepository       = (*Repository)(nil)
)

// CreateDealer inserts a dealership account.
func (r *Repository) CreateDealer(ctx context.Context, dealer *domain.Dealer) error {
	const query = `INSERT INTO dealers (id, email, dealership_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, dealer.ID, dealer.Email, dealer.DealershipName, dealer.PasswordHash, dealer.CreatedAt)
	return err
}

// GetDealerByEmail fetches a dealer by email.
func (r *Repository) GetDealerByEmail(ctx context.Context, email string) (*domain.Dealer, error) {
	const query = `SELECT id, email, dealership_name, password_hash, created_at FROM dealers WHERE email = $1`
	row := r.pool.QueryRow(ctx, query, email)
	var d domain.Dealer
	if err := row.Scan(&d.ID, &d.Email, &d.DealershipName, &d.PasswordHash, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// GetDealerByID retrieves a dealer by identifier.
func (r *Repository) GetDealerByID(ctx context.Context, id string) (*domain.Dealer, error) {
	const query = `SELECT id, email, dealership_name, password_hash, created_at FROM dealers WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var d domain.Dealer
	if err := row.Scan(&d.ID, &d.Email, &d.DealershipName, &d.PasswordHash, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// CreateLead inserts a captured lead.
func (r *Repository) CreateLead(ctx context.Context, lead *domain.Lead) error {
	const query = `INSERT INTO leads (id, dealer_id, name, email, phone, message, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query, lead.ID, lead.DealerID, lead.Name, lead.Email, lead.Phone, lead.Message, lead.Source, lead.CreatedAt)
	return err
}

// ListLeadsByDealer returns a dealer's leads, newest first.
func (r *Repository) ListLeadsByDealer(ctx context.Context, dealerID string, limit, offset int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `SELECT id, dealer_id, name, email, phone, message, source, created_at
		FROM leads
		WHERE dealer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, dealerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		var lead domain.Lead
		if err := rows.Scan(&lead.ID, &lead.DealerID, &lead.Name, &lead.Email, &lead.Phone, &lead.Message, &lead.Source, &lead.CreatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
