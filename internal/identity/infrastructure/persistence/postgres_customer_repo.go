package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/martinvega/vinoteca/internal/identity/domain"
	sharedDomain "github.com/martinvega/vinoteca/internal/shared/domain"
	sharedPersistence "github.com/martinvega/vinoteca/internal/shared/infrastructure/persistence"
)

// PostgresCustomerRepository implements CustomerRepository with PostgreSQL.
type PostgresCustomerRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCustomerRepository creates a new repository.
func NewPostgresCustomerRepository(pool *pgxpool.Pool) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{pool: pool}
}

// FindByID returns the customer with the given id.
func (r *PostgresCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return r.findOne(ctx, `SELECT id, name, email, created_at, updated_at FROM customers WHERE id = $1`, id)
}

// FindByEmail returns the customer with the given email.
func (r *PostgresCustomerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	return r.findOne(ctx, `SELECT id, name, email, created_at, updated_at FROM customers WHERE email = $1`, email)
}

func (r *PostgresCustomerRepository) findOne(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	var (
		id        uuid.UUID
		name      string
		email     string
		createdAt time.Time
		updatedAt time.Time
	)

	execer := sharedPersistence.Executor(ctx, r.pool)
	err := execer.QueryRow(ctx, query, arg).Scan(&id, &name, &email, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}

	return &domain.Customer{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		Name:       name,
		Email:      email,
	}, nil
}

// Save inserts or updates a customer.
func (r *PostgresCustomerRepository) Save(ctx context.Context, c *domain.Customer) error {
	query := `
		INSERT INTO customers (id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			updated_at = NOW()
	`
	execer := sharedPersistence.Executor(ctx, r.pool)
	_, err := execer.Exec(ctx, query, c.ID(), c.Name, c.Email, c.CreatedAt(), c.UpdatedAt())
	return err
}

// EnsureByEmail returns the existing customer for the email or creates one.
func (r *PostgresCustomerRepository) EnsureByEmail(ctx context.Context, name, email string) (*domain.Customer, error) {
	existing, err := r.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		return nil, err
	}

	c, err := domain.NewCustomer(name, email)
	if err != nil {
		return nil, err
	}

	// Concurrent guest submissions race on the email unique constraint; the
	// upsert keeps the first row and refreshes the name.
	query := `
		INSERT INTO customers (id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING id, name, email, created_at, updated_at
	`
	var (
		id        uuid.UUID
		gotName   string
		gotEmail  string
		createdAt time.Time
		updatedAt time.Time
	)
	execer := sharedPersistence.Executor(ctx, r.pool)
	err = execer.QueryRow(ctx, query, c.ID(), c.Name, c.Email, c.CreatedAt(), c.UpdatedAt()).
		Scan(&id, &gotName, &gotEmail, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	return &domain.Customer{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		Name:       gotName,
		Email:      gotEmail,
	}, nil
}

// UpsertAddress inserts the address or adopts the existing row matching the
// dedup key in a single statement.
func (r *PostgresCustomerRepository) UpsertAddress(ctx context.Context, addr *domain.Address, markDefault bool) error {
	if addr.ID == uuid.Nil {
		addr.ID = uuid.New()
	}

	execer := sharedPersistence.Executor(ctx, r.pool)

	query := `
		INSERT INTO addresses (id, customer_id, line1, line2, city, state, postal_code, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT addresses_dedup DO UPDATE SET
			line2 = EXCLUDED.line2,
			is_default = addresses.is_default OR EXCLUDED.is_default,
			updated_at = NOW()
		RETURNING id
	`
	err := execer.QueryRow(ctx, query,
		addr.ID,
		addr.CustomerID,
		addr.Line1,
		addr.Line2,
		addr.City,
		addr.State,
		addr.PostalCode,
		markDefault,
	).Scan(&addr.ID)
	if err != nil {
		return err
	}

	if markDefault {
		_, err = execer.Exec(ctx,
			`UPDATE addresses SET is_default = FALSE WHERE customer_id = $1 AND id <> $2 AND is_default`,
			addr.CustomerID, addr.ID)
	}
	return err
}
