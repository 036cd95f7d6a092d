package customer

import (
	"context"
	"errors"
	"io"
	"log"

	"eshop-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const q = `
INSERT INTO customers (username, password_hash, first_name, last_name, phone, address)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
RETURNING id::text, created_at
`
	out := c
	err := r.pool.QueryRow(ctx, q, c.Username, c.PasswordHash, c.FirstName, c.LastName, c.Phone, c.Address).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Printf("customer repo: create username=%s already exists", c.Username)
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("customer repo: create username=%s error=%v", c.Username, err)
		return nil, err
	}
	r.logger.Printf("customer repo: created username=%s id=%s", out.Username, out.ID)
	return &out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const q = `
SELECT id::text, username, password_hash, first_name, last_name, COALESCE(phone, ''), COALESCE(address, ''), created_at
FROM customers
WHERE id = $1
`
	return r.fetch(ctx, q, id)
}

func (r *postgresRepo) GetByUsername(ctx context.Context, username string) (*domain.Customer, error) {
	const q = `
SELECT id::text, username, password_hash, first_name, last_name, COALESCE(phone, ''), COALESCE(address, ''), created_at
FROM customers
WHERE username = $1
`
	return r.fetch(ctx, q, username)
}

func (r *postgresRepo) fetch(ctx context.Context, q, arg string) (*domain.Customer, error) {
	var c domain.Customer
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&c.ID, &c.Username, &c.PasswordHash, &c.FirstName, &c.LastName, &c.Phone, &c.Address, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
