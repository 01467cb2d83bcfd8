package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stridekart/fulfillment/internal/domain/user"
)

const (
	getUserByIDSQL = `SELECT id, email, full_name, role FROM users WHERE id = $1`

	getAddressByIDSQL = `SELECT id, user_id, street, city, state, zip_code, country
		FROM addresses WHERE id = $1`
)

var (
	_ user.Directory   = (*UserRepository)(nil)
	_ user.AddressBook = (*AddressRepository)(nil)
)

// UserRepository implements user.Directory backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID returns a single user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	err := r.pool.QueryRow(ctx, getUserByIDSQL, id).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %q: %w", id, err)
	}
	return &u, nil
}

// AddressRepository implements user.AddressBook backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// GetByID returns a single address by identifier.
func (r *AddressRepository) GetByID(ctx context.Context, id string) (*user.Address, error) {
	var a user.Address
	err := r.pool.QueryRow(ctx, getAddressByIDSQL, id).Scan(
		&a.ID, &a.UserID, &a.Street, &a.City, &a.State, &a.ZipCode, &a.Country,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrAddressNotFound
		}
		return nil, fmt.Errorf("getting address %q: %w", id, err)
	}
	return &a, nil
}
