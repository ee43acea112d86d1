package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/marina-booking/internal/auth"
	"github.com/example/marina-booking/internal/db"
)

type UserRepo struct{ db *db.DB }

func NewUserRepo(d *db.DB) *UserRepo { return &UserRepo{db: d} }

const userColumns = `id, first_name, last_name, phone, email, company, vessel_name, password_bcrypt, created_at`

func (r *UserRepo) Create(ctx context.Context, u auth.User) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO users (first_name, last_name, phone, email, company, vessel_name, password_bcrypt)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id`,
		u.FirstName, u.LastName, u.Phone, u.Email, u.Company, u.VesselName, u.PasswordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, auth.ErrEmailTaken
		}
		return 0, err
	}
	return id, nil
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (auth.User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (auth.User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *UserRepo) scanOne(row db.Row) (auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Phone, &u.Email, &u.Company, &u.VesselName, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, auth.ErrUserNotFound
		}
		return auth.User{}, err
	}
	return u, nil
}
