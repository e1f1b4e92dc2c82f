package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/RileyParsons/plateful/internal/common"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {
	query :=
		`INSERT INTO users (id, email, hashed_password, created_at)
		 VALUES ($1, $2, $3, $4)
		 `

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.HashedPassword, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query :=
		`SELECT id, email, hashed_password, created_at, reset_token_hash, reset_token_expires
		 FROM users WHERE id = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query :=
		`SELECT id, email, hashed_password, created_at, reset_token_hash, reset_token_expires
		 FROM users WHERE email = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*User, error) {
	query :=
		`SELECT id, email, hashed_password, created_at, reset_token_hash, reset_token_expires
		 FROM users WHERE reset_token_hash = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, tokenHash))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, userID, newHash string) error {
	query := `UPDATE users SET hashed_password = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, userID, newHash)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRowAffected(res)
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error {
	query := `UPDATE users SET reset_token_hash = $2, reset_token_expires = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, userID, tokenHash, expiry)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRowAffected(res)
}

func (r *PostgresRepository) ClearResetToken(ctx context.Context, userID string) error {
	query := `UPDATE users SET reset_token_hash = NULL, reset_token_expires = NULL WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return requireRowAffected(res)
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]*User, error) {
	query :=
		`SELECT id, email, hashed_password, created_at, reset_token_hash, reset_token_expires
		 FROM users ORDER BY created_at, id OFFSET $1 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var result []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading rows: %w", err)
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row rowScanner) (*User, error) {
	user := &User{}
	var resetHash sql.NullString
	var resetExpiry sql.NullTime

	err := row.Scan(&user.ID, &user.Email, &user.HashedPassword, &user.CreatedAt, &resetHash, &resetExpiry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("error scanning row: %w", err)
	}

	if resetHash.Valid {
		user.ResetTokenHash = resetHash.String
	}
	if resetExpiry.Valid {
		user.ResetTokenExpiry = resetExpiry.Time
	}
	return user, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
