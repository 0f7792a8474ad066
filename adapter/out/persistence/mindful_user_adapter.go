package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"mindful_server/core/domain"
	"mindful_server/core/port/out"
	"mindful_server/pkg/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// UserAdapter implements out.UserRepository.
type UserAdapter struct {
	db *sqlx.DB
}

var _ out.UserRepository = (*UserAdapter)(nil)

// NewUserAdapter creates a new UserAdapter.
func NewUserAdapter(db *sqlx.DB) *UserAdapter {
	return &UserAdapter{db: db}
}

type userRow struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Token        string    `db:"token"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Token:        r.Token,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

const userColumns = `id, name, email, password_hash, token, created_at`

func (a *UserAdapter) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, :email, :password_hash, :token, :created_at)`

	row := userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        strings.ToLower(u.Email),
		PasswordHash: u.PasswordHash,
		Token:        u.Token,
		CreatedAt:    u.CreatedAt,
	}
	if _, err := a.db.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err) {
			if violatedConstraint(err) == uniqueEmailIndex {
				return apperr.AlreadyExists("user with this email")
			}
			return apperr.AlreadyExists("user")
		}
		return apperr.DatabaseError("create user", err)
	}
	return nil
}

func (a *UserAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return a.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (a *UserAdapter) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1)
		ORDER BY created_at, id
		LIMIT 1`
	return a.getOne(ctx, query, strings.TrimSpace(email))
}

func (a *UserAdapter) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var row userRow
	if err := a.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.DatabaseError("get user", err)
	}
	return row.toDomain(), nil
}

func (a *UserAdapter) UpdateToken(ctx context.Context, id uuid.UUID, token string) error {
	res, err := a.db.ExecContext(ctx, `UPDATE users SET token = $1 WHERE id = $2`, token, id)
	if err != nil {
		return apperr.DatabaseError("update token", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

// isUniqueViolation matches SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
