package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bscott89/taskhub/internal/domain/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, age, password_hash, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
}

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepo {
	return &UsersRepo{pool: pool}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Age,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, params user.CreateParams) (user.User, error) {
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         params.Name,
		Email:        params.Email,
		Age:          params.Age,
		PasswordHash: params.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO users(id, name, email, age, password_hash, created_at, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.Name, u.Email, u.Age, u.PasswordHash, u.CreatedAt, u.UpdatedAt)

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return scanUser(r.pool.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	// a malformed id can never match a row
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}

	return scanUser(r.pool.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
}

// Update applies only the supplied fields, building the SET list
// dynamically the same way List builds its WHERE clause.
func (r *UsersRepo) Update(ctx context.Context, id string, params user.UpdateParams) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}

	var sets []string
	var args []interface{}

	argsPosition := 1

	if params.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argsPosition))
		args = append(args, *params.Name)
		argsPosition++
	}

	if params.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", argsPosition))
		args = append(args, *params.Email)
		argsPosition++
	}

	if params.Age != nil {
		sets = append(sets, fmt.Sprintf("age = $%d", argsPosition))
		args = append(args, *params.Age)
		argsPosition++
	}

	if params.PasswordHash != nil {
		sets = append(sets, fmt.Sprintf("password_hash = $%d", argsPosition))
		args = append(args, *params.PasswordHash)
		argsPosition++
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d RETURNING `+userColumns,
		strings.Join(sets, ", "),
		argsPosition,
	)
	args = append(args, id)

	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

// Delete removes the user and everything they own in one transaction:
// tasks first, then tokens, then the user row itself. No orphans either way.
func (r *UsersRepo) Delete(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}

	tx, err := r.pool.Begin(ctx)

	if err != nil {
		return user.User{}, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `DELETE FROM tasks WHERE author_id = $1`, id)

	if err != nil {
		return user.User{}, err
	}

	_, err = tx.Exec(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, id)

	if err != nil {
		return user.User{}, err
	}

	u, err := scanUser(tx.QueryRow(
		ctx,
		`DELETE FROM users WHERE id = $1 RETURNING `+userColumns,
		id,
	))

	if err != nil {
		return user.User{}, err
	}

	err = tx.Commit(ctx)

	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetAvatar(ctx context.Context, id string) ([]byte, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, user.ErrNotFound
	}

	var avatar []byte

	err := r.pool.QueryRow(ctx, `SELECT avatar FROM users WHERE id = $1`, id).Scan(&avatar)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}

		return nil, err
	}

	if len(avatar) == 0 {
		return nil, user.ErrNotFound
	}

	return avatar, nil
}

func (r *UsersRepo) SetAvatar(ctx context.Context, id string, data []byte) error {
	return r.setAvatar(ctx, id, data)
}

func (r *UsersRepo) ClearAvatar(ctx context.Context, id string) error {
	return r.setAvatar(ctx, id, nil)
}

func (r *UsersRepo) setAvatar(ctx context.Context, id string, data []byte) error {
	if _, err := uuid.Parse(id); err != nil {
		return user.ErrNotFound
	}

	cmd, err := r.pool.Exec(ctx,
		`UPDATE users SET avatar = $2, updated_at = NOW() WHERE id = $1`,
		id, data)

	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return nil
}
