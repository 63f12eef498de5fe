package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserEmailConflict  = errors.New("user email conflict")
	ErrUserNicknameTaken  = errors.New("user nickname conflict")
	ErrInsufficientPoints = errors.New("insufficient points")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	// ApplyPointsDelta изменяет кэшированный баланс. Вызывается ТОЛЬКО вместе
	// с записью в point_transactions и в той же транзакции (q).
	// Дебет, уводящий баланс в минус, возвращает ErrInsufficientPoints.
	ApplyPointsDelta(ctx context.Context, q SQLExecutor, userID int, delta int) error
	GetPoints(ctx context.Context, q SQLExecutor, userID int) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, nickname, email, password_hash, role, points, created_at`

func (r *postgresUserRepository) scanUser(row interface {
	Scan(dest ...interface{}) error
}, u *models.User) error {
	return row.Scan(&u.ID, &u.Nickname, &u.Email, &u.PasswordHash, &u.Role, &u.Points, &u.CreatedAt)
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (nickname, email, password_hash, role, points)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Nickname,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Points,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			switch pqErr.Constraint {
			case "users_email_key":
				return ErrUserEmailConflict
			case "users_nickname_key":
				return ErrUserNicknameTaken
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	u := &models.User{}
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := r.scanUser(row, u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *postgresUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		var u models.User
		if err := r.scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *postgresUserRepository) ApplyPointsDelta(ctx context.Context, q SQLExecutor, userID int, delta int) error {
	// Условие points + delta >= 0 дублирует CHECK-ограничение users_points_non_negative,
	// но даёт типизированную ошибку вместо pq check_violation.
	query := `UPDATE users SET points = points + $1 WHERE id = $2 AND points + $1 >= 0`
	result, err := q.ExecContext(ctx, query, delta, userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" { // check_violation
			return ErrInsufficientPoints
		}
		return fmt.Errorf("failed to apply points delta: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows for points update: %w", err)
	}
	if rowsAffected == 0 {
		// Либо пользователя нет, либо не хватило баланса — различаем.
		var exists bool
		if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check user existence: %w", err)
		}
		if !exists {
			return ErrUserNotFound
		}
		return ErrInsufficientPoints
	}
	return nil
}

func (r *postgresUserRepository) GetPoints(ctx context.Context, q SQLExecutor, userID int) (int, error) {
	if q == nil {
		q = r.db
	}
	var points int
	err := q.QueryRowContext(ctx, `SELECT points FROM users WHERE id = $1`, userID).Scan(&points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get user points: %w", err)
	}
	return points, nil
}
