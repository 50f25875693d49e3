package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/foodbridge/distribution-api/internal/model"
)

// ErrEmailExists is returned when registration hits the unique email index.
var ErrEmailExists = errors.New("email already exists")

// UserRepository provides access to the users table.
type UserRepository struct {
    db *sql.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
    return &UserRepository{db: db}
}

// Create inserts a new user and returns its ID.  A duplicate email maps to
// ErrEmailExists rather than leaking the driver error.
func (r *UserRepository) Create(ctx context.Context, u *model.User) (uint64, error) {
    const q = `
INSERT INTO users (email, password_hash, full_name, phone, role, registered_location_id)
VALUES (?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, u.Email, u.PasswordHash, u.FullName, u.Phone, u.Role, u.RegisteredLocationID)
    if err != nil {
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == 1062 {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches a user by email.  Returns ErrNotFound when absent.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
    const q = `
SELECT id, email, password_hash, full_name, phone, role, registered_location_id, active, registered_at
FROM users
WHERE email = ?`
    return r.scanOne(r.db.QueryRowContext(ctx, q, email))
}

// GetByID fetches a user by primary key.  Returns ErrNotFound when absent.
func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*model.User, error) {
    const q = `
SELECT id, email, password_hash, full_name, phone, role, registered_location_id, active, registered_at
FROM users
WHERE id = ?`
    return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetParticipantByPhone resolves a participant by phone number for the phone
// lookup channel.  Only PARTICIPANT rows match; a worker's phone never
// resolves to a check-in subject.
func (r *UserRepository) GetParticipantByPhone(ctx context.Context, phone string) (*model.User, error) {
    const q = `
SELECT id, email, password_hash, full_name, phone, role, registered_location_id, active, registered_at
FROM users
WHERE phone = ? AND role = 'PARTICIPANT' AND active = 1`
    return r.scanOne(r.db.QueryRowContext(ctx, q, phone))
}

// ParticipantIDsRegisteredBetween lists participants whose registration
// falls inside [from, to], optionally restricted to a registration location.
// The participant report needs these in addition to participants with
// events, since a newly registered participant may not have picked up yet.
func (r *UserRepository) ParticipantIDsRegisteredBetween(ctx context.Context, from, to time.Time, locationID *uint64) ([]uint64, error) {
    q := `
SELECT id FROM users
WHERE role = 'PARTICIPANT' AND DATE(registered_at) BETWEEN ? AND ?`
    args := []any{from.Format("2006-01-02"), to.Format("2006-01-02")}
    if locationID != nil {
        q += ` AND registered_location_id = ?`
        args = append(args, *locationID)
    }
    q += ` ORDER BY id`

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

func (r *UserRepository) scanOne(row *sql.Row) (*model.User, error) {
    var u model.User
    err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.RegisteredLocationID, &u.Active, &u.RegisteredAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &u, nil
}
