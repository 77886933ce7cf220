package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// User is an account record. The auth module owns the users table;
// profile data beyond identity lives with the user module.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// SessionStore tracks outstanding refresh tokens by jti. Take removes the
// session atomically, making refresh tokens single use.
type SessionStore interface {
	Save(ctx context.Context, jti, userID string, ttl time.Duration) error
	Take(ctx context.Context, jti string) (string, error)
	Delete(ctx context.Context, jti string) error
}

// PostgresUserStore is the production UserStore.
type PostgresUserStore struct {
	db *pgxpool.Pool
}

func NewPostgresUserStore(db *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// EnsureSchema creates the users table when absent.
func (s *PostgresUserStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) Create(ctx context.Context, u *User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.get(ctx, `SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1`, email)
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (*User, error) {
	return s.get(ctx, `SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresUserStore) get(ctx context.Context, query, arg string) (*User, error) {
	u := &User{}
	err := s.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

const refreshKeyPrefix = "auth:refresh:"

// RedisSessionStore keeps refresh sessions in redis with their TTL.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Save(ctx context.Context, jti, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshKeyPrefix+jti, userID, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Take(ctx context.Context, jti string) (string, error) {
	userID, err := s.client.GetDel(ctx, refreshKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("take refresh session: %w", err)
	}
	return userID, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, jti string) error {
	if err := s.client.Del(ctx, refreshKeyPrefix+jti).Err(); err != nil {
		return fmt.Errorf("delete refresh session: %w", err)
	}
	return nil
}

type memorySession struct {
	userID    string
	expiresAt time.Time
}

// MemorySessionStore is the fallback when redis is unavailable. Sessions do
// not survive a restart.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memorySession)}
}

func (s *MemorySessionStore) Save(_ context.Context, jti, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[jti] = memorySession{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Take(_ context.Context, jti string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[jti]
	if !ok {
		return "", ErrSessionNotFound
	}
	delete(s.sessions, jti)
	if time.Now().After(sess.expiresAt) {
		return "", ErrSessionNotFound
	}
	return sess.userID, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, jti)
	return nil
}

// Flush discards all sessions. Used during module cleanup.
func (s *MemorySessionStore) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]memorySession)
}

// Len reports the number of live sessions, expired ones included until
// they are taken.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
