package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/crypto/bcrypt"
)

const (
	table           = "users"
	colUsername     = "username"
	colPasswordHash = "password_hash"
	colBestScore    = "best_score"
	colJoinDate     = "join_date"
)

var (
	ErrMissingFields      = errors.New("missing fields")
	ErrUserExists         = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidScore       = errors.New("score must not be negative")
)

// User is a player account as exposed to clients. The password hash never leaves the store.
type User struct {
	Username  string    `json:"username"`
	BestScore int       `json:"bestScore"`
	JoinDate  time.Time `json:"joinDate"`
}

// Ranking is one leaderboard row.
type Ranking struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Users is the account and score repository.
type Users struct {
	db   *sql.DB
	cost int
	now  func() time.Time
}

// NewUsers creates a repository over an opened database.
func NewUsers(db *sql.DB) *Users {
	return &Users{
		db:   db,
		cost: bcrypt.DefaultCost,
		now:  time.Now,
	}
}

// Signup creates an account. Both fields are required.
func (r *Users) Signup(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	query := sq.Insert(table).
		Columns(colUsername, colPasswordHash, colBestScore, colJoinDate).
		Values(username, string(hash), 0, r.now().UTC().Format(time.RFC3339)).
		Suffix("ON CONFLICT(" + colUsername + ") DO NOTHING")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Accounts created implicitly by a terminal session have no password yet; claim them.
		return r.claim(ctx, username, string(hash))
	}
	return nil
}

func (r *Users) claim(ctx context.Context, username, hash string) error {
	query := sq.Update(table).
		Set(colPasswordHash, hash).
		Where(sq.Eq{colUsername: username, colPasswordHash: ""})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("claim user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserExists
	}
	return nil
}

// Login checks the password and returns the account.
func (r *Users) Login(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	query := sq.Select(colPasswordHash, colBestScore, colJoinDate).
		From(table).
		Where(sq.Eq{colUsername: username})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var hash, joined string
	user := User{Username: username}
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&hash, &user.BestScore, &joined)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	user.JoinDate, _ = time.Parse(time.RFC3339, joined)
	return &user, nil
}

// UpdateBestScore stores score when it beats the user's best. Unknown users are
// created without a password. Reports whether the stored best changed.
func (r *Users) UpdateBestScore(ctx context.Context, username string, score int) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, ErrMissingFields
	}
	if score < 0 {
		return false, ErrInvalidScore
	}

	query := sq.Insert(table).
		Columns(colUsername, colBestScore, colJoinDate).
		Values(username, score, r.now().UTC().Format(time.RFC3339)).
		Suffix("ON CONFLICT(" + colUsername + ") DO UPDATE SET " +
			colBestScore + " = excluded." + colBestScore +
			" WHERE excluded." + colBestScore + " > " + table + "." + colBestScore)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, fmt.Errorf("upsert best score: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Rankings returns the top players by best score, ties broken by username.
func (r *Users) Rankings(ctx context.Context, limit int) ([]Ranking, error) {
	if limit <= 0 {
		return []Ranking{}, nil
	}

	query := sq.Select(colUsername, colBestScore).
		From(table).
		OrderBy(colBestScore+" DESC", colUsername+" ASC").
		Limit(uint64(limit))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("select rankings: %w", err)
	}
	defer rows.Close()

	rankings := make([]Ranking, 0, limit)
	for rows.Next() {
		var rk Ranking
		if err := rows.Scan(&rk.Username, &rk.Score); err != nil {
			return nil, err
		}
		rankings = append(rankings, rk)
	}
	return rankings, rows.Err()
}
