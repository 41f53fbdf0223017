package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

var errDuplicateEmail = errors.New("a user with this email already exists")

func openDB(cfg config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConnections)
	db.SetMaxIdleConns(cfg.db.maxIdleConnections)
	db.SetConnMaxIdleTime(cfg.db.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		return nil, err
	}

	return db, nil
}

type storage struct {
	db *sql.DB
}

func newStorage(db *sql.DB) *storage {
	return &storage{
		db: db,
	}
}

func (s *storage) insertUser(u *user) error {
	query := `INSERT INTO users (name, email, password_hash)
			  VALUES ($1, lower($2), $3)
			  RETURNING id, created_at`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, u.Name, u.Email, u.PasswordHash)
	err := row.Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return errDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *storage) getUserByEmail(email string) (*user, error) {
	query := `SELECT id, created_at, name, email, password_hash
			  FROM users
			  WHERE email = lower($1)`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, email)
	var u user
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Name, &u.Email, &u.PasswordHash)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *storage) getUserByID(id int) (*user, error) {
	query := `SELECT id, created_at, name, email, password_hash
			  FROM users
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id)
	var u user
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Name, &u.Email, &u.PasswordHash)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *storage) insertTask(t *task) error {
	query := `INSERT INTO tasks (user_id, title, description, is_completed)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, created_at`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, t.UserID, t.Title, t.Description, t.IsCompleted)
	return row.Scan(&t.ID, &t.CreatedAt)
}

// getTasksForUser returns every task owned by userID, newest first.
func (s *storage) getTasksForUser(userID int) ([]task, error) {
	query := `SELECT id, created_at, user_id, title, description, is_completed
			  FROM tasks
			  WHERE user_id = $1
			  ORDER BY created_at DESC, id DESC`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []task{}
	for rows.Next() {
		var t task
		err := rows.Scan(&t.ID, &t.CreatedAt, &t.UserID, &t.Title, &t.Description, &t.IsCompleted)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// getTaskForUser looks a task up by id scoped to its owner. A task that
// exists but belongs to someone else is indistinguishable from one that
// doesn't exist: both return (nil, nil).
func (s *storage) getTaskForUser(id, userID int) (*task, error) {
	query := `SELECT id, created_at, user_id, title, description, is_completed
			  FROM tasks
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id, userID)
	var t task
	err := row.Scan(&t.ID, &t.CreatedAt, &t.UserID, &t.Title, &t.Description, &t.IsCompleted)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &t, nil
}

func (s *storage) updateTask(t *task) error {
	query := `UPDATE tasks SET title = $1, description = $2, is_completed = $3
			  WHERE id = $4 AND user_id = $5`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, t.Title, t.Description, t.IsCompleted, t.ID, t.UserID)
	return err
}

// deleteTaskForUser removes a task scoped to its owner and returns the
// deleted row's prior state, or (nil, nil) when nothing matched.
func (s *storage) deleteTaskForUser(id, userID int) (*task, error) {
	query := `DELETE FROM tasks
			  WHERE id = $1 AND user_id = $2
			  RETURNING id, created_at, user_id, title, description, is_completed`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id, userID)
	var t task
	err := row.Scan(&t.ID, &t.CreatedAt, &t.UserID, &t.Title, &t.Description, &t.IsCompleted)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &t, nil
}
