package main

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newStorage(db), mock
}

func TestInsertUser_DuplicateEmail(t *testing.T) {
	s, mock := newTestStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("Alice", "alice@example.com", []byte("hash")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := s.insertUser(&user{Name: "Alice", Email: "alice@example.com", PasswordHash: []byte("hash")})
	require.ErrorIs(t, err, errDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	s, mock := newTestStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users`)).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "name", "email", "password_hash"}))

	u, err := s.getUserByEmail("ghost@example.com")
	require.NoError(t, err)
	require.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTaskForUser_ScopedLookup(t *testing.T) {
	s, mock := newTestStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND user_id = $2`)).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows(taskColumns()).
			AddRow(5, time.Now(), 1, "Write spec", "", false))

	task, err := s.getTaskForUser(5, 1)
	require.NoError(t, err)
	require.NotNil(t, task)
	require.Equal(t, "Write spec", task.Title)

	// same id, different owner: no rows, and no error either
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND user_id = $2`)).
		WithArgs(5, 2).
		WillReturnRows(sqlmock.NewRows(taskColumns()))

	task, err = s.getTaskForUser(5, 2)
	require.NoError(t, err)
	require.Nil(t, task)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTaskForUser_ReturnsPriorState(t *testing.T) {
	s, mock := newTestStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM tasks`)).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows(taskColumns()).
			AddRow(5, time.Now(), 1, "Write spec", "notes", true))

	task, err := s.deleteTaskForUser(5, 1)
	require.NoError(t, err)
	require.NotNil(t, task)
	require.Equal(t, "Write spec", task.Title)
	require.True(t, task.IsCompleted)

	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM tasks`)).
		WithArgs(99, 1).
		WillReturnRows(sqlmock.NewRows(taskColumns()))

	task, err = s.deleteTaskForUser(99, 1)
	require.NoError(t, err)
	require.Nil(t, task)
	require.NoError(t, mock.ExpectationsWereMet())
}
