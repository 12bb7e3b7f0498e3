package repository

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

// q turns a literal SQL fragment into a sqlmock pattern.
func q(s string) string { return regexp.QuoteMeta(s) }

var (
	errDuplicate = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	errNoRef     = &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}
)
