package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/luckydraw-admin-api/internal/models"
)

func TestCustomerRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	rows := sqlmock.NewRows([]string{"id", "program_id", "code", "name", "phone", "ticket_count", "created_at", "updated_at"}).
		AddRow("c-1", "p-1", "C001", "Nguyễn Văn An", "0901000001", 3, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM customers WHERE program_id = $1 AND (LOWER(name) LIKE $2 OR phone LIKE $2 OR LOWER(code) LIKE $2) ORDER BY created_at DESC, id ASC LIMIT 20 OFFSET 0")).
		WithArgs("p-1", "%0901%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM customers WHERE program_id = $1")).
		WithArgs("p-1", "%0901%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	customers, total, err := repo.List(context.Background(), models.CustomerFilter{ProgramID: "p-1", Search: "0901"})
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, 3, customers[0].TicketCount)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryExistsByPhone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM customers WHERE program_id = $1 AND phone = $2 LIMIT 1")).
		WithArgs("p-1", "0901").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM customers")).
		WithArgs("p-1", "0902").
		WillReturnError(errors.New("conn reset"))

	exists, err := repo.ExistsByPhone(context.Background(), "p-1", "0901")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.ExistsByPhone(context.Background(), "p-1", "0902")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	mock.ExpectExec("INSERT INTO customers").
		WithArgs(sqlmock.AnyArg(), "p-1", "C001", "An", "0901000001", 2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	customer := &models.Customer{ProgramID: "p-1", Code: "C001", Name: "An", Phone: "0901000001", TicketCount: 2}
	require.NoError(t, repo.Create(context.Background(), customer))
	assert.NotEmpty(t, customer.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCustomerRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE id = $1")).
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE id = $1")).
		WithArgs("c-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "c-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "c-2"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
