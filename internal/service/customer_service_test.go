package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/luckydraw-admin-api/internal/dto"
	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	appErrors "github.com/noah-isme/luckydraw-admin-api/pkg/errors"
	"github.com/noah-isme/luckydraw-admin-api/pkg/importer"
)

type customerRepoStub struct {
	mu        sync.Mutex
	phones    map[string]bool
	created   []models.Customer
	deleted   []string
	failIDs   map[string]bool
	createErr error
}

func newCustomerRepoStub() *customerRepoStub {
	return &customerRepoStub{phones: map[string]bool{"0900000000": true}, failIDs: map[string]bool{}}
}

func (s *customerRepoStub) List(_ context.Context, filter models.CustomerFilter) ([]models.Customer, int, error) {
	return []models.Customer{{ID: "c-1", ProgramID: filter.ProgramID}}, 41, nil
}

func (s *customerRepoStub) ExistsByPhone(_ context.Context, _ string, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phones[phone], nil
}

func (s *customerRepoStub) Create(_ context.Context, customer *models.Customer) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	customer.ID = "c-" + customer.Phone
	s.created = append(s.created, *customer)
	s.phones[customer.Phone] = true
	return nil
}

func (s *customerRepoStub) Delete(ctx context.Context, id string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[id] {
		return sql.ErrNoRows
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type programGetterStub struct{}

func (programGetterStub) FindByID(_ context.Context, id string) (*models.Program, error) {
	if id != "p-1" {
		return nil, sql.ErrNoRows
	}
	return &models.Program{ID: id, Code: "TET24"}, nil
}

func newCustomerServiceForTest(repo *customerRepoStub, history historyInvalidator) *CustomerService {
	return NewCustomerService(repo, programGetterStub{}, history, nil, nil, nil, CustomerServiceConfig{BulkConcurrency: 2})
}

func TestCustomerServiceRegister(t *testing.T) {
	repo := newCustomerRepoStub()
	svc := newCustomerServiceForTest(repo, nil)
	ctx := context.Background()

	customer, err := svc.Register(ctx, "p-1", dto.RegisterCustomerRequest{Name: " An ", Phone: "0901234567", CustomerCode: "KH01", TicketCount: 2})
	require.NoError(t, err)
	assert.Equal(t, "An", customer.Name)
	assert.Equal(t, "p-1", customer.ProgramID)

	_, err = svc.Register(ctx, "p-1", dto.RegisterCustomerRequest{Name: "Bình", Phone: "0901234567", CustomerCode: "KH02", TicketCount: 1})
	requireAppCode(t, err, appErrors.ErrConflict)

	_, err = svc.Register(ctx, "p-1", dto.RegisterCustomerRequest{Name: "Bình", Phone: "abc", CustomerCode: "KH02", TicketCount: 1})
	requireAppCode(t, err, appErrors.ErrValidation)

	_, err = svc.Register(ctx, "p-9", dto.RegisterCustomerRequest{Name: "Bình", Phone: "0907654321", CustomerCode: "KH02", TicketCount: 1})
	requireAppCode(t, err, appErrors.ErrNotFound)
}

func TestCustomerServiceList(t *testing.T) {
	svc := newCustomerServiceForTest(newCustomerRepoStub(), nil)

	customers, pagination, err := svc.List(context.Background(), "p-1", dto.CustomerQuery{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, customers, 1)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 3, pagination.MaxPage)
}

func TestCustomerServiceImportItemisesFailures(t *testing.T) {
	repo := newCustomerRepoStub()
	svc := newCustomerServiceForTest(repo, nil)

	rows := []importer.Row{
		{Line: 2, Name: "An", Phone: "0901111111", CustomerCode: "KH01", TicketCount: "3"},
		{Line: 3, Name: "Bình", Phone: "0900000000", CustomerCode: "KH02", TicketCount: "1"},
		{Line: 4, Name: "Cường", Phone: "0902222222", CustomerCode: "KH03", TicketCount: "many"},
		{Line: 5, Name: "", Phone: "0903333333", CustomerCode: "KH04"},
		{Line: 6, Name: "Dũng", Phone: "0901111111", CustomerCode: "KH05"},
		{Line: 7, Name: "Hà", Phone: "0904444444", CustomerCode: "KH06"},
	}

	report, err := svc.Import(context.Background(), "p-1", rows)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 2, report.Created)
	require.Len(t, report.Failed, 4)

	assert.Equal(t, 3, report.Failed[0].Row)
	assert.Equal(t, "phone already registered on this program", report.Failed[0].Message)
	assert.Equal(t, 4, report.Failed[1].Row)
	assert.Equal(t, "ticket_count must be a whole number", report.Failed[1].Message)
	assert.Equal(t, 5, report.Failed[2].Row)
	assert.Contains(t, report.Failed[2].Message, "name failed required")
	assert.Equal(t, 6, report.Failed[3].Row)
	assert.Contains(t, report.Failed[3].Message, "row 2")

	assert.Equal(t, 1, repo.created[1].TicketCount)
}

func TestCustomerServiceImportCreateError(t *testing.T) {
	repo := newCustomerRepoStub()
	repo.createErr = errors.New("db down")
	svc := newCustomerServiceForTest(repo, nil)

	report, err := svc.Import(context.Background(), "p-1", []importer.Row{{Line: 2, Name: "An", Phone: "0901111111", CustomerCode: "KH01"}})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "failed to create customer", report.Failed[0].Message)
}

func TestCustomerServiceBulkDelete(t *testing.T) {
	repo := newCustomerRepoStub()
	repo.failIDs["c-3"] = true
	history := &invalidationCounter{}
	svc := newCustomerServiceForTest(repo, history)

	result, err := svc.BulkDelete(context.Background(), dto.BulkDeleteRequest{IDs: []string{"c-1", "c-2", "c-3", "c-4", "c-5"}})
	require.NoError(t, err)
	assert.Equal(t, dto.BulkResult{Requested: 5, Succeeded: 4, Failed: 1}, *result)
	assert.ElementsMatch(t, []string{"c-1", "c-2", "c-4", "c-5"}, repo.deleted)
	assert.Equal(t, 1, history.calls)
}

func TestCustomerServiceBulkDeleteIgnoresCallerCancellation(t *testing.T) {
	repo := newCustomerRepoStub()
	svc := newCustomerServiceForTest(repo, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.BulkDelete(ctx, dto.BulkDeleteRequest{IDs: []string{"c-1", "c-2", "c-3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Succeeded)
}

func TestCustomerServiceBulkDeleteValidation(t *testing.T) {
	svc := newCustomerServiceForTest(newCustomerRepoStub(), nil)

	_, err := svc.BulkDelete(context.Background(), dto.BulkDeleteRequest{})
	requireAppCode(t, err, appErrors.ErrValidation)

	_, err = svc.BulkDelete(context.Background(), dto.BulkDeleteRequest{IDs: []string{"c-1", ""}})
	requireAppCode(t, err, appErrors.ErrValidation)
}
