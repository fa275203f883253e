package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/luckydraw-admin-api/internal/dto"
	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	appErrors "github.com/noah-isme/luckydraw-admin-api/pkg/errors"
	"github.com/noah-isme/luckydraw-admin-api/pkg/importer"
)

type customerRepository interface {
	List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error)
	ExistsByPhone(ctx context.Context, programID, phone string) (bool, error)
	Create(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id string) error
}

type programGetter interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

// CustomerServiceConfig bounds bulk fan-out.
type CustomerServiceConfig struct {
	BulkConcurrency int
}

// CustomerService registers, imports and removes program customers.
type CustomerService struct {
	repo      customerRepository
	programs  programGetter
	history   historyInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       CustomerServiceConfig
}

// NewCustomerService constructs the service.
func NewCustomerService(repo customerRepository, programs programGetter, history historyInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg CustomerServiceConfig) *CustomerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BulkConcurrency <= 0 {
		cfg.BulkConcurrency = 8
	}
	return &CustomerService{
		repo:      repo,
		programs:  programs,
		history:   history,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// List returns paginated customers of a program.
func (s *CustomerService) List(ctx context.Context, programID string, q dto.CustomerQuery) ([]models.Customer, *models.Pagination, error) {
	if err := s.ensureProgram(ctx, programID); err != nil {
		return nil, nil, err
	}
	filter := models.CustomerFilter{ProgramID: programID, Search: strings.TrimSpace(q.Search), Page: q.Page, PageSize: q.PageSize}
	customers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list customers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	maxPage := (total + size - 1) / size
	if maxPage < 1 {
		maxPage = 1
	}
	return customers, &models.Pagination{Page: page, PageSize: size, TotalCount: total, MaxPage: maxPage}, nil
}

// Register creates one customer. A phone can only be registered once per program.
func (s *CustomerService) Register(ctx context.Context, programID string, req dto.RegisterCustomerRequest) (*models.Customer, error) {
	if err := s.ensureProgram(ctx, programID); err != nil {
		return nil, err
	}
	customer, err := s.register(ctx, programID, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer registered", zap.String("program_id", programID), zap.String("customer_id", customer.ID))
	return customer, nil
}

// Import creates one customer per row. Rows are independent: a bad row is
// reported and the rest continue.
func (s *CustomerService) Import(ctx context.Context, programID string, rows []importer.Row) (*dto.ImportReport, error) {
	if err := s.ensureProgram(ctx, programID); err != nil {
		return nil, err
	}
	report := &dto.ImportReport{Total: len(rows), Failed: make([]dto.ImportFailure, 0)}
	seen := make(map[string]int, len(rows))

	for _, row := range rows {
		phone := strings.TrimSpace(row.Phone)
		fail := func(message string) {
			report.Failed = append(report.Failed, dto.ImportFailure{Row: row.Line, Phone: phone, Message: message})
			s.logger.Warn("customer import row rejected",
				zap.String("program_id", programID),
				zap.Int("row", row.Line),
				zap.String("reason", message),
			)
		}

		if first, dup := seen[phone]; dup && phone != "" {
			fail(fmt.Sprintf("duplicate phone, first seen on row %d", first))
			continue
		}
		req, err := rowToRequest(row)
		if err != nil {
			fail(err.Error())
			continue
		}
		if _, err := s.register(ctx, programID, req); err != nil {
			fail(appErrors.FromError(err).Message)
			continue
		}
		seen[phone] = row.Line
		report.Created++
	}

	s.metrics.RecordImportRows(report.Created, len(report.Failed))
	s.logger.Info("customer import finished",
		zap.String("program_id", programID),
		zap.Int("total", report.Total),
		zap.Int("created", report.Created),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// BulkDelete removes customers concurrently. Each delete stands alone, there
// is no transaction, and the batch runs to completion even if the caller goes away.
func (s *CustomerService) BulkDelete(ctx context.Context, req dto.BulkDeleteRequest) (*dto.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk delete payload")
	}
	ctx = context.WithoutCancel(ctx)

	var succeeded, failed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BulkConcurrency)
	for _, id := range req.IDs {
		id := id
		g.Go(func() error {
			if err := s.repo.Delete(gctx, id); err != nil {
				atomic.AddInt64(&failed, 1)
				s.logger.Warn("bulk delete item failed", zap.String("customer_id", id), zap.Error(err))
				return nil
			}
			atomic.AddInt64(&succeeded, 1)
			return nil
		})
	}
	_ = g.Wait()

	result := &dto.BulkResult{
		Requested: len(req.IDs),
		Succeeded: int(succeeded),
		Failed:    int(failed),
	}
	s.metrics.RecordBulkDelete(result.Succeeded, result.Failed)
	s.logger.Info("bulk delete finished",
		zap.Int("requested", result.Requested),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	if result.Succeeded > 0 && s.history != nil {
		s.history.Invalidate(ctx)
	}
	return result, nil
}

func (s *CustomerService) register(ctx context.Context, programID string, req dto.RegisterCustomerRequest) (*models.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.CustomerCode = strings.TrimSpace(req.CustomerCode)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, describeValidation(err))
	}
	exists, err := s.repo.ExistsByPhone(ctx, programID, req.Phone)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check customer phone")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "phone already registered on this program")
	}
	customer := &models.Customer{
		ProgramID:   programID,
		Code:        req.CustomerCode,
		Name:        req.Name,
		Phone:       req.Phone,
		TicketCount: req.TicketCount,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create customer")
	}
	return customer, nil
}

func (s *CustomerService) ensureProgram(ctx context.Context, programID string) error {
	if _, err := s.programs.FindByID(ctx, programID); err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return nil
}

func rowToRequest(row importer.Row) (dto.RegisterCustomerRequest, error) {
	req := dto.RegisterCustomerRequest{
		Name:         row.Name,
		Phone:        row.Phone,
		CustomerCode: row.CustomerCode,
		TicketCount:  1,
	}
	if raw := strings.TrimSpace(row.TicketCount); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, errors.New("ticket_count must be a whole number")
		}
		req.TicketCount = n
	}
	return req, nil
}

var validationFields = map[string]string{
	"Name":         importer.ColumnName,
	"Phone":        importer.ColumnPhone,
	"CustomerCode": importer.ColumnCustomerCode,
	"TicketCount":  importer.ColumnTicketCount,
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid customer"
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name, ok := validationFields[fe.Field()]
		if !ok {
			name = fe.Field()
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", name, fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
