package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/luckydraw-admin-api/internal/dto"
	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	appErrors "github.com/noah-isme/luckydraw-admin-api/pkg/errors"
	"github.com/noah-isme/luckydraw-admin-api/pkg/extranumber"
)

type programRepository interface {
	List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, int, error)
	FindByID(ctx context.Context, id string) (*models.Program, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	UpdateExtraNumbers(ctx context.Context, id, raw string) error
	ListPrizes(ctx context.Context, programID string) ([]models.Prize, error)
}

type historyInvalidator interface {
	Invalidate(ctx context.Context)
}

// ProgramService manages programs, their prize pools and extra numbers.
type ProgramService struct {
	repo      programRepository
	history   historyInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService creates a program service.
func NewProgramService(repo programRepository, history historyInvalidator, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{repo: repo, history: history, validator: validate, logger: logger}
}

// List returns paginated programs.
func (s *ProgramService) List(ctx context.Context, q dto.ProgramQuery) ([]models.Program, *models.Pagination, error) {
	filter := models.ProgramFilter{
		Search:    strings.TrimSpace(q.Search),
		Active:    q.Active,
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
	programs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
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
	return programs, &models.Pagination{Page: page, PageSize: size, TotalCount: total, MaxPage: maxPage}, nil
}

// Get returns a program by identifier.
func (s *ProgramService) Get(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}

// Create adds a program, enforcing a unique code.
func (s *ProgramService) Create(ctx context.Context, req dto.CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.repo.ExistsByCode(ctx, code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check program code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "program code already exists")
	}

	program := &models.Program{
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		NumberFrom:  req.NumberFrom,
		NumberTo:    req.NumberTo,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Active:      req.Active == nil || *req.Active,
	}
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	s.logger.Info("program created", zap.String("program_id", program.ID), zap.String("code", program.Code))
	return program, nil
}

// Update modifies the editable fields of a program. The code is immutable.
func (s *ProgramService) Update(ctx context.Context, id string, req dto.UpdateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	program, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	program.Name = strings.TrimSpace(req.Name)
	program.Description = req.Description
	program.NumberFrom = req.NumberFrom
	program.NumberTo = req.NumberTo
	program.StartAt = req.StartAt
	program.EndAt = req.EndAt
	if req.Active != nil {
		program.Active = *req.Active
	}
	if err := s.repo.Update(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update program")
	}
	s.invalidate(ctx)
	return program, nil
}

// Prizes returns the prize pool of a program.
func (s *ProgramService) Prizes(ctx context.Context, programID string) ([]models.Prize, error) {
	if _, err := s.Get(ctx, programID); err != nil {
		return nil, err
	}
	prizes, err := s.repo.ListPrizes(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list prizes")
	}
	return prizes, nil
}

// ExtraNumbers decodes the stored extra numbers for editing.
func (s *ProgramService) ExtraNumbers(ctx context.Context, id string) (*dto.ExtraNumbersResponse, error) {
	program, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return extraNumbersResponse(program.ID, program.ExtraNumbers), nil
}

// SaveExtraNumbers replaces the extra number list. Half-filled rows are
// dropped; a row naming a prize outside the program's pool rejects the whole save.
func (s *ProgramService) SaveExtraNumbers(ctx context.Context, id string, req dto.ExtraNumbersRequest) (*dto.ExtraNumbersResponse, error) {
	program, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prizes, err := s.repo.ListPrizes(ctx, program.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list prizes")
	}
	known := make(map[string]struct{}, len(prizes))
	for _, p := range prizes {
		known[p.Code] = struct{}{}
	}

	var unknown []string
	for _, entry := range req.Entries {
		if !entry.Valid() {
			continue
		}
		code := strings.TrimSpace(entry.PrizeCode)
		if _, ok := known[code]; !ok {
			unknown = append(unknown, code)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown prize codes: %s", strings.Join(dedupe(unknown), ", ")))
	}

	raw := extranumber.Encode(req.Entries)
	if err := s.persistExtraNumbers(ctx, program.ID, raw); err != nil {
		return nil, err
	}
	s.logger.Info("extra numbers saved",
		zap.String("program_id", program.ID),
		zap.Int("submitted", len(req.Entries)),
		zap.Int("saved", len(extranumber.Decode(raw))),
	)
	s.invalidate(ctx)
	return extraNumbersResponse(program.ID, raw), nil
}

// RemoveExtraNumber drops an extra number. Rows that were saved need an
// explicit confirmation and are removed with their own update; rows that were
// never saved are reported back as local only.
func (s *ProgramService) RemoveExtraNumber(ctx context.Context, id string, removal dto.ExtraNumberRemoval) (*dto.ExtraNumberRemovalResult, error) {
	if strings.TrimSpace(removal.Number) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "number is required")
	}
	program, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	entry := extranumber.Entry{Number: removal.Number, Repeat: removal.Repeat, PrizeCode: removal.PrizeCode}
	if !extranumber.Persisted(program.ExtraNumbers, entry) {
		entries := extranumber.Decode(program.ExtraNumbers)
		return &dto.ExtraNumberRemovalResult{Remote: false, Raw: program.ExtraNumbers, Entries: entries}, nil
	}
	if !removal.Confirm {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "removing a saved extra number requires confirmation")
	}

	entries := extranumber.Remove(extranumber.Decode(program.ExtraNumbers), removal.Number)
	raw := extranumber.Encode(entries)
	if err := s.persistExtraNumbers(ctx, program.ID, raw); err != nil {
		return nil, err
	}
	s.logger.Info("extra number removed", zap.String("program_id", program.ID), zap.String("number", removal.Number))
	s.invalidate(ctx)
	return &dto.ExtraNumberRemovalResult{Remote: true, Raw: raw, Entries: entries}, nil
}

func (s *ProgramService) persistExtraNumbers(ctx context.Context, id, raw string) error {
	if err := s.repo.UpdateExtraNumbers(ctx, id, raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save extra numbers")
	}
	return nil
}

func (s *ProgramService) invalidate(ctx context.Context) {
	if s.history != nil {
		s.history.Invalidate(ctx)
	}
}

func extraNumbersResponse(programID, raw string) *dto.ExtraNumbersResponse {
	return &dto.ExtraNumbersResponse{ProgramID: programID, Raw: raw, Entries: extranumber.Decode(raw)}
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for _, v := range sorted {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	return out
}
