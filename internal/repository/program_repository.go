package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/luckydraw-admin-api/internal/models"
)

const programColumns = `id, code, name, description, number_from, number_to, extra_numbers, start_at, end_at, active, created_at, updated_at`

// ProgramRepository manages persistence for programs and their prize pools.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs a ProgramRepository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// List returns programs matching the provided filters.
func (r *ProgramRepository) List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, int, error) {
	conditions := []string{"1=1"}
	args := make([]interface{}, 0, 2)

	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args), len(args)))
	}
	where := strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"code":      "code",
		"name":      "name",
		"startAt":   "start_at",
		"createdAt": "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalisePage(filter.Page, filter.PageSize)

	stmt := fmt.Sprintf(`SELECT %s FROM programs WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`, programColumns, where, column, order, size, (page-1)*size)
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, stmt, args...); err != nil {
		return nil, 0, fmt.Errorf("list programs: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM programs WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count programs: %w", err)
	}
	return programs, total, nil
}

// FindByID fetches a program by identifier.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	var program models.Program
	if err := r.db.GetContext(ctx, &program, `SELECT `+programColumns+` FROM programs WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &program, nil
}

// FindByCode fetches a program by its business code.
func (r *ProgramRepository) FindByCode(ctx context.Context, code string) (*models.Program, error) {
	var program models.Program
	if err := r.db.GetContext(ctx, &program, `SELECT `+programColumns+` FROM programs WHERE code = $1`, code); err != nil {
		return nil, err
	}
	return &program, nil
}

// ExistsByCode checks whether a program code is taken, optionally excluding an ID.
func (r *ProgramRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	stmt := "SELECT 1 FROM programs WHERE code = $1"
	args := []interface{}{code}
	if excludeID != "" {
		stmt += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, stmt+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check program code: %w", err)
	}
	return true, nil
}

// Create inserts a new program.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if program.CreatedAt.IsZero() {
		program.CreatedAt = now
	}
	program.UpdatedAt = now
	const stmt = `INSERT INTO programs (id, code, name, description, number_from, number_to, extra_numbers, start_at, end_at, active, created_at, updated_at)
        VALUES (:id, :code, :name, :description, :number_from, :number_to, :extra_numbers, :start_at, :end_at, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, stmt, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// Update modifies the editable program fields. Extra numbers have their own statement.
func (r *ProgramRepository) Update(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	const stmt = `UPDATE programs SET name = :name, description = :description, number_from = :number_from, number_to = :number_to,
        start_at = :start_at, end_at = :end_at, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, stmt, program); err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return nil
}

// UpdateExtraNumbers persists the encoded extra number list. It returns sql.ErrNoRows when the program is gone.
func (r *ProgramRepository) UpdateExtraNumbers(ctx context.Context, id, raw string) error {
	const stmt = `UPDATE programs SET extra_numbers = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, stmt, raw, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update extra numbers: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update extra numbers: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListPrizes returns the prize pool of a program in display order.
func (r *ProgramRepository) ListPrizes(ctx context.Context, programID string) ([]models.Prize, error) {
	const stmt = `SELECT id, program_id, code, name, quantity, position FROM prizes WHERE program_id = $1 ORDER BY position ASC, code ASC`
	prizes := make([]models.Prize, 0)
	if err := r.db.SelectContext(ctx, &prizes, stmt, programID); err != nil {
		return nil, fmt.Errorf("list prizes: %w", err)
	}
	return prizes, nil
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
