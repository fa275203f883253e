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

// CustomerRepository manages persistence for program customers.
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository constructs a CustomerRepository.
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// List returns customers of a program, newest first.
func (r *CustomerRepository) List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error) {
	args := []interface{}{filter.ProgramID}
	conditions := []string{"program_id = $1"}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR phone LIKE $%d OR LOWER(code) LIKE $%d)", len(args), len(args), len(args)))
	}
	where := strings.Join(conditions, " AND ")
	page, size := normalisePage(filter.Page, filter.PageSize)

	stmt := fmt.Sprintf(`SELECT id, program_id, code, name, phone, ticket_count, created_at, updated_at FROM customers WHERE %s ORDER BY created_at DESC, id ASC LIMIT %d OFFSET %d`, where, size, (page-1)*size)
	var customers []models.Customer
	if err := r.db.SelectContext(ctx, &customers, stmt, args...); err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM customers WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	return customers, total, nil
}

// ExistsByPhone reports whether the phone is already registered on the program.
func (r *CustomerRepository) ExistsByPhone(ctx context.Context, programID, phone string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM customers WHERE program_id = $1 AND phone = $2 LIMIT 1", programID, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check customer phone: %w", err)
	}
	return true, nil
}

// Create inserts a customer.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = now
	}
	customer.UpdatedAt = now
	const stmt = `INSERT INTO customers (id, program_id, code, name, phone, ticket_count, created_at, updated_at)
        VALUES (:id, :program_id, :code, :name, :phone, :ticket_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, stmt, customer); err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

// Delete removes one customer. It returns sql.ErrNoRows when nothing was deleted.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
