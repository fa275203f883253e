package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	"github.com/noah-isme/luckydraw-admin-api/pkg/query"
)

// DefaultHistoryRowLimit bounds a single history fetch.
const DefaultHistoryRowLimit = 50000

// HistoryRepository reads participation and win rows from the platform's v_draw_history view.
type HistoryRepository struct {
	db       *sqlx.DB
	rowLimit int
	logger   *zap.Logger
}

// NewHistoryRepository constructs the repository.
func NewHistoryRepository(db *sqlx.DB, rowLimit int, logger *zap.Logger) *HistoryRepository {
	if rowLimit <= 0 {
		rowLimit = DefaultHistoryRowLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryRepository{db: db, rowLimit: rowLimit, logger: logger}
}

type historyRow struct {
	ID           string       `db:"id"`
	ProgramCode  string       `db:"program_code"`
	ProgramName  string       `db:"program_name"`
	SubjectName  string       `db:"subject_name"`
	SubjectPhone string       `db:"subject_phone"`
	PrizeName    string       `db:"prize_name"`
	DrawnAt      sql.NullTime `db:"drawn_at"`
	WonAt        sql.NullTime `db:"won_at"`
	Address      string       `db:"address"`
	IDDocument   string       `db:"id_document"`
	Note         string       `db:"note"`
}

func (r historyRow) record() query.Record {
	return query.Record{
		ID:           r.ID,
		ProgramCode:  r.ProgramCode,
		ProgramName:  r.ProgramName,
		SubjectName:  r.SubjectName,
		SubjectPhone: r.SubjectPhone,
		PrizeName:    r.PrizeName,
		DrawnAt:      formatTimestamp(r.DrawnAt),
		WonAt:        formatTimestamp(r.WonAt),
		Address:      r.Address,
		IDDocument:   r.IDDocument,
		Note:         r.Note,
	}
}

func formatTimestamp(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.UTC().Format(time.RFC3339)
}

// List returns rows narrowed by the filter, newest draw first.
// Date range, sort and paging are left to the query engine.
func (r *HistoryRepository) List(ctx context.Context, filter models.HistoryFilter) ([]query.Record, error) {
	conditions := []string{"1=1"}
	args := make([]interface{}, 0, 3)

	if filter.WinnersOnly {
		conditions = append(conditions, "h.won_at IS NOT NULL")
	}
	if program := strings.TrimSpace(filter.Program); program != "" {
		args = append(args, program)
		conditions = append(conditions, fmt.Sprintf("(h.program_code = $%d OR h.program_name = $%d)", len(args), len(args)))
	}
	if prize := strings.TrimSpace(filter.Prize); prize != "" && filter.WinnersOnly {
		args = append(args, prize)
		conditions = append(conditions, fmt.Sprintf("h.prize_name = $%d", len(args)))
	}
	if needle := strings.ToLower(strings.TrimSpace(filter.Query)); needle != "" {
		args = append(args, "%"+needle+"%")
		conditions = append(conditions, fmt.Sprintf(`LOWER(CONCAT_WS(' ', h.subject_name, h.subject_phone, h.program_name, h.program_code, h.prize_name, h.address, h.id_document, h.note)) LIKE $%d`, len(args)))
	}

	stmt := fmt.Sprintf(`SELECT h.id, COALESCE(h.program_code, '') AS program_code, COALESCE(h.program_name, '') AS program_name,
        COALESCE(h.subject_name, '') AS subject_name, COALESCE(h.subject_phone, '') AS subject_phone, COALESCE(h.prize_name, '') AS prize_name,
        h.drawn_at, h.won_at, COALESCE(h.address, '') AS address, COALESCE(h.id_document, '') AS id_document, COALESCE(h.note, '') AS note
        FROM v_draw_history h WHERE %s ORDER BY h.drawn_at DESC, h.id ASC LIMIT %d`, strings.Join(conditions, " AND "), r.rowLimit)

	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("list draw history: %w", err)
	}
	if len(rows) >= r.rowLimit {
		r.logger.Warn("draw history truncated at row limit, totals are incomplete",
			zap.Int("limit", r.rowLimit),
			zap.String("program", filter.Program),
			zap.Bool("winners_only", filter.WinnersOnly),
		)
	}
	records := make([]query.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}
