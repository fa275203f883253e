package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/luckydraw-admin-api/internal/dto"
	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	"github.com/noah-isme/luckydraw-admin-api/pkg/export"
	"github.com/noah-isme/luckydraw-admin-api/pkg/query"
	"github.com/noah-isme/luckydraw-admin-api/pkg/storage"
)

type historyCollector interface {
	Criteria(q dto.HistoryQuery) (query.Criteria, error)
	Collect(ctx context.Context, c query.Criteria) ([]query.Record, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	Location  *time.Location
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	RowCount     int
	Format       models.ExportFormat
}

// ExportService renders history exports and manages the stored files and their download tokens.
type ExportService struct {
	history historyCollector
	storage fileStorage
	csv     tableRenderer
	xlsx    tableRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	now     func() time.Time
	cfg     ExportConfig
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(history historyCollector, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = signer.TTL()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ExportService{
		history: history,
		storage: store,
		csv:     export.NewCSVExporter(),
		xlsx:    export.NewXLSXExporter("History"),
		pdf:     export.NewPDFExporter(),
		signer:  signer,
		logger:  logger,
		now:     time.Now,
		cfg:     cfg,
	}
}

// Generate collects the records described by the job, renders them and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	criteria, err := s.history.Criteria(historyQueryFromParams(job.Params))
	if err != nil {
		return nil, err
	}
	criteria.Location = s.cfg.Location
	records, err := s.history.Collect(ctx, criteria)
	if err != nil {
		return nil, err
	}
	dataset := s.buildDataset(records, criteria.Tab, job.Params.MaskPhone)

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatXLSX:
		payload, err = s.xlsx.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, exportTitle(criteria))
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job, criteria.Tab), payload)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("export rendered",
		zap.String("job_id", job.ID),
		zap.String("format", string(job.Params.Format)),
		zap.Int("rows", len(records)),
		zap.Int("bytes", len(payload)),
	)
	return &ExportResult{RelativePath: relPath, RowCount: len(records), Format: job.Params.Format}, nil
}

// DownloadURL signs the stored file of a finished job. The link expires ResultTTL after the job finished.
func (s *ExportService) DownloadURL(jobID, relPath string, finishedAt time.Time) (string, time.Time, error) {
	token, expiresAt, err := s.signer.GenerateUntil(jobID, relPath, finishedAt.Add(s.cfg.ResultTTL))
	if err != nil {
		return "", time.Time{}, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/export/%s", prefix, token), expiresAt, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// ResultTTL is how long a finished export stays downloadable.
func (s *ExportService) ResultTTL() time.Duration {
	return s.cfg.ResultTTL
}

const (
	colID       = "ID"
	colProgram  = "Program"
	colName     = "Name"
	colPhone    = "Phone"
	colDrawnAt  = "Drawn at"
	colPrize    = "Prize"
	colWonAt    = "Won at"
	colAddress  = "Address"
	colDocument = "ID document"
	colNote     = "Note"
)

func (s *ExportService) buildDataset(records []query.Record, tab query.Tab, mask bool) export.Dataset {
	headers := []string{colID, colProgram, colName, colPhone, colDrawnAt}
	if tab == query.TabWinners {
		headers = append(headers, colPrize, colWonAt, colAddress, colDocument, colNote)
	}
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		phone := r.SubjectPhone
		if mask {
			phone = models.MaskPhone(phone)
		}
		rows = append(rows, map[string]string{
			colID:       r.ID,
			colProgram:  r.ProgramName,
			colName:     r.SubjectName,
			colPhone:    phone,
			colDrawnAt:  s.formatTimestamp(r.DrawnAt),
			colPrize:    r.PrizeName,
			colWonAt:    s.formatTimestamp(r.WonAt),
			colAddress:  r.Address,
			colDocument: r.IDDocument,
			colNote:     r.Note,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func (s *ExportService) formatTimestamp(raw string) string {
	t, ok := query.ParseTimestamp(raw, s.cfg.Location)
	if !ok {
		return raw
	}
	return t.In(s.cfg.Location).Format("2006-01-02 15:04:05")
}

func (s *ExportService) buildFilename(job *models.ExportJob, tab query.Tab) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	scope := sanitizeFilename(job.Params.Program)
	return fmt.Sprintf("history_%s_%s_%s_%s.%s", tab, scope, timestamp, shortID(job.ID), job.Params.Format)
}

func exportTitle(c query.Criteria) string {
	title := "Participants"
	if c.Tab == query.TabWinners {
		title = "Winners"
	}
	if c.Program != "" {
		title += " - " + c.Program
	}
	return title
}

func historyQueryFromParams(p models.ExportParams) dto.HistoryQuery {
	return dto.HistoryQuery{
		Query:     p.Query,
		Program:   p.Program,
		Prize:     p.Prize,
		From:      p.From,
		To:        p.To,
		Tab:       p.Tab,
		SortBy:    p.SortBy,
		SortOrder: p.SortOrder,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "job"
	}
	return id
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
