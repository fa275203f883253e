package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/luckydraw-admin-api/internal/dto"
	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	appErrors "github.com/noah-isme/luckydraw-admin-api/pkg/errors"
	"github.com/noah-isme/luckydraw-admin-api/pkg/query"
)

const (
	historyCachePattern = "history:*"
	viewStateKeyPrefix  = "viewstate:"
	dashboardTopPrizes  = 5
)

type historyReader interface {
	List(ctx context.Context, filter models.HistoryFilter) ([]query.Record, error)
}

type programFinder interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
	FindByCode(ctx context.Context, code string) (*models.Program, error)
}

// HistoryServiceConfig tunes history behaviour.
type HistoryServiceConfig struct {
	CacheTTL        time.Duration
	ViewStateTTL    time.Duration
	DefaultPageSize int
	MaxPageSize     int
	Location        *time.Location
}

// HistoryService serves filtered, sorted and paged draw history.
type HistoryService struct {
	repo     historyReader
	programs programFinder
	cache    *CacheService
	metrics  *MetricsService
	feed     *RecordFeed
	logger   *zap.Logger
	now      func() time.Time
	cfg      HistoryServiceConfig
}

// NewHistoryService constructs the service.
func NewHistoryService(repo historyReader, programs programFinder, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg HistoryServiceConfig) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.ViewStateTTL <= 0 {
		cfg.ViewStateTTL = 24 * time.Hour
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = query.DefaultPageSize
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = 200
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &HistoryService{
		repo:     repo,
		programs: programs,
		cache:    cache,
		metrics:  metrics,
		feed:     NewRecordFeed(),
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// Criteria converts query parameters into engine criteria. Malformed paging
// values fall back to defaults; an unknown sort key is a validation error.
func (s *HistoryService) Criteria(q dto.HistoryQuery) (query.Criteria, error) {
	c := query.Criteria{
		Query:    q.Query,
		Program:  q.Program,
		Prize:    q.Prize,
		From:     strings.TrimSpace(q.From),
		To:       strings.TrimSpace(q.To),
		Tab:      query.ParseTab(q.Tab),
		Page:     atoiOr(q.Page, 1),
		PageSize: s.clampPageSize(atoiOr(q.PageSize, 0)),
		Location: s.cfg.Location,
	}
	c.Sort = query.Sort{Key: query.SortDrawnAt, Direction: query.Desc}
	if strings.TrimSpace(q.SortBy) != "" {
		key, ok := query.ParseSortKey(q.SortBy)
		if !ok {
			return query.Criteria{}, appErrors.Clone(appErrors.ErrValidation, "unsupported sortBy "+strconv.Quote(q.SortBy))
		}
		c.Sort = query.Sort{Key: key, Direction: query.DefaultDirection(key)}
	}
	if dir := query.ParseDirection(q.SortOrder); dir != "" {
		c.Sort.Direction = dir
	}
	return c, nil
}

// View returns one page of the history for the criteria. Both tabs are served
// from the same cached, unfiltered record set so totals are computed before
// any filter; no filter is pushed down to the database here.
func (s *HistoryService) View(ctx context.Context, c query.Criteria) (*dto.HistoryView, error) {
	records, err := s.records(ctx, models.HistoryFilter{})
	if err != nil {
		return nil, err
	}
	if c.Location == nil {
		c.Location = s.cfg.Location
	}
	c.PageSize = s.clampPageSize(c.PageSize)
	result := query.Apply(records, c)
	s.metrics.RecordHistoryView(string(query.ParseTab(string(c.Tab))))
	return &dto.HistoryView{
		Tab:           query.ParseTab(string(c.Tab)),
		Sort:          c.Sort,
		Records:       result.Visible,
		Page:          result.Page,
		MaxPage:       result.MaxPage,
		PageSize:      result.PageSize,
		TotalFiltered: result.TotalFiltered,
		TotalAll:      result.TotalAll,
		Prizes:        result.Prizes,
	}, nil
}

// Collect returns every record matching the criteria in display order, ignoring paging.
func (s *HistoryService) Collect(ctx context.Context, c query.Criteria) ([]query.Record, error) {
	tab := query.ParseTab(string(c.Tab))
	filter := models.HistoryFilter{
		Query:       c.Query,
		Program:     c.Program,
		WinnersOnly: tab == query.TabWinners,
	}
	if filter.WinnersOnly {
		filter.Prize = c.Prize
	}
	records, err := s.records(ctx, filter)
	if err != nil {
		return nil, err
	}
	if c.Location == nil {
		c.Location = s.cfg.Location
	}
	c.Page = 1
	c.PageSize = len(records)
	if c.PageSize == 0 {
		c.PageSize = 1
	}
	return query.Apply(records, c).Visible, nil
}

// UpdateView applies a patch to the caller's stored view state and returns the resulting page.
func (s *HistoryService) UpdateView(ctx context.Context, userID string, patch dto.ViewPatch) (*dto.HistoryView, error) {
	key := viewStateKeyPrefix + userID
	state := query.NewViewState()
	if !patch.Reset {
		var stored query.ViewState
		if s.cache.Get(ctx, key, &stored) {
			state = &stored
		}
	}

	if patch.Filters != nil {
		state.SetFilters(*patch.Filters)
	}
	if patch.Tab != nil {
		state.SwitchTab(query.ParseTab(*patch.Tab))
	}
	if patch.SortBy != nil {
		sortKey, ok := query.ParseSortKey(*patch.SortBy)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported sortBy "+strconv.Quote(*patch.SortBy))
		}
		state.SetSort(sortKey)
	}
	if patch.PageSize != nil {
		state.SetPageSize(s.clampPageSize(*patch.PageSize))
	}
	if patch.Page != nil {
		state.SetPage(*patch.Page)
	}

	view, err := s.View(ctx, state.Criteria(s.cfg.Location))
	if err != nil {
		return nil, err
	}
	state.SetPage(view.Page)
	s.cache.Set(ctx, key, state, s.cfg.ViewStateTTL)
	view.State = state
	return view, nil
}

// Dashboard summarises one program, looked up by id or code. The boolean
// reports whether the summary came from cache.
func (s *HistoryService) Dashboard(ctx context.Context, ref string) (*dto.ProgramDashboard, bool, error) {
	program, err := s.findProgram(ctx, ref)
	if err != nil {
		return nil, false, err
	}
	cacheKey := "history:dashboard:" + program.ID
	var cached dto.ProgramDashboard
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}
	gen := s.feed.Generation()

	records, err := s.records(ctx, models.HistoryFilter{Program: program.Code})
	if err != nil {
		return nil, false, err
	}
	winners := 0
	for _, r := range records {
		if r.IsWinner() {
			winners++
		}
	}
	top := query.PrizeSummary(records)
	if len(top) > dashboardTopPrizes {
		top = top[:dashboardTopPrizes]
	}
	dashboard := &dto.ProgramDashboard{
		ProgramID:    program.ID,
		ProgramCode:  program.Code,
		ProgramName:  program.Name,
		Participants: len(records),
		Winners:      winners,
		TopPrizes:    top,
		GeneratedAt:  s.now().UTC(),
	}
	s.cacheCurrent(ctx, cacheKey, dashboard, gen)
	return dashboard, false, nil
}

// Invalidate drops cached record sets and dashboards. Stored view states survive.
func (s *HistoryService) Invalidate(ctx context.Context) {
	s.feed.Invalidate()
	if err := s.cache.Invalidate(ctx, historyCachePattern); err != nil {
		s.logger.Warn("history cache invalidation failed", zap.Error(err))
	}
}

func (s *HistoryService) records(ctx context.Context, filter models.HistoryFilter) ([]query.Record, error) {
	key := filter.CacheKey()
	var cached []query.Record
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	gen := s.feed.Generation()
	seq := s.feed.Begin(key)
	start := time.Now()
	records, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("history.list", time.Since(start))
	if err != nil {
		s.feed.Abandon(key, seq)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draw history")
	}
	latest, fresh := s.feed.Complete(key, seq, records)
	if !fresh {
		s.metrics.RecordStaleFetch()
		s.logger.Debug("discarded stale history fetch", zap.String("key", key), zap.Uint64("seq", seq))
		return latest, nil
	}
	s.cacheCurrent(ctx, key, records, gen)
	return records, nil
}

// cacheCurrent stores value unless an invalidation happened since gen was read.
// The second check covers an invalidation racing with the write itself.
func (s *HistoryService) cacheCurrent(ctx context.Context, key string, value interface{}, gen uint64) {
	if s.feed.Generation() != gen {
		s.logger.Debug("skipped caching history fetched before invalidation", zap.String("key", key))
		return
	}
	s.cache.Set(ctx, key, value, s.cfg.CacheTTL)
	if s.feed.Generation() != gen {
		s.cache.Delete(ctx, key)
	}
}

func (s *HistoryService) findProgram(ctx context.Context, ref string) (*models.Program, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "program is required")
	}
	var (
		program *models.Program
		err     error
	)
	if _, parseErr := uuid.Parse(ref); parseErr == nil {
		program, err = s.programs.FindByID(ctx, ref)
	} else {
		program, err = s.programs.FindByCode(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}

func (s *HistoryService) clampPageSize(size int) int {
	if size <= 0 {
		return s.cfg.DefaultPageSize
	}
	if size > s.cfg.MaxPageSize {
		return s.cfg.MaxPageSize
	}
	return size
}

func atoiOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}
