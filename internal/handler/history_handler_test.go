package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/luckydraw-admin-api/internal/dto"
	"github.com/noah-isme/luckydraw-admin-api/internal/middleware"
	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	appErrors "github.com/noah-isme/luckydraw-admin-api/pkg/errors"
	"github.com/noah-isme/luckydraw-admin-api/pkg/query"
)

type historyServiceMock struct {
	criteriaErr error
	view        *dto.HistoryView
	viewErr     error

	gotQuery    dto.HistoryQuery
	gotCriteria query.Criteria
	gotUser     string
	gotPatch    dto.ViewPatch
}

func (m *historyServiceMock) Criteria(q dto.HistoryQuery) (query.Criteria, error) {
	m.gotQuery = q
	if m.criteriaErr != nil {
		return query.Criteria{}, m.criteriaErr
	}
	return query.Criteria{Tab: query.ParseTab(q.Tab), Query: q.Query}, nil
}

func (m *historyServiceMock) View(_ context.Context, c query.Criteria) (*dto.HistoryView, error) {
	m.gotCriteria = c
	return m.view, m.viewErr
}

func (m *historyServiceMock) UpdateView(_ context.Context, userID string, patch dto.ViewPatch) (*dto.HistoryView, error) {
	m.gotUser = userID
	m.gotPatch = patch
	return m.view, m.viewErr
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func sampleView() *dto.HistoryView {
	return &dto.HistoryView{
		Tab:           query.TabWinners,
		Records:       []query.Record{{ID: "r2", PrizeName: "Jackpot", WonAt: "2024-01-03"}},
		Page:          2,
		MaxPage:       3,
		PageSize:      10,
		TotalFiltered: 21,
		TotalAll:      40,
		Prizes:        []query.PrizeCount{{Prize: "Jackpot", Count: 21}},
	}
}

func TestHistoryHandlerListBindsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &historyServiceMock{view: sampleView()}
	handler := NewHistoryHandler(svc)

	c, w := newGinContext(http.MethodGet, "/history?tab=winners&q=binh&from=not-a-date&page=abc", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "winners", svc.gotQuery.Tab)
	assert.Equal(t, "not-a-date", svc.gotQuery.From)
	assert.Equal(t, "abc", svc.gotQuery.Page)
	assert.Equal(t, query.TabWinners, svc.gotCriteria.Tab)

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Page)
	assert.Equal(t, 21, env.Pagination.TotalCount)
	assert.Equal(t, 3, env.Pagination.MaxPage)
	assert.EqualValues(t, 40, env.Meta["totalAll"])
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestHistoryHandlerListRejectsUnknownSort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &historyServiceMock{criteriaErr: appErrors.Clone(appErrors.ErrValidation, "unsupported sortBy")}
	handler := NewHistoryHandler(svc)

	c, w := newGinContext(http.MethodGet, "/history?sortBy=password", nil)
	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, w).Error.Code)
}

func TestHistoryHandlerListEchoesViewSequence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHistoryHandler(&historyServiceMock{view: sampleView()})

	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	router.GET("/history", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	req.Header.Set(middleware.ViewSequenceHeader, "42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 42, decodeEnvelope(t, w).Meta["sequence"])
}

func TestHistoryHandlerListServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHistoryHandler(&historyServiceMock{viewErr: appErrors.ErrInternal})

	c, w := newGinContext(http.MethodGet, "/history", nil)
	handler.List(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHistoryHandlerUpdateView(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &historyServiceMock{view: sampleView()}
	handler := NewHistoryHandler(svc)

	c, w := newGinContext(http.MethodPatch, "/history/view", []byte(`{"tab":"winners","filters":{"query":"0901"},"page":2}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "operator-1", Role: models.RoleOperator})
	handler.UpdateView(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "operator-1", svc.gotUser)
	require.NotNil(t, svc.gotPatch.Tab)
	assert.Equal(t, "winners", *svc.gotPatch.Tab)
	require.NotNil(t, svc.gotPatch.Page)
	assert.Equal(t, 2, *svc.gotPatch.Page)
	assert.Nil(t, svc.gotPatch.SortBy)
}

func TestHistoryHandlerUpdateViewRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHistoryHandler(&historyServiceMock{view: sampleView()})

	c, w := newGinContext(http.MethodPatch, "/history/view", []byte(`{}`))
	handler.UpdateView(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHistoryHandlerUpdateViewBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHistoryHandler(&historyServiceMock{view: sampleView()})

	c, w := newGinContext(http.MethodPatch, "/history/view", []byte(`{"page":"two"}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "operator-1", Role: models.RoleOperator})
	handler.UpdateView(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
