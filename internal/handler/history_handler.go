package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/luckydraw-admin-api/internal/dto"
	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	appErrors "github.com/noah-isme/luckydraw-admin-api/pkg/errors"
	"github.com/noah-isme/luckydraw-admin-api/pkg/query"
	"github.com/noah-isme/luckydraw-admin-api/pkg/response"
)

type historyService interface {
	Criteria(q dto.HistoryQuery) (query.Criteria, error)
	View(ctx context.Context, c query.Criteria) (*dto.HistoryView, error)
	UpdateView(ctx context.Context, userID string, patch dto.ViewPatch) (*dto.HistoryView, error)
}

// HistoryHandler serves the draw history table.
type HistoryHandler struct {
	service historyService
}

// NewHistoryHandler constructs the handler.
func NewHistoryHandler(service historyService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// List godoc
// @Summary Draw history page
// @Description Filters, sorts and pages draw records. Malformed dates or pages degrade instead of failing.
// @Tags History
// @Produce json
// @Param tab query string false "participants or winners"
// @Param q query string false "Free text search"
// @Param program query string false "Program code or name"
// @Param prize query string false "Prize name (winners tab)"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param sortBy query string false "subjectName, prizeName, drawnAt or wonAt"
// @Param sortOrder query string false "asc or desc"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	var q dto.HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	criteria, err := h.service.Criteria(q)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.View(c.Request.Context(), criteria)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, historyPagination(view), metaWith(c, map[string]interface{}{
		"totalAll": view.TotalAll,
		"tab":      view.Tab,
	}))
}

// UpdateView godoc
// @Summary Update the caller's stored history view
// @Tags History
// @Accept json
// @Produce json
// @Param payload body dto.ViewPatch true "View changes"
// @Success 200 {object} response.Envelope
// @Router /history/view [patch]
func (h *HistoryHandler) UpdateView(c *gin.Context) {
	claims, ok := requireActor(c)
	if !ok {
		return
	}
	var patch dto.ViewPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid view payload"))
		return
	}
	view, err := h.service.UpdateView(c.Request.Context(), claims.UserID, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, historyPagination(view), metaWith(c, nil))
}

func historyPagination(view *dto.HistoryView) *models.Pagination {
	return &models.Pagination{
		Page:       view.Page,
		PageSize:   view.PageSize,
		TotalCount: view.TotalFiltered,
		MaxPage:    view.MaxPage,
	}
}
