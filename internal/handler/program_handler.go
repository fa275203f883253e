package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/luckydraw-admin-api/internal/dto"
	"github.com/noah-isme/luckydraw-admin-api/internal/middleware"
	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	appErrors "github.com/noah-isme/luckydraw-admin-api/pkg/errors"
	"github.com/noah-isme/luckydraw-admin-api/pkg/response"
)

type programService interface {
	List(ctx context.Context, q dto.ProgramQuery) ([]models.Program, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Program, error)
	Create(ctx context.Context, req dto.CreateProgramRequest) (*models.Program, error)
	Update(ctx context.Context, id string, req dto.UpdateProgramRequest) (*models.Program, error)
	Prizes(ctx context.Context, programID string) ([]models.Prize, error)
	ExtraNumbers(ctx context.Context, id string) (*dto.ExtraNumbersResponse, error)
	SaveExtraNumbers(ctx context.Context, id string, req dto.ExtraNumbersRequest) (*dto.ExtraNumbersResponse, error)
	RemoveExtraNumber(ctx context.Context, id string, removal dto.ExtraNumberRemoval) (*dto.ExtraNumberRemovalResult, error)
}

type programDashboard interface {
	Dashboard(ctx context.Context, ref string) (*dto.ProgramDashboard, bool, error)
}

// ProgramHandler exposes program configuration endpoints.
type ProgramHandler struct {
	service   programService
	dashboard programDashboard
}

// NewProgramHandler constructs the handler.
func NewProgramHandler(service programService, dashboard programDashboard) *ProgramHandler {
	return &ProgramHandler{service: service, dashboard: dashboard}
}

// List godoc
// @Summary List programs
// @Tags Programs
// @Produce json
// @Param search query string false "Code or name"
// @Param active query bool false "Active flag"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	var q dto.ProgramQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	programs, pagination, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, pagination)
}

// Get godoc
// @Summary Get program
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	program, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Create godoc
// @Summary Create program
// @Tags Programs
// @Accept json
// @Produce json
// @Param payload body dto.CreateProgramRequest true "Program payload"
// @Success 201 {object} response.Envelope
// @Router /programs [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	var req dto.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid program payload"))
		return
	}
	program, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// Update godoc
// @Summary Update program
// @Tags Programs
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body dto.UpdateProgramRequest true "Program payload"
// @Success 200 {object} response.Envelope
// @Router /programs/{id} [put]
func (h *ProgramHandler) Update(c *gin.Context) {
	var req dto.UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid program payload"))
		return
	}
	program, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Prizes godoc
// @Summary Prize pool of a program
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/prizes [get]
func (h *ProgramHandler) Prizes(c *gin.Context) {
	prizes, err := h.service.Prizes(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prizes, nil)
}

// Dashboard godoc
// @Summary Participation summary of a program
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID or code"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/dashboard [get]
func (h *ProgramHandler) Dashboard(c *gin.Context) {
	if h.dashboard == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	summary, cacheHit, err := h.dashboard.Dashboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, metaWith(c, nil))
}

// ExtraNumbers godoc
// @Summary Extra numbers of a program
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/extra-numbers [get]
func (h *ProgramHandler) ExtraNumbers(c *gin.Context) {
	result, err := h.service.ExtraNumbers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SaveExtraNumbers godoc
// @Summary Replace the extra numbers of a program
// @Description Blank or half-filled rows are dropped before saving.
// @Tags Programs
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body dto.ExtraNumbersRequest true "Rows"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/extra-numbers [put]
func (h *ProgramHandler) SaveExtraNumbers(c *gin.Context) {
	var req dto.ExtraNumbersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid extra numbers payload"))
		return
	}
	result, err := h.service.SaveExtraNumbers(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RemoveExtraNumber godoc
// @Summary Remove one extra number
// @Description Saved rows need confirm=true; unsaved rows are reported with remote=false.
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Param number path string true "Number"
// @Param repeat query int false "Repeat count of the row"
// @Param prizeCode query string false "Prize code of the row"
// @Param confirm query bool false "Confirm removal of a saved row"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/extra-numbers/{number} [delete]
func (h *ProgramHandler) RemoveExtraNumber(c *gin.Context) {
	var removal dto.ExtraNumberRemoval
	if err := c.ShouldBindQuery(&removal); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid removal parameters"))
		return
	}
	removal.Number = c.Param("number")
	result, err := h.service.RemoveExtraNumber(c.Request.Context(), c.Param("id"), removal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
