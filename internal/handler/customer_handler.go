package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/luckydraw-admin-api/internal/dto"
	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	appErrors "github.com/noah-isme/luckydraw-admin-api/pkg/errors"
	"github.com/noah-isme/luckydraw-admin-api/pkg/importer"
	"github.com/noah-isme/luckydraw-admin-api/pkg/response"
)

type customerService interface {
	List(ctx context.Context, programID string, q dto.CustomerQuery) ([]models.Customer, *models.Pagination, error)
	Register(ctx context.Context, programID string, req dto.RegisterCustomerRequest) (*models.Customer, error)
	Import(ctx context.Context, programID string, rows []importer.Row) (*dto.ImportReport, error)
	BulkDelete(ctx context.Context, req dto.BulkDeleteRequest) (*dto.BulkResult, error)
}

// CustomerHandler exposes customer registration endpoints.
type CustomerHandler struct {
	service     customerService
	maxFileSize int64
}

// NewCustomerHandler constructs the handler. maxFileSize bounds import uploads in bytes.
func NewCustomerHandler(service customerService, maxFileSize int64) *CustomerHandler {
	return &CustomerHandler{service: service, maxFileSize: maxFileSize}
}

// List godoc
// @Summary List customers of a program
// @Tags Customers
// @Produce json
// @Param id path string true "Program ID"
// @Param search query string false "Name, phone or customer code"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var q dto.CustomerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	customers, pagination, err := h.service.List(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, customers, pagination)
}

// Register godoc
// @Summary Register a customer on a program
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body dto.RegisterCustomerRequest true "Customer"
// @Success 201 {object} response.Envelope
// @Router /programs/{id}/customers [post]
func (h *CustomerHandler) Register(c *gin.Context) {
	var req dto.RegisterCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid customer payload"))
		return
	}
	customer, err := h.service.Register(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, customer)
}

// Import godoc
// @Summary Import customers from CSV or XLSX
// @Description Header row must carry name, phone, customer_code and ticket_count. Rows are created independently.
// @Tags Customers
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Program ID"
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/customers/import [post]
func (h *CustomerHandler) Import(c *gin.Context) {
	if h.maxFileSize > 0 {
		if c.Request.ContentLength > h.maxFileSize {
			response.Error(c, appErrors.ErrPayloadTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.ErrPayloadTooLarge)
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close() //nolint:errcheck

	rows, err := importer.Parse(fileHeader.Filename, src)
	if err != nil {
		response.Error(c, importError(err))
		return
	}
	report, err := h.service.Import(c.Request.Context(), c.Param("id"), rows)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// BulkDelete godoc
// @Summary Delete customers in bulk
// @Description Deletes run independently and are not rolled back; the response only aggregates outcomes.
// @Tags Customers
// @Accept json
// @Produce json
// @Param payload body dto.BulkDeleteRequest true "Customer IDs"
// @Success 200 {object} response.Envelope
// @Router /customers/bulk-delete [post]
func (h *CustomerHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid bulk delete payload"))
		return
	}
	result, err := h.service.BulkDelete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func importError(err error) error {
	switch {
	case errors.Is(err, importer.ErrUnsupportedFormat):
		return appErrors.Clone(appErrors.ErrValidation, "only .csv and .xlsx files are supported")
	case errors.Is(err, importer.ErrMissingColumns), errors.Is(err, importer.ErrEmptyFile):
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file could not be read")
	}
}
