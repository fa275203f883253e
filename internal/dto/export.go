package dto

import (
	"time"

	"github.com/noah-isme/luckydraw-admin-api/internal/models"
)

// ExportRequest captures POST /history/exports payload.
type ExportRequest struct {
	Format    models.ExportFormat `json:"format" validate:"required,oneof=csv pdf xlsx"`
	Tab       string              `json:"tab"`
	Query     string              `json:"q"`
	Program   string              `json:"program"`
	Prize     string              `json:"prize"`
	From      string              `json:"from"`
	To        string              `json:"to"`
	SortBy    string              `json:"sortBy"`
	SortOrder string              `json:"sortOrder"`
	MaskPhone bool                `json:"maskPhone"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID          string              `json:"id"`
	Status      models.ExportStatus `json:"status"`
	Progress    int                 `json:"progress"`
	RowCount    int                 `json:"rowCount"`
	DownloadURL *string             `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time          `json:"expiresAt,omitempty"`
	Error       *string             `json:"error,omitempty"`
}
