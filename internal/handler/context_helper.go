package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/luckydraw-admin-api/internal/middleware"
	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	appErrors "github.com/noah-isme/luckydraw-admin-api/pkg/errors"
	"github.com/noah-isme/luckydraw-admin-api/pkg/response"
)

// requireActor returns the authenticated caller or writes 401.
func requireActor(c *gin.Context) (*models.JWTClaims, bool) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// metaWith merges extra keys into the request metadata collected by middleware.
func metaWith(c *gin.Context, extra map[string]interface{}) map[string]interface{} {
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	for k, v := range extra {
		meta[k] = v
	}
	return meta
}
