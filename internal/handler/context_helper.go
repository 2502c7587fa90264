package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/senai-sm/school-manager/internal/middleware"
	"github.com/senai-sm/school-manager/internal/models"
	appErrors "github.com/senai-sm/school-manager/pkg/errors"
	"github.com/senai-sm/school-manager/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// respond writes a cached read with its cache flag and timing folded into the meta block.
func respond(c *gin.Context, start time.Time, data interface{}, cacheHit bool) {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta[middleware.MetaProcessingTime] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, data, nil, meta)
}

func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}
