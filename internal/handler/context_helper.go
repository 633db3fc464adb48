package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/middleware"
	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
	"github.com/noah-isme/academic-portal-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentTeacher(c)
}

// bindJSON decodes the body into dest and writes a 400 on failure.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return fallback
}

// cachedJSON writes data with cache_hit and processing_time_ms metadata.
func cachedJSON(c *gin.Context, data interface{}, hit bool, start time.Time) {
	middleware.SetCacheHit(c, hit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, data, nil, meta)
}
