package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
	"github.com/noah-isme/academic-portal-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

// DashboardHandler exposes the teacher home page counters.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the dashboard handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Stats godoc
// @Summary Dashboard statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
