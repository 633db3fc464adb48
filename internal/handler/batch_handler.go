package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/service"
	"github.com/noah-isme/academic-portal-api/pkg/response"
)

type batchService interface {
	List(ctx context.Context) ([]models.Batch, error)
	Create(ctx context.Context, req service.CreateBatchRequest) (*models.Batch, error)
	Update(ctx context.Context, id string, req service.UpdateBatchRequest) (*models.Batch, error)
	End(ctx context.Context, id string) (*models.Batch, error)
}

// BatchHandler manages cohorts.
type BatchHandler struct {
	batches batchService
}

// NewBatchHandler constructs BatchHandler.
func NewBatchHandler(batches batchService) *BatchHandler {
	return &BatchHandler{batches: batches}
}

// List godoc
// @Summary List batches
// @Tags Batches
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /batches [get]
func (h *BatchHandler) List(c *gin.Context) {
	batches, err := h.batches.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batches, nil)
}

// Create godoc
// @Summary Create batch
// @Tags Batches
// @Accept json
// @Produce json
// @Param payload body service.CreateBatchRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Router /batches [post]
func (h *BatchHandler) Create(c *gin.Context) {
	var req service.CreateBatchRequest
	if !bindJSON(c, &req) {
		return
	}
	batch, err := h.batches.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, batch)
}

// Update godoc
// @Summary Update batch
// @Tags Batches
// @Accept json
// @Produce json
// @Param id path string true "Batch ID"
// @Param payload body service.UpdateBatchRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /batches/{id} [put]
func (h *BatchHandler) Update(c *gin.Context) {
	var req service.UpdateBatchRequest
	if !bindJSON(c, &req) {
		return
	}
	batch, err := h.batches.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// End godoc
// @Summary Mark batch completed
// @Tags Batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/end [post]
func (h *BatchHandler) End(c *gin.Context) {
	batch, err := h.batches.End(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Batch ended", batch)
}
