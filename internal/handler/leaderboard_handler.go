package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/pkg/response"
)

type leaderboardService interface {
	Get(ctx context.Context, filter models.LeaderboardFilter) ([]models.LeaderboardEntry, bool, error)
	Update(ctx context.Context) (*models.LeaderboardUpdate, error)
}

// LeaderboardHandler serves the OGI ranking.
type LeaderboardHandler struct {
	leaderboard leaderboardService
}

// NewLeaderboardHandler constructs LeaderboardHandler.
func NewLeaderboardHandler(leaderboard leaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// Get godoc
// @Summary Leaderboard
// @Tags Leaderboard
// @Produce json
// @Param course query string false "Course"
// @Param batch query string false "Batch ID"
// @Param sortBy query string false "OGI, attendance or assignmentScore"
// @Success 200 {object} response.Envelope
// @Router /leaderboard [get]
func (h *LeaderboardHandler) Get(c *gin.Context) {
	filter := models.LeaderboardFilter{
		Course:  c.Query("course"),
		BatchID: c.Query("batch"),
		SortBy:  c.Query("sortBy"),
	}
	start := time.Now()
	entries, hit, err := h.leaderboard.Get(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	cachedJSON(c, entries, hit, start)
}

// Update godoc
// @Summary Refresh snapshots and re-rank
// @Tags Leaderboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leaderboard/update [post]
func (h *LeaderboardHandler) Update(c *gin.Context) {
	update, err := h.leaderboard.Update(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, update.Message, update)
}
