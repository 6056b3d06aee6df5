package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getStats handles GET <base>/stats
func (s *Server) getStats(c *gin.Context) {
	stats, err := s.statsService.GetPortfolioStats(c.Request.Context())
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to get stats: "+err.Error())
		return
	}

	if s.scheduler != nil {
		if _, generatedAt, ok := s.scheduler.Snapshot(); ok {
			stats.SnapshotTime = &generatedAt
		}
	}

	s.successResponse(c, stats)
}
