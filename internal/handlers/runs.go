package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/innatolkaneva/weather/internal/repository"
)

// runsRequest defines the optional query parameters for GET /api/runs
type runsRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// RunsHandler returns a Gin handler for GET /api/runs
func RunsHandler(repo repository.RunRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1) Bind and validate the 'limit' query parameter
		var req runsRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			// 400 Invalid request
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Limit == 0 {
			req.Limit = 20
		}

		// 2) Read the ledger
		runs, err := repo.List(c.Request.Context(), req.Limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
			return
		}
		if runs == nil {
			runs = []repository.Run{}
		}

		// 3) 200 Successful operation
		c.JSON(http.StatusOK, gin.H{"runs": runs})
	}
}
