package shared

import (
	"github.com/gin-gonic/gin"
)

// ParseActiveFilter parses the active query parameter and returns a pointer to bool or nil
func ParseActiveFilter(c *gin.Context) *bool {
	activeStr := c.Query("active")
	if activeStr == "" {
		return nil
	}

	switch activeStr {
	case "true":
		return &[]bool{true}[0]
	case "false":
		return &[]bool{false}[0]
	default:
		return nil
	}
}
