package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, envelope(status, message, "data", data))
}

// JSONError sends a structured error response
func JSONError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, envelope(status, message, "error", err.Error()))
}

// AbortWithError sends a structured error response and stops the handler chain
func AbortWithError(c *gin.Context, status int, err error, message string) {
	c.AbortWithStatusJSON(status, envelope(status, message, "error", err.Error()))
}

func envelope(status int, message, key string, value any) gin.H {
	return gin.H{
		"status":  status,
		"message": message,
		key:       value,
	}
}
