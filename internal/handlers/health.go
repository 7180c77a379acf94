package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/familyconnect/familyconnect/pkg/response"
)

// Health returns a simple status payload useful for readiness checks. When a
// database handle is supplied the ping result is included.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload := gin.H{"status": "ok"}
		if db != nil {
			dbStatus := "ok"
			if sqlDB, err := db.DB(); err != nil {
				dbStatus = "error"
			} else if err := sqlDB.PingContext(requestContext(c)); err != nil {
				dbStatus = "error"
			}
			payload["database"] = dbStatus
			if dbStatus != "ok" {
				response.Success(c, http.StatusServiceUnavailable, payload)
				return
			}
		}
		response.Success(c, http.StatusOK, payload)
	}
}
