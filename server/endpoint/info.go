package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/whisper-api/version"
)

var startTime = time.Now()

// Details contributes service-specific fields to /info, e.g. the engine
// model and accepted formats.
type Details func() map[string]any

// Info reports the service name, build version, uptime and extra details.
func Info(serviceName string, details Details) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"service": serviceName,
			"version": version.Get(),
			"uptime":  time.Since(startTime).Round(time.Second).String(),
		}
		if details != nil {
			for k, v := range details() {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	}
}

// Version reports build version information.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}
