package endpoint

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
)

// Stats contributes live counters to /metrics, e.g. engine slots in use.
type Stats func() map[string]any

// Metrics reports runtime memory, goroutines and the given stats as JSON.
// OTLP export is handled by the observability package.
func Metrics(stats Stats) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		body := gin.H{
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb": m.Alloc >> 20,
				"sys_mb":   m.Sys >> 20,
				"gc_runs":  m.NumGC,
			},
		}
		if stats != nil {
			for k, v := range stats() {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
