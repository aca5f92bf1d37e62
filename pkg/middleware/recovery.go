package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/microscopium/microscopium/pkg/metric"
)

// HTTPRecovery recovers from handler panics and returns a 500 instead of
// killing the serving process.
func HTTPRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Msgf("Recovered from panic in %s: %v", c.FullPath(), r)
				metric.Incr("api_handler_panic", metric.BuildTag(metric.NewTag(metric.TagPath, c.FullPath())))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}
