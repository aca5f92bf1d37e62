package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microscopium/microscopium/internal/config/structs"
	apihttp "github.com/microscopium/microscopium/pkg/api/http"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/rs/zerolog/log"
)

var (
	authTokens string
	initOnce   sync.Once
)

func Init() {
	initOnce.Do(func() {
		authTokens = structs.GetAppConfig().Configs.AuthTokens
	})
}

// AuthInterceptor rejects requests that do not carry a permitted auth token.
func AuthInterceptor() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		token := c.GetHeader(apihttp.HeaderAuthToken)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apihttp.HeaderAuthToken + " header is missing"})
			return
		}
		if !isAuthorized(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid auth token"})
			return
		}

		c.Next()

		trackGenericMetrics(startTime, c)
	}
}

func isAuthorized(token string) bool {
	if len(authTokens) == 0 {
		log.Panic().Msgf("AuthTokens not set")
	}
	tokens := strings.Split(authTokens, ",")
	return slices.Contains(tokens, token)
}

func trackGenericMetrics(startTime time.Time, c *gin.Context) {
	screen := c.GetHeader(apihttp.HeaderScreenContext)
	if screen == "" {
		screen = c.Param("screen")
	}
	tags := []string{
		"method", c.FullPath(),
		"screen_name", screen,
		"status", strconv.Itoa(c.Writer.Status()),
	}
	metric.Incr("microscopium_http_request", tags)
	metric.Timing("microscopium_http_request_latency", time.Since(startTime), tags)
}
