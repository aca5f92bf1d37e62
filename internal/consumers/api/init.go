package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microscopium/microscopium/pkg/httpframework"
)

const (
	HealthCheckPath = "/health"
)

func Init() {
	httpframework.Instance().GET(HealthCheckPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
