package httpframework

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/microscopium/microscopium/pkg/middleware"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

var (
	router *gin.Engine
	once   sync.Once
)

// Init builds the shared gin engine. Tracing, request logging and panic
// recovery run after any middlewares the caller passes in.
func Init(middlewares ...gin.HandlerFunc) {
	once.Do(func() {
		appName := viper.GetString("APP_NAME")
		if appName == "" {
			log.Fatal().Msg("APP_NAME cannot be empty!!!")
		}
		switch os.Getenv("APP_ENV") {
		case "prod", "production":
			gin.SetMode(gin.ReleaseMode)
		}
		router = gin.New()
		router.Use(middlewares...)
		router.Use(otelgin.Middleware(appName), middleware.HTTPLogger(), middleware.HTTPRecovery())
	})
}

// Instance returns the shared engine. Init must run first.
func Instance() *gin.Engine {
	if router == nil {
		log.Fatal().Msg("Router not initialized")
	}
	return router
}

// ResetForTesting clears the singleton. Tests only.
func ResetForTesting() {
	router = nil
	once = sync.Once{}
}
