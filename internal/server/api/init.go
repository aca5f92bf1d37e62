package api

import (
	"github.com/microscopium/microscopium/internal/server/middlewares"
	"github.com/microscopium/microscopium/internal/serving/handlers/samples"
	"github.com/microscopium/microscopium/internal/serving/handlers/similar"
	"github.com/microscopium/microscopium/pkg/httpframework"
)

const (
	healthCheckPath = "/health"
	handlerVersion  = 1
)

func Init() {
	middlewares.Init()
	engine := httpframework.Instance()
	engine.GET(healthCheckPath, healthProvider)

	samplesHandler := samples.GetHandler(handlerVersion)
	similarHandler := similar.GetHandler(handlerVersion)

	v1 := engine.Group("/api/v1")
	v1.GET("/screens/:screen/samples", samplesHandler.GetSamples)
	v1.GET("/screens/:screen/samples/:id/image", samplesHandler.GetImage)
	v1.GET("/screens/:screen/table.csv", samplesHandler.GetTableCSV)

	// selections and similarity queries carry request bodies and require auth
	guarded := v1.Group("", middlewares.AuthInterceptor())
	guarded.POST("/screens/:screen/selection", samplesHandler.PostSelection)
	guarded.POST("/screens/:screen/similar", similarHandler.GetSimilarSamples)
}
