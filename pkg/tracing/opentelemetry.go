package tracing

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	endpointEnv   = "OTEL_EXPORTER_OTLP_ENDPOINT"
	samplerArgEnv = "OTEL_TRACES_SAMPLER_ARG"

	defaultSamplingRatio = 0.1
)

var (
	once     sync.Once
	provider *sdktrace.TracerProvider
)

// Init wires the global OpenTelemetry tracer provider to the OTLP collector
// named by OTEL_EXPORTER_OTLP_ENDPOINT. Without the endpoint the process runs
// untraced and GetTracer hands out noop tracers.
func Init() {
	once.Do(func() {
		serviceName := viper.GetString("APP_NAME")
		if serviceName == "" {
			log.Fatal().Msg("APP_NAME cannot be empty!!!")
		}
		collectorURL := os.Getenv(endpointEnv)
		if collectorURL == "" {
			log.Warn().Msg(endpointEnv + " env is not set, tracing disabled")
			return
		}

		ctx := context.Background()
		exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(collectorURL),
		))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create OTLP trace exporter")
		}

		res, err := resource.New(ctx, resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("telemetry.sdk.language", "go"),
		))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create OTLP resource")
		}

		viper.SetDefault(samplerArgEnv, defaultSamplingRatio)
		ratio := viper.GetFloat64(samplerArgEnv)

		provider = sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(provider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{}))

		log.Info().
			Str("collectorURL", collectorURL).
			Str("serviceName", serviceName).
			Float64("samplingRatio", ratio).
			Msg("Tracer initialized!")
	})
}

// GetTracer returns a tracer scoped to name, or a noop tracer when tracing
// is disabled.
func GetTracer(name string) trace.Tracer {
	if provider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return provider.Tracer(name)
}

// ShutdownTracer flushes buffered spans. Call on process exit.
func ShutdownTracer() {
	if provider == nil {
		return
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Tracer shutdown failed")
		return
	}
	log.Info().Msg("Tracer shutdown complete")
}
