package logger

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
)

const timeFormat = "2006-01-02 15:04:05.000"

var (
	once        sync.Once
	initialized bool
	signalChan  = make(chan os.Signal, 1)
)

// Init configures the global zerolog logger from APP_NAME and APP_LOG_LEVEL.
func Init() {
	appName := viper.GetString("APP_NAME")
	if appName == "" {
		panic("APP_NAME is not set!")
	}
	logLevel := viper.GetString("APP_LOG_LEVEL")
	if logLevel == "" {
		panic("APP_LOG_LEVEL is not set!")
	}
	InitLogger(appName, logLevel)
}

// InitLogger configures the global logger directly. Useful when the level
// comes from a config file rather than the environment.
func InitLogger(appName, logLevel string) {
	if appName == "" {
		panic("Application name is not set!")
	}
	if logLevel == "" {
		log.Warn().Msg("Log level not set, defaulting to WARN")
		logLevel = "WARN"
	}
	if initialized {
		log.Debug().Msg("Logger already initialized!")
		return
	}
	once.Do(func() {
		setLogLevel(logLevel)
		log.Logger = log.Output(consoleWriter(buildOutput())).With().Caller().Logger()

		zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
			parts := strings.Split(file, "/")
			return fmt.Sprintf("[%s::%d]", parts[len(parts)-1], line)
		}
		zerolog.ErrorStackMarshaler = func(err error) interface{} {
			return fmt.Sprintf("%s\n%s", err, debug.Stack())
		}
		log.Logger = log.Logger.Hook(traceHook{})

		initialized = true
		log.Info().Msg("Logger initialized!")
	})
}

// buildOutput wraps stdout in a diode ring buffer when LOG_RB_SIZE is set, so
// a slow terminal or collector cannot stall request goroutines. Dropped lines
// are counted, not recovered.
func buildOutput() io.Writer {
	if !viper.IsSet("LOG_RB_SIZE") || viper.GetInt("LOG_RB_SIZE") <= 0 {
		return os.Stdout
	}
	rbSize := viper.GetInt("LOG_RB_SIZE")
	drainingInterval := viper.GetDuration("LOG_RB_DRAINING_INTERVAL")
	if drainingInterval <= 0 {
		drainingInterval = 5 * time.Millisecond
	}

	metric.Incr("log_rb_initialized", []string{})
	var dropWarnOnce sync.Once
	dw := diode.NewWriter(os.Stdout, rbSize, drainingInterval, func(missed int) {
		metric.Count("log_rb_dropped", int64(missed), []string{})
		dropWarnOnce.Do(func() {
			fmt.Fprintf(os.Stderr, "Error from Logger: dropping logs due to buffer overflow\n")
		})
	})

	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-signalChan
		fmt.Fprintln(os.Stdout, "Received signal, closing logger")
		_ = dw.Close()
	}()
	return dw
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:           w,
		NoColor:       true,
		TimeFormat:    timeFormat,
		FormatLevel:   func(i interface{}) string { return strings.ToUpper(fmt.Sprintf("- [%-5s] -", i)) },
		FormatCaller:  func(i interface{}) string { return fmt.Sprintf("%s", i) },
		FormatMessage: func(i interface{}) string { return fmt.Sprintf("%s", i) },
		FieldsExclude: []string{"traceInfo"},
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.CallerFieldName,
			"traceInfo",
			zerolog.MessageFieldName,
		},
	}
}

func setLogLevel(logLevel string) {
	level, err := zerolog.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		log.Panic().Msgf("Incorrect log level - %s", logLevel)
	}
	zerolog.SetGlobalLevel(level)
}

// traceHook stamps each event with the active OpenTelemetry trace and span
// ids so log lines can be joined to traces.
type traceHook struct{}

func (h traceHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	spanContext := trace.SpanFromContext(e.GetCtx()).SpanContext()
	traceId := ""
	spanId := ""
	if spanContext.HasTraceID() {
		traceId = spanContext.TraceID().String()
	}
	if spanContext.HasSpanID() {
		spanId = spanContext.SpanID().String()
	}
	e.Str("traceInfo", fmt.Sprintf("(%s,%s)", traceId, spanId))
}
