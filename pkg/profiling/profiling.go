package profiling

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	once        sync.Once
	initialized = false
)

// Init starts the pprof HTTP listener when APP_PROFILING_ENABLED is set.
func Init() {
	if !viper.GetBool("APP_PROFILING_ENABLED") {
		return
	}
	if initialized {
		log.Debug().Msg("Profiling environment already initialized!")
		return
	}
	once.Do(func() {
		port := viper.GetInt("APP_PROFILING_PORT")
		if port == 0 {
			port = 6060
		}
		go func() {
			addr := fmt.Sprintf(":%d", port)
			log.Info().Msgf("Starting pprof server on %s", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				log.Error().Err(err).Msg("pprof server stopped")
			}
		}()
		initialized = true
	})
}
