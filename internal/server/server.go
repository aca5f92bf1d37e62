package server

import (
	"net/http"
	"strconv"

	"github.com/microscopium/microscopium/pkg/httpframework"
	"github.com/rs/zerolog/log"
)

// InitServer blocks serving the shared gin engine on the given port.
func InitServer(port int) {
	if port == 0 {
		log.Panic().Msg("PORT not set")
	}
	log.Info().Int("port", port).Msg("Starting HTTP server")
	if err := http.ListenAndServe(":"+strconv.Itoa(port), httpframework.Instance()); err != nil {
		log.Panic().Msgf("There's an error while starting the server!, error - %v", err)
	}
}
